package agent

import (
	"strings"

	"github.com/tidwall/gjson"
)

// The agent emits JSON on stdout, either as a stream of newline-delimited
// events or as a single document, and has renamed its session field across
// releases. The parser scans every line rather than trusting one shape.

var sessionKeys = []string{"session_id", "sessionId", "chatId"}

var replyKeys = []string{"result", "text", "content", "response", "message", "output"}

// parseOutput extracts the reply text and session id from raw agent stdout.
// Either may come back empty. A "result" field wins over the looser reply
// keys; non-JSON output falls back to being the reply verbatim.
func parseOutput(out string) (reply, sessionID string) {
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ""
	}

	var loose string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !gjson.Valid(line) {
			continue
		}
		for _, key := range sessionKeys {
			if v := gjson.Get(line, key); v.Exists() && v.String() != "" {
				sessionID = v.String()
				break
			}
		}
		if v := gjson.Get(line, "result"); v.Type == gjson.String {
			reply = strings.TrimSpace(v.String())
			continue
		}
		if loose == "" {
			for _, key := range replyKeys[1:] {
				if v := gjson.Get(line, key); v.Type == gjson.String {
					loose = strings.TrimSpace(v.String())
					break
				}
			}
		}
	}
	if reply == "" {
		reply = loose
	}
	if reply != "" || sessionID != "" {
		return reply, sessionID
	}

	// Not line-delimited JSON; try the whole output as one document, then
	// give up and relay it raw.
	if gjson.Valid(out) {
		for _, key := range sessionKeys {
			if v := gjson.Get(out, key); v.Exists() && v.String() != "" {
				sessionID = v.String()
				break
			}
		}
		for _, key := range replyKeys {
			if v := gjson.Get(out, key); v.Type == gjson.String {
				return strings.TrimSpace(v.String()), sessionID
			}
		}
	}
	return out, sessionID
}
