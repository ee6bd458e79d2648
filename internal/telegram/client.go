// Package telegram is a minimal Telegram Bot API client covering exactly the
// methods the relay needs: long-polled updates, text messages with Markdown
// fallback, photo and document uploads, and the typing indicator.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jes/cursor-claw/internal/attach"
)

const (
	// DefaultBaseURL is the production Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"

	// maxMessageRunes is Telegram's per-message text limit.
	maxMessageRunes = 4096

	// requestSlack is added on top of the long-poll window so the HTTP
	// request outlives the server-side timeout.
	requestSlack = 10 * time.Second
)

// Client talks to the Bot API for a single bot token.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Test hook.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Bot API client.
func NewClient(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		// No client-level timeout: getUpdates long-polls, and each call
		// carries its own context deadline.
		http:   &http.Client{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// call posts params as JSON to a Bot API method and decodes the result into
// out when non-nil.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s params: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	var envelope apiResponse
	if err = json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if out != nil {
		if err = json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates starting at offset. The poll window
// is capped by both the Bot API timeout parameter and a request deadline
// slightly beyond it.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout+requestSlack)
	defer cancel()

	params := map[string]any{
		"offset":  offset,
		"timeout": int(timeout / time.Second),
	}
	var updates []Update
	if err := c.call(pollCtx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendText sends text to a chat, splitting it into 4096-rune chunks. Each
// chunk is sent as Markdown first; if Telegram rejects the entity parse with
// a 400, the chunk is retried as plain text so the user still gets a reply.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitRunes(text, maxMessageRunes) {
		err := c.sendChunk(ctx, chatID, chunk, "Markdown")
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			c.logger.Debug("markdown rejected, retrying plain", "chat_id", chatID)
			err = c.sendChunk(ctx, chatID, chunk, "")
		}
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}
	return nil
}

func (c *Client) sendChunk(ctx context.Context, chatID int64, text, parseMode string) error {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		params["parse_mode"] = parseMode
	}
	callCtx, cancel := context.WithTimeout(ctx, requestSlack)
	defer cancel()
	return c.call(callCtx, "sendMessage", params, nil)
}

// SendFile uploads a queued attachment: images via sendPhoto, everything
// else via sendDocument.
func (c *Client) SendFile(ctx context.Context, chatID int64, path string, kind attach.Kind) error {
	method, field := "sendDocument", "document"
	if kind == attach.KindImage {
		method, field = "sendPhoto", "photo"
	}

	data, err := attachmentBody(chatID, field, path)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.methodURL(method), data.body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", data.contentType)
	if err = c.do(req, method, nil); err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}

// SendTyping sends the typing chat action. Best effort: a lost indicator is
// cosmetic, so errors are only logged.
func (c *Client) SendTyping(ctx context.Context, chatID int64) {
	params := map[string]any{
		"chat_id": chatID,
		"action":  "typing",
	}
	callCtx, cancel := context.WithTimeout(ctx, requestSlack)
	defer cancel()
	if err := c.call(callCtx, "sendChatAction", params, nil); err != nil {
		c.logger.Debug("failed to send typing indicator", "error", err)
	}
}

type multipartBody struct {
	body        *bytes.Buffer
	contentType string
}

func attachmentBody(chatID int64, field, path string) (*multipartBody, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err = w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return nil, fmt.Errorf("failed to write chat_id field: %w", err)
	}
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err = io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload body: %w", err)
	}
	return &multipartBody{body: &buf, contentType: w.FormDataContentType()}, nil
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}
	var chunks []string
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return append(chunks, string(runes))
}
