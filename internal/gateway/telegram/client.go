// Package telegram implements chat.Conversation against a self-hosted
// Telegram session gateway (a tdlib HTTP bridge). Each farmed account is a
// logged-in user session on the gateway; the engines drive the trading bot's
// dialog through it.
//
// Login, session persistence and reconnection live on the gateway side --
// this client only sends text, reads recent history and invokes inline
// buttons.
package telegram

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"perpfarm/internal/chat"

	"github.com/tidwall/gjson"
)

const sendRetries = 3

// Client talks to one gateway instance and dials per-session conversations.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Conversation binds a gateway session to one peer (the trading bot).
func (c *Client) Conversation(session, peer string) *Conversation {
	return &Conversation{client: c, session: session, peer: peer}
}

// Conversation implements chat.Conversation over the gateway HTTP API.
type Conversation struct {
	client  *Client
	session string
	peer    string
}

var _ chat.Conversation = (*Conversation)(nil)

// SendText posts a message with a small linear-backoff retry. The gateway is
// a local process, so transient errors recover fast or not at all.
func (v *Conversation) SendText(ctx context.Context, text string) error {
	payload := map[string]any{"peer": v.peer, "text": text}
	var lastErr error
	for i := 0; i < sendRetries; i++ {
		_, err := v.client.post(ctx, v.path("messages"), payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	return fmt.Errorf("send text: %w", lastErr)
}

// Recent fetches up to limit messages, most recent first.
func (v *Conversation) Recent(ctx context.Context, limit int) ([]chat.Message, error) {
	q := url.Values{}
	q.Set("peer", v.peer)
	q.Set("limit", strconv.Itoa(limit))
	body, err := v.client.get(ctx, v.path("messages")+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch recent: %w", err)
	}
	return decodeMessages(body), nil
}

// Click invokes an inline button by its callback payload, falling back to the
// label for buttons the gateway exposes without data.
func (v *Conversation) Click(ctx context.Context, msg chat.Message, btn chat.Button) error {
	payload := map[string]any{
		"peer":       v.peer,
		"message_id": msg.ID,
		"label":      btn.Label,
	}
	if len(btn.Payload) > 0 {
		payload["data"] = base64.StdEncoding.EncodeToString(btn.Payload)
	}
	if _, err := v.client.post(ctx, v.path("clicks"), payload); err != nil {
		return fmt.Errorf("click button %q: %w", btn.Label, err)
	}
	return nil
}

func (v *Conversation) path(kind string) string {
	return fmt.Sprintf("/sessions/%s/%s", url.PathEscape(v.session), kind)
}

// decodeMessages tolerates missing fields; the gateway schema is not under
// our control and an unparseable button is better dropped than fatal.
func decodeMessages(body []byte) []chat.Message {
	var msgs []chat.Message
	gjson.GetBytes(body, "messages").ForEach(func(_, raw gjson.Result) bool {
		msg := chat.Message{
			ID:       raw.Get("id").Int(),
			Text:     raw.Get("text").String(),
			Outgoing: raw.Get("outgoing").Bool(),
		}
		raw.Get("buttons").ForEach(func(_, rawRow gjson.Result) bool {
			var row []chat.Button
			rawRow.ForEach(func(_, rawBtn gjson.Result) bool {
				btn := chat.Button{Label: rawBtn.Get("label").String()}
				if data := rawBtn.Get("data").String(); data != "" {
					if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
						btn.Payload = decoded
					}
				}
				row = append(row, btn)
				return true
			})
			if len(row) > 0 {
				msg.Buttons = append(msg.Buttons, row)
			}
			return true
		})
		msgs = append(msgs, msg)
		return true
	})
	return msgs
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("gateway status=%d: %s", resp.StatusCode, firstLine(data))
	}
	return data, nil
}

func firstLine(data []byte) string {
	s := strings.TrimSpace(string(data))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
