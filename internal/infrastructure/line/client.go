package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the LINE Messaging API: synchronous replies keyed by the
// platform's reply token, and unsolicited pushes to a user id.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, channelToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.line.me"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   channelToken,
		http:    &http.Client{Timeout: timeout},
	}
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyPayload struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type pushPayload struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

// Reply answers one inbound message. Reply tokens are single-use and expire
// quickly, so there is no retry.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	body := replyPayload{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: text}},
	}
	return c.post(ctx, "/v2/bot/message/reply", body)
}

// Push sends text to a subscriber outside any reply context.
func (c *Client) Push(ctx context.Context, to, text string) error {
	body := pushPayload{
		To:       to,
		Messages: []textMessage{{Type: "text", Text: text}},
	}
	return c.post(ctx, "/v2/bot/message/push", body)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line %s http %d: %s", path, resp.StatusCode, string(detail))
	}
	return nil
}
