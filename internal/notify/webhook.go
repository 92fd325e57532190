package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Webhook posts the batch summary as a JSON document to a configured URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook returns nil when no URL is configured; a nil *Webhook is a
// disabled notifier and Send reports that as an error for the caller to log.
func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

func (w *Webhook) Send(ctx context.Context, title, text string) error {
	if w == nil || w.URL == "" {
		return errors.New("webhook disabled")
	}
	body, _ := json.Marshal(webhookPayload{Text: "*" + title + "*\n" + text})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("webhook non-2xx")
	}
	return nil
}
