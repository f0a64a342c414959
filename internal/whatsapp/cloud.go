package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const cloudBaseURL = "https://graph.facebook.com"

// Cloud sends through the WhatsApp Cloud API.
type Cloud struct {
	Token         string
	PhoneNumberID string
	BaseURL       string
	HTTP          *http.Client
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudMessage struct {
	MessagingProduct string    `json:"messaging_product"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             cloudText `json:"text"`
}

func (c *Cloud) Send(ctx context.Context, toE164, body string) (json.RawMessage, error) {
	if c.Token == "" || c.PhoneNumberID == "" {
		return nil, errors.New("WhatsApp Cloud env vars not set")
	}
	base := c.BaseURL
	if base == "" {
		base = cloudBaseURL
	}
	endpoint := strings.TrimRight(base, "/") + "/v20.0/" + url.PathEscape(c.PhoneNumberID) + "/messages"

	payload, err := json.Marshal(cloudMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(toE164, "+"),
		Type:             "text",
		Text:             cloudText{Body: body},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	return do(c.HTTP, req, "WhatsApp Cloud")
}
