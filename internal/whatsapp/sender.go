package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Skotchmaster/desi_occasions/internal/config"
)

const (
	ProviderTwilio = "twilio"
	ProviderCloud  = "cloud"
)

// Sender delivers one WhatsApp text message and returns the provider's JSON reply.
type Sender interface {
	Send(ctx context.Context, toE164, body string) (json.RawMessage, error)
}

// New picks the provider named in cfg. Credentials are checked at send time.
func New(cfg config.WhatsAppConfig) (Sender, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	switch cfg.Provider {
	case "", ProviderTwilio:
		return &Twilio{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFrom,
			HTTP:       client,
		}, nil
	case ProviderCloud:
		return &Cloud{
			Token:         cfg.CloudToken,
			PhoneNumberID: cfg.CloudPhoneNumberID,
			HTTP:          client,
		}, nil
	}
	return nil, fmt.Errorf("unknown WHATSAPP_PROVIDER %q", cfg.Provider)
}

func do(client *http.Client, req *http.Request, provider string) (json.RawMessage, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s read response: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s error: %d %s", provider, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if !json.Valid(raw) {
		raw, _ = json.Marshal(string(raw))
	}
	return raw, nil
}
