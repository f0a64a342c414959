package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Twilio sends through the Programmable Messaging API. BaseURL redirects the
// SDK's requests to another host, which tests point at an httptest server.
type Twilio struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTP       *http.Client
}

func (t *Twilio) Send(ctx context.Context, toE164, body string) (json.RawMessage, error) {
	if t.AccountSID == "" || t.AuthToken == "" || t.From == "" {
		return nil, errors.New("Twilio WhatsApp env vars not set")
	}
	rest, err := t.client()
	if err != nil {
		return nil, err
	}

	params := &openapi.CreateMessageParams{}
	params.SetPathAccountSid(t.AccountSID)
	params.SetFrom(withPrefix(t.From))
	params.SetTo(withPrefix(toE164))
	params.SetBody(body)

	// The SDK call takes no context; the HTTP client timeout bounds it.
	type result struct {
		msg *openapi.ApiV2010Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := rest.Api.CreateMessage(params)
		done <- result{msg, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("Twilio request: %w", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		var apiErr *twilioclient.TwilioRestError
		if errors.As(res.err, &apiErr) {
			return nil, fmt.Errorf("Twilio error: %d %s", apiErr.Status, apiErr.Message)
		}
		return nil, fmt.Errorf("Twilio request: %w", res.err)
	}
	return json.Marshal(res.msg)
}

func (t *Twilio) client() (*twilio.RestClient, error) {
	httpClient := t.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if t.BaseURL != "" {
		target, err := url.Parse(t.BaseURL)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("Twilio base url %q is invalid", t.BaseURL)
		}
		next := httpClient.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		rebased := *httpClient
		rebased.Transport = rehost{target: target, next: next}
		httpClient = &rebased
	}

	c := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(t.AccountSID, t.AuthToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(t.AccountSID)
	return twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}), nil
}

// rehost sends every request to target's scheme and host, keeping the path.
type rehost struct {
	target *url.URL
	next   http.RoundTripper
}

func (r rehost) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.target.Scheme
	out.URL.Host = r.target.Host
	out.Host = ""
	return r.next.RoundTrip(out)
}

func withPrefix(n string) string {
	if strings.HasPrefix(n, "whatsapp:") {
		return n
	}
	return "whatsapp:" + n
}
