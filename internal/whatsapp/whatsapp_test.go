package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/desi_occasions/internal/config"
)

func TestNew(t *testing.T) {
	s, err := New(config.WhatsAppConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Twilio{}, s)

	s, err = New(config.WhatsAppConfig{Provider: ProviderCloud})
	require.NoError(t, err)
	assert.IsType(t, &Cloud{}, s)

	_, err = New(config.WhatsAppConfig{Provider: "sms"})
	require.Error(t, err)
}

func TestTwilioSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "tok", pass)

		raw, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)
		assert.Equal(t, "whatsapp:+14155238886", form.Get("From"))
		assert.Equal(t, "whatsapp:+447700900123", form.Get("To"))
		assert.Equal(t, "hello", form.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	tw := &Twilio{AccountSID: "AC123", AuthToken: "tok", From: "whatsapp:+14155238886", BaseURL: srv.URL, HTTP: srv.Client()}
	resp, err := tw.Send(context.Background(), "+447700900123", "hello")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(resp, &got))
	assert.Equal(t, "SM1", got["sid"])
}

func TestTwilioProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`))
	}))
	defer srv.Close()

	tw := &Twilio{AccountSID: "AC123", AuthToken: "tok", From: "+14155238886", BaseURL: srv.URL}
	_, err := tw.Send(context.Background(), "+447700900123", "hello")
	require.Error(t, err)
	assert.Equal(t, "Twilio error: 400 Invalid 'To' Phone Number", err.Error())
}

func TestTwilioContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM2"}`))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tw := &Twilio{AccountSID: "AC123", AuthToken: "tok", From: "+14155238886", BaseURL: srv.URL}
	_, err := tw.Send(ctx, "+447700900123", "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTwilioMissingCreds(t *testing.T) {
	_, err := (&Twilio{}).Send(context.Background(), "+447700900123", "x")
	assert.EqualError(t, err, "Twilio WhatsApp env vars not set")
}

func TestCloudSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/PN1/messages", r.URL.Path)
		assert.Equal(t, "Bearer ctok", r.Header.Get("Authorization"))

		var msg cloudMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "whatsapp", msg.MessagingProduct)
		assert.Equal(t, "447700900123", msg.To)
		assert.Equal(t, "text", msg.Type)
		assert.Equal(t, "hi", msg.Text.Body)

		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := &Cloud{Token: "ctok", PhoneNumberID: "PN1", BaseURL: srv.URL, HTTP: srv.Client()}
	resp, err := c.Send(context.Background(), "+447700900123", "hi")
	require.NoError(t, err)
	assert.Contains(t, string(resp), "wamid.1")
}

func TestCloudProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &Cloud{Token: "x", PhoneNumberID: "PN1", BaseURL: srv.URL}
	_, err := c.Send(context.Background(), "+447700900123", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WhatsApp Cloud error: 401")

	_, err = (&Cloud{}).Send(context.Background(), "+447700900123", "hi")
	assert.EqualError(t, err, "WhatsApp Cloud env vars not set")
}
