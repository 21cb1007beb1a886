package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
)

func TestInitialize(t *testing.T) {
	var got initializeBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref-1"}}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, SecretKey: "sk_test"})
	auth, err := c.Initialize(context.Background(), payment.InitRequest{
		Email: "a@b.co", Amount: 11000, Currency: "KES", Reference: "ref-1",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if auth.AccessCode != "abc" || auth.Reference != "ref-1" || auth.AuthorizationURL == "" {
		t.Fatalf("authorization = %+v", auth)
	}
	if got.Amount != 11000 || got.Email != "a@b.co" || got.Currency != "KES" {
		t.Fatalf("request body = %+v", got)
	}
}

func TestProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status false", http.StatusOK, `{"status":false,"message":"Invalid key"}`},
		{"http error", http.StatusUnauthorized, `{"status":false,"message":"Invalid key"}`},
		{"garbage", http.StatusBadGateway, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(Options{BaseURL: srv.URL, SecretKey: "sk"}).Verify(context.Background(), "ref-1")
			if !errors.Is(err, payment.ErrProvider) {
				t.Fatalf("err = %v, want ErrProvider", err)
			}
		})
	}
}

func TestTimeoutIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, SecretKey: "sk", Timeout: 50 * time.Millisecond})
	if _, err := c.Verify(context.Background(), "ref-1"); !errors.Is(err, payment.ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}

func TestVerifyMapsStatus(t *testing.T) {
	tests := []struct {
		status string
		want   payment.VerificationStatus
	}{
		{"success", payment.VerificationSuccess},
		{"failed", payment.VerificationFailed},
		{"reversed", payment.VerificationFailed},
		{"abandoned", payment.VerificationAbandoned},
		{"ongoing", payment.VerificationPending},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/transaction/verify/ref-9" {
					t.Errorf("path = %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"id":4099260516,"status":"` + tt.status + `","reference":"ref-9","amount":11000,"currency":"KES","gateway_response":"Approved"}}`))
			}))
			defer srv.Close()

			v, err := New(Options{BaseURL: srv.URL, SecretKey: "sk"}).Verify(context.Background(), "ref-9")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if v.Status != tt.want || v.TransactionID != "4099260516" || v.Amount != 11000 {
				t.Fatalf("verification = %+v", v)
			}
		})
	}
}

func TestWebhookSignatureAndParse(t *testing.T) {
	c := New(Options{SecretKey: "sk_test"})
	payload := []byte(`{"event":"charge.success","data":{"id":302961,"reference":"ref-1","amount":11000,"gateway_response":"Approved"}}`)

	if !c.VerifySignature(payload, Sign("sk_test", payload)) {
		t.Fatal("valid signature rejected")
	}
	if c.VerifySignature(payload, Sign("other", payload)) {
		t.Fatal("signature under wrong secret accepted")
	}
	if c.VerifySignature(append(payload, ' '), Sign("sk_test", payload)) {
		t.Fatal("tampered body accepted")
	}
	if c.VerifySignature(payload, "not-hex") || c.VerifySignature(payload, "") {
		t.Fatal("garbage signature accepted")
	}

	evt, err := c.ParseWebhook(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if evt.Type != payment.WebhookChargeSuccess || evt.Reference != "ref-1" || evt.TransactionID != "302961" || evt.Amount != 11000 {
		t.Fatalf("event = %+v", evt)
	}

	if _, err := c.ParseWebhook([]byte(`{"data":{}}`)); !errors.Is(err, ErrMalformedWebhook) {
		t.Fatalf("err = %v, want ErrMalformedWebhook", err)
	}
}
