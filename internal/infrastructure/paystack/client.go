package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
)

const (
	DefaultBaseURL = "https://api.paystack.co"
	providerName   = "paystack"
	maxBodyBytes   = 1 << 20
)

type Options struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client implements payment.Provider and payment.WebhookVerifier against the
// Paystack REST API.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		secret:  opts.SecretKey,
		http:    hc,
	}
}

func (c *Client) Name() string { return providerName }

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeBody struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

func (c *Client) Initialize(ctx context.Context, req payment.InitRequest) (*payment.Authorization, error) {
	body, err := json.Marshal(initializeBody{
		Email:       req.Email,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("paystack: encode initialize: %w", err)
	}
	var data initializeData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}
	ref := data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &payment.Authorization{
		Reference:        ref,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

type verifyData struct {
	ID              json.Number `json:"id"`
	Status          string      `json:"status"`
	Reference       string      `json:"reference"`
	Amount          int64       `json:"amount"`
	Currency        string      `json:"currency"`
	GatewayResponse string      `json:"gateway_response"`
}

func (c *Client) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: empty reference", payment.ErrProvider)
	}
	var data verifyData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}
	ref := data.Reference
	if ref == "" {
		ref = reference
	}
	return &payment.Verification{
		Reference:       ref,
		TransactionID:   data.ID.String(),
		Status:          verificationStatus(data.Status),
		Amount:          data.Amount,
		Currency:        data.Currency,
		GatewayResponse: data.GatewayResponse,
	}, nil
}

// verificationStatus folds Paystack's transaction statuses into the four the
// settlement flow acts on. Anything still in flight counts as pending.
func verificationStatus(s string) payment.VerificationStatus {
	switch strings.ToLower(s) {
	case "success":
		return payment.VerificationSuccess
	case "failed", "reversed":
		return payment.VerificationFailed
	case "abandoned":
		return payment.VerificationAbandoned
	default:
		return payment.VerificationPending
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%w: %v", payment.ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", payment.ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", payment.ErrProvider, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: http %d: undecodable response", payment.ErrProvider, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = "http " + strconv.Itoa(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", payment.ErrProvider, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", payment.ErrProvider, err)
		}
	}
	return nil
}
