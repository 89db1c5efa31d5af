// Package paystack is the live payment gateway adapter. Amounts cross the
// wire in kobo; callers only ever see major units.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/gateway"
)

const (
	DefaultBaseURL  = "https://api.paystack.co"
	SignatureHeader = "x-paystack-signature"
	defaultTimeout  = 15 * time.Second
)

type Config struct {
	SecretKey string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
	HTTP      *http.Client
}

// Client talks to the Paystack transaction and refund APIs.
type Client struct {
	secretKey string
	baseURL   string
	currency  string
	http      *http.Client
}

var _ gateway.PaymentGateway = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("paystack secret key required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTP
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	cur := cfg.Currency
	if cur == "" {
		cur = "NGN"
	}
	return &Client{secretKey: cfg.SecretKey, baseURL: base, currency: strings.ToUpper(cur), http: hc}, nil
}

// envelope is the common Paystack response shape.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeReq struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	ID              int64                        `json:"id"`
	Status          string                       `json:"status"`
	Reference       string                       `json:"reference"`
	Amount          int64                        `json:"amount"`
	Currency        string                       `json:"currency"`
	PaidAt          *time.Time                   `json:"paid_at"`
	Channel         string                       `json:"channel"`
	GatewayResponse string                       `json:"gateway_response"`
	Authorization   gateway.WebhookAuthorization `json:"authorization"`
}

type refundReq struct {
	Transaction  string `json:"transaction"`
	Amount       int64  `json:"amount"`
	MerchantNote string `json:"merchant_note,omitempty"`
}

type refundData struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (c *Client) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	body := initializeReq{
		Email:       req.Email,
		Amount:      req.Amount.MinorUnits(),
		Currency:    req.Amount.Currency(),
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	var out initializeData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	if out.Reference == "" || out.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: initialize response missing reference", apperror.ErrGateway)
	}
	return &gateway.InitializeResult{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	var out verifyData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}
	amount, err := entity.MoneyFromMinor(out.Amount, c.currencyOr(out.Currency))
	if err != nil {
		return nil, fmt.Errorf("%w: verify amount: %v", apperror.ErrGateway, err)
	}
	res := &gateway.VerifyResult{
		Reference:     out.Reference,
		TransactionID: fmt.Sprint(out.ID),
		Status:        out.Status,
		Amount:        amount,
		PaidAt:        out.PaidAt,
		Message:       out.GatewayResponse,
	}
	if out.Status == gateway.StatusSuccess {
		res.Method = out.Authorization.Method(out.Channel)
	}
	return res, nil
}

func (c *Client) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	tx := req.TransactionID
	if tx == "" {
		tx = req.Reference
	}
	body := refundReq{Transaction: tx, Amount: req.Amount.MinorUnits(), MerchantNote: req.Reason}
	var out refundData
	if err := c.do(ctx, http.MethodPost, "/refund", body, &out); err != nil {
		return nil, err
	}
	amount, err := entity.MoneyFromMinor(out.Amount, c.currencyOr(out.Currency))
	if err != nil {
		return nil, fmt.Errorf("%w: refund amount: %v", apperror.ErrGateway, err)
	}
	return &gateway.RefundResult{RefundID: fmt.Sprint(out.ID), Status: out.Status, Amount: amount}, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA512 of the raw body.
func (c *Client) VerifyWebhookSignature(payload []byte, signature string) bool {
	return VerifySignature(c.secretKey, payload, signature)
}

// Sign returns the signature Paystack sends for payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(Sign(secret, payload))
	return hmac.Equal(got, want)
}

// do sends one API call. Transport errors, non-2xx answers, status:false and
// undecodable bodies all come back wrapped in apperror.ErrGateway.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperror.ErrGateway, method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", apperror.ErrGateway, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s returned %d with malformed body", apperror.ErrGateway, path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s: %s", apperror.ErrGateway, path, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode %s data: %v", apperror.ErrGateway, path, err)
		}
	}
	return nil
}

func (c *Client) currencyOr(cur string) string {
	if cur == "" {
		return c.currency
	}
	return cur
}
