package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Candy2803/mpesa/internal/config"
)

const (
	timestampLayout = "20060102150405"

	transactionTypePayBill = "CustomerPayBillOnline"
)

// ErrUpstreamAuth is returned when the gateway rejects our credentials or
// the token endpoint is unreachable. Callers do not retry.
var ErrUpstreamAuth = errors.New("gateway authentication failed")

// Client talks to the mobile payment gateway: token acquisition and STK
// push initiation.
type Client struct {
	cfg    config.Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second},
		logger: logger,
	}
}

// Timestamp renders t in the gateway's fixed-width YYYYMMDDHHMMSS form.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ParseTimestamp is the inverse of Timestamp, in local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.Local)
}

// Password derives the per-request password:
// base64(shortcode + passkey + timestamp). The concatenation must match the
// gateway's derivation byte for byte; a mismatch surfaces as an
// authentication failure at the gateway, not here.
func (c *Client) Password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.Shortcode + c.cfg.Passkey + timestamp))
}

// AccessToken fetches a short-lived bearer token using basic auth.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthURL(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstreamAuth, res.StatusCode, bytes.TrimSpace(body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrUpstreamAuth, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUpstreamAuth)
	}

	return tok.AccessToken, nil
}

// BuildSTKPushRequest assembles the initiation payload for a normalized
// phone number. The configured shortcode is used as both originating and
// receiving party.
func (c *Client) BuildSTKPushRequest(phone, amount, description, password, timestamp string) STKPushRequest {
	return STKPushRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   transactionTypePayBill,
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  c.cfg.AccountNumber,
		TransactionDesc:   description,
	}
}

// STKPush sends the initiation request with the bearer token and returns
// the gateway's synchronous acknowledgment.
func (c *Client) STKPush(ctx context.Context, token string, payload STKPushRequest) (*STKPushResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.STKPushURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("stk push rejected: status %d: %s", res.StatusCode, bytes.TrimSpace(detail))
	}

	var ack STKPushResponse
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("decode stk push response: %w", err)
	}

	c.logger.Debug("stk push accepted",
		"merchant_request_id", ack.MerchantRequestID,
		"checkout_request_id", ack.CheckoutRequestID,
	)

	return &ack, nil
}
