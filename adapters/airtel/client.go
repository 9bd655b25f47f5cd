package airtel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/paygate/core"
)

const (
	TokenPath   = "/auth/oauth2/token"
	PaymentPath = "/merchant/v1/payments/"

	DefaultTimeout = 30 * time.Second
)

// Client talks to the Airtel Money open API
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

// NewClient returns a client for the API at baseURL authenticating with the given client credentials
func NewClient(baseURL, clientID, clientSecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient:   &http.Client{Timeout: timeout},
	}
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   seconds `json:"expires_in"`
}

// seconds accepts expires_in both as a JSON number and as a numeric string
type seconds float64

// maxSeconds is the largest lifetime that still fits in a time.Duration
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

func (s *seconds) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid expires_in %q: %w", raw, err)
	}
	if math.IsNaN(v) || v < 0 || v > maxSeconds {
		return fmt.Errorf("expires_in %q out of range", raw)
	}
	*s = seconds(v)
	return nil
}

// FetchToken requests a new access token using the client-credentials grant
func (c *Client) FetchToken(ctx context.Context) (core.Grant, error) {
	body, err := c.post(ctx, TokenPath, "", tokenRequest{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		GrantType:    "client_credentials",
	})
	if err != nil {
		return core.Grant{}, err
	}

	var res tokenResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return core.Grant{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if res.AccessToken == "" {
		return core.Grant{}, fmt.Errorf("token response has no access_token: %s", body)
	}

	return core.Grant{
		AccessToken: res.AccessToken,
		ExpiresIn:   time.Duration(float64(res.ExpiresIn) * float64(time.Second)),
	}, nil
}

// SubmitPayment posts payload to the payment endpoint and returns the response body verbatim
func (c *Client) SubmitPayment(ctx context.Context, token string, payload core.PaymentPayload) (json.RawMessage, error) {
	body, err := c.post(ctx, PaymentPath, token, payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) post(ctx context.Context, path, token string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.ProviderError{StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}
