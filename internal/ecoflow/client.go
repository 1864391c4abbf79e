package ecoflow

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/ecoflow-watch/internal/config"
)

const (
	defaultTimeout = 20 * time.Second
	quotaAllPath   = "/iot-open/sign/device/quota/all"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient signs and sends open API requests using net/http.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	secretKey  string
	serial     string

	now   func() time.Time
	nonce func() string
}

// NewHTTPClient constructs an HTTPClient from the provided EcoFlowConfig.
// It returns an error if the base URL or any credential is empty. When
// cfg.Timeout is zero or negative, a default timeout of 20 seconds is used.
func NewHTTPClient(cfg config.EcoFlowConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ecoflow: base URL is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("ecoflow: access key and secret key are required")
	}
	if cfg.SerialNumber == "" {
		return nil, fmt.Errorf("ecoflow: device serial number is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accessKey:  cfg.AccessKey,
		secretKey:  cfg.SecretKey,
		serial:     cfg.SerialNumber,
		now:        time.Now,
		nonce:      randomNonce,
	}, nil
}

// randomNonce returns a six digit decimal nonce.
func randomNonce() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// sign returns the hex HMAC-SHA256 of the canonical parameter string.
func sign(secret, serial, accessKey, nonce, timestamp string) string {
	payload := "sn=" + serial + "&accessKey=" + accessKey + "&nonce=" + nonce + "&timestamp=" + timestamp
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// QuotaAll fetches every quota value of the configured device.
//
// QuotaAll returns an error if:
//   - the HTTP request cannot be created or sent
//   - the server responds with a non-2xx status code
//   - the response body cannot be decoded as JSON
//   - the response code is not "0" (as *APIError)
func (c *HTTPClient) QuotaAll(ctx context.Context) (Quota, error) {
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	nonce := c.nonce()

	endpoint := c.baseURL + quotaAllPath + "?" + url.Values{"sn": {c.serial}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ecoflow: create request: %w", err)
	}
	req.Header.Set("accessKey", c.accessKey)
	req.Header.Set("nonce", nonce)
	req.Header.Set("timestamp", timestamp)
	req.Header.Set("sign", sign(c.secretKey, c.serial, c.accessKey, nonce, timestamp))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ecoflow: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ecoflow: unexpected HTTP status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var body apiResponse
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("ecoflow: decode response: %w", err)
	}

	if code := codeString(body.Code); code != "0" {
		return nil, &APIError{Code: code, Message: body.Message}
	}
	if body.Data == nil {
		return Quota{}, nil
	}
	return body.Data, nil
}

// codeString renders the envelope code the same way for "0" and 0.
func codeString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "null"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
