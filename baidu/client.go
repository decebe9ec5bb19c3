// Package baidu is a minimal client for the Baidu Fanyi general translation
// API (https://fanyi-api.baidu.com/doc/21).
//
// Each request is signed with md5(appid + q + salt + secret). The API answers
// HTTP 200 for both success and failure; failures carry error_code and
// error_msg in the body and are returned as *Error.
package baidu

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultEndpoint is the public general translation endpoint.
const DefaultEndpoint = "https://fanyi-api.baidu.com/api/trans/vip/translate"

// codeSuccess is sent by some API versions alongside a normal result.
const codeSuccess = "52000"

// Error is a failure reported by the API itself.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("baidu error %s: %s", e.Code, e.Message)
}

// Temporary reports whether retrying later may succeed (timeouts, QPS and
// system errors).
func (e *Error) Temporary() bool {
	switch e.Code {
	case "52001", "52002", "54003", "54005":
		return true
	}
	return false
}

// Client calls the translation endpoint. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	appID    string
	secret   string
	endpoint string
	http     *http.Client
	salt     func() string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = makeHTTPClient(d) }
}

// New returns a Client for the given credentials.
func New(appID, secret string, opts ...Option) *Client {
	c := &Client{
		appID:    appID,
		secret:   secret,
		endpoint: DefaultEndpoint,
		http:     makeHTTPClient(30 * time.Second),
		salt: func() string {
			return strconv.FormatUint(uint64(rand.Uint32()), 10)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func makeHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Sign computes the request signature.
func Sign(appID, q, salt, secret string) string {
	sum := md5.Sum([]byte(appID + q + salt + secret))
	return hex.EncodeToString(sum[:])
}

type transResult struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

type response struct {
	From        string        `json:"from"`
	To          string        `json:"to"`
	TransResult []transResult `json:"trans_result"`
	ErrorCode   errorCode     `json:"error_code"`
	ErrorMsg    string        `json:"error_msg"`
}

// errorCode accepts both "54001" and 54001.
type errorCode string

func (c *errorCode) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = ""
		return nil
	}
	*c = errorCode(strings.Trim(string(b), `"`))
	return nil
}

// Translate sends one request and returns every translated segment in
// order. from and to are API wire codes ("auto", "zh", "jp", ...).
func (c *Client) Translate(ctx context.Context, text, from, to string) ([]string, error) {
	salt := c.salt()
	form := url.Values{
		"q":     {text},
		"from":  {from},
		"to":    {to},
		"appid": {c.appID},
		"salt":  {salt},
		"sign":  {Sign(c.appID, text, salt, c.secret)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decoding response: %w (body: %s)", err, truncate(string(body), 200))
	}
	if r.ErrorCode != "" && r.ErrorCode != codeSuccess {
		return nil, &Error{Code: string(r.ErrorCode), Message: r.ErrorMsg}
	}

	out := make([]string, 0, len(r.TransResult))
	for _, tr := range r.TransResult {
		out = append(out, tr.Dst)
	}
	return out, nil
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
