package ledger

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AmountDecimals is the token precision used on the wire.
const AmountDecimals = 8

// Client calls the token ledger's approval API. Requests are signed with HMAC-SHA256.
type Client struct {
	endpoint string
	secret   string
	http     *http.Client
}

type Response struct {
	Code       int             `json:"code"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Allowance  decimal.Decimal `json:"allowance"`
	Body       json.RawMessage `json:"-"`
	StatusCode int             `json:"-"`
}

// OK reports whether the ledger accepted the request.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK && r.Code == 0 && (r.Status == "" || r.Status == "ok")
}

func NewClient(endpoint, secret string) *Client {
	return &Client{
		endpoint: endpoint,
		secret:   secret,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an endpoint was set. Without one, approvals are skipped.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != ""
}

func (c *Client) call(ctx context.Context, params map[string]string) (*Response, error) {
	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	if c.secret != "" {
		values.Set("signature", c.sign(values))
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	defer resp.Body.Close()
	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ledger: decode %s: %w", params["action"], err)
	}
	out := &Response{Body: body, StatusCode: resp.StatusCode}
	_ = json.Unmarshal(body, out)
	return out, nil
}

// sign concatenates the values of every parameter except action, in key order.
func (c *Client) sign(v url.Values) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		if k == "action" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf := make([]byte, 0, 256)
	for _, k := range keys {
		buf = append(buf, v.Get(k)...)
	}
	m := hmac.New(sha256.New, []byte(c.secret))
	m.Write(buf)
	return hex.EncodeToString(m.Sum(nil))
}

// Approve lets spender draw up to amount from owner's balance.
func (c *Client) Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) (*Response, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("ledger: negative approval %s", FormatAmount(amount))
	}
	return c.call(ctx, map[string]string{
		"action":  "approve",
		"owner":   owner,
		"spender": spender,
		"amount":  FormatAmount(amount),
	})
}

func (c *Client) Allowance(ctx context.Context, owner, spender string) (*Response, error) {
	return c.call(ctx, map[string]string{
		"action":  "allowance",
		"owner":   owner,
		"spender": spender,
	})
}

func FormatAmount(v decimal.Decimal) string {
	return v.StringFixed(AmountDecimals)
}
