package canister

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ashenafi-pixel/canister-games-gateway/gamemath"
	"github.com/Ashenafi-pixel/canister-games-gateway/games/mines"
	"github.com/Ashenafi-pixel/canister-games-gateway/games/wheel"
)

// Client calls the game canisters through their HTTP gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// MinesGame is the canister's view of a started mines game.
type MinesGame struct {
	GameID    string      `json:"gameId"`
	BetAmount float64     `json:"betAmount"`
	MineCount int         `json:"mineCount"`
	Board     mines.Board `json:"board"`
}

type StartMinesRequest struct {
	Player    string  `json:"player"`
	BetAmount float64 `json:"betAmount"`
	MineCount int     `json:"mineCount"`
}

type RevealResponse struct {
	Board      mines.Board `json:"board"`
	Multiplier float64     `json:"multiplier"`
}

type CashOutResponse struct {
	Board  mines.Board     `json:"board"`
	Payout decimal.Decimal `json:"payout"`
}

type SpinRequest struct {
	Player    string        `json:"player"`
	BetAmount float64       `json:"betAmount"`
	Risk      gamemath.Risk `json:"risk"`
	Segments  int           `json:"segments"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:4943"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends in as JSON (when non-nil) and decodes a 200 response into out.
// The returned status is 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("canister: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var data struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &data)
		if data.Error == "" {
			data.Error = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("canister: %s", data.Error)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("canister: decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// StartMines places a mines bet. The ledger approval must already be in place.
func (c *Client) StartMines(ctx context.Context, r StartMinesRequest) (*MinesGame, int, error) {
	var g MinesGame
	status, err := c.do(ctx, http.MethodPost, "/mines/start", r, &g)
	if err != nil {
		return nil, status, err
	}
	if g.GameID == "" {
		return nil, status, errors.New("canister: start response without gameId")
	}
	return &g, status, nil
}

func (c *Client) Reveal(ctx context.Context, gameID string, cell int) (*RevealResponse, int, error) {
	var out RevealResponse
	payload := map[string]int{"cell": cell}
	status, err := c.do(ctx, http.MethodPost, "/mines/"+url.PathEscape(gameID)+"/reveal", payload, &out)
	if err != nil {
		return nil, status, err
	}
	return &out, status, nil
}

func (c *Client) CashOut(ctx context.Context, gameID string) (*CashOutResponse, int, error) {
	var out CashOutResponse
	status, err := c.do(ctx, http.MethodPost, "/mines/"+url.PathEscape(gameID)+"/cashout", nil, &out)
	if err != nil {
		return nil, status, err
	}
	return &out, status, nil
}

// WheelSegments fetches the display table the canister will spin against.
func (c *Client) WheelSegments(ctx context.Context, risk gamemath.Risk, count int) ([]wheel.Segment, int, error) {
	q := url.Values{}
	q.Set("risk", string(risk))
	q.Set("count", strconv.Itoa(count))
	var data struct {
		Segments []wheel.Segment `json:"segments"`
	}
	status, err := c.do(ctx, http.MethodGet, "/wheel/segments?"+q.Encode(), nil, &data)
	if err != nil {
		return nil, status, err
	}
	if len(data.Segments) != count {
		return nil, status, fmt.Errorf("canister: got %d segments, asked for %d", len(data.Segments), count)
	}
	return data.Segments, status, nil
}

func (c *Client) SpinWheel(ctx context.Context, r SpinRequest) (*wheel.SpinResult, int, error) {
	var out wheel.SpinResult
	status, err := c.do(ctx, http.MethodPost, "/wheel/spin", r, &out)
	if err != nil {
		return nil, status, err
	}
	if out.Position < 0 || (r.Segments > 0 && out.Position >= r.Segments) {
		return nil, status, fmt.Errorf("canister: spin position %d outside wheel of %d", out.Position, r.Segments)
	}
	return &out, status, nil
}

// IsUnavailable reports whether a failed call means the canister could not answer,
// as opposed to answering with a rejection.
func IsUnavailable(status int, err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	switch {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	}
	return false
}
