package round

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Result records one spin or reveal for audit. Fallback results were computed
// locally and were never settled.
type Result struct {
	RoundID    string    `json:"roundId"`
	Game       string    `json:"game"`
	GameID     string    `json:"gameId,omitempty"`
	Player     string    `json:"player,omitempty"`
	Risk       string    `json:"risk,omitempty"`
	Position   int       `json:"position"`
	Multiplier float64   `json:"multiplier"`
	BetAmount  string    `json:"betAmount"`
	Payout     string    `json:"payout"`
	Fallback   bool      `json:"fallback"`
	Settled    bool      `json:"settled"`
	SettledAt  time.Time `json:"settledAt"`
}

// ErrCorrupt is returned when the results file cannot be parsed.
var ErrCorrupt = errors.New("round: results file is corrupt")

// ResultsStore appends results to data/round_results.json.
type ResultsStore struct {
	mu      sync.Mutex
	dataDir string
}

func NewResultsStore(dataDir string) *ResultsStore {
	if dataDir == "" {
		dataDir = "data"
	}
	return &ResultsStore{dataDir: dataDir}
}

func (rs *ResultsStore) path() string {
	return filepath.Join(rs.dataDir, "round_results.json")
}

func (rs *ResultsStore) readLocked() ([]*Result, error) {
	data, err := os.ReadFile(rs.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []*Result
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return list, nil
}

// Append adds a result to the JSON array on disk. A corrupt file is moved
// aside, never overwritten; the result is still written to a fresh file and
// the returned error wraps ErrCorrupt with the quarantined name.
func (rs *ResultsStore) Append(r *Result) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if err := os.MkdirAll(rs.dataDir, 0755); err != nil {
		return err
	}
	var moved error
	list, err := rs.readLocked()
	switch {
	case errors.Is(err, ErrCorrupt):
		dst, qerr := quarantine(rs.path())
		if qerr != nil {
			return fmt.Errorf("%w: %v", err, qerr)
		}
		moved = fmt.Errorf("%w: moved to %s", ErrCorrupt, dst)
		list = nil
	case err != nil:
		return err
	}
	list = append(list, r)
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(rs.path(), data); err != nil {
		return err
	}
	return moved
}

// GetByRoundID returns the latest result for roundID, or nil if there is none.
func (rs *ResultsStore) GetByRoundID(roundID string) (*Result, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	list, err := rs.readLocked()
	if err != nil {
		return nil, err
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].RoundID == roundID {
			return list[i], nil
		}
	}
	return nil, nil
}

// List returns up to limit results, newest first. limit <= 0 returns all.
func (rs *ResultsStore) List(limit int) ([]*Result, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	list, err := rs.readLocked()
	if err != nil {
		return nil, err
	}
	out := make([]*Result, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
