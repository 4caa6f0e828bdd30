package round

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Ashenafi-pixel/canister-games-gateway/games/mines"
)

// MinesGame is the last known state of one mines game. Fallback is set when
// Board was advanced locally instead of by the game authority.
type MinesGame struct {
	GameID    string      `json:"gameId"`
	Player    string      `json:"player"`
	BetAmount float64     `json:"betAmount"`
	MineCount int         `json:"mineCount"`
	Board     mines.Board `json:"board"`
	Fallback  bool        `json:"fallback"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// BoardStore holds mines games and persists them to mines_games.json.
type BoardStore struct {
	mu      sync.Mutex
	games   map[string]*MinesGame
	dataDir string
}

func NewBoardStore(dataDir string) *BoardStore {
	if dataDir == "" {
		dataDir = "data"
	}
	s := &BoardStore{
		games:   make(map[string]*MinesGame),
		dataDir: dataDir,
	}
	s.load()
	return s
}

func (s *BoardStore) path() string {
	return filepath.Join(s.dataDir, "mines_games.json")
}

func (s *BoardStore) load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path())
	if err != nil {
		return
	}
	var list []*MinesGame
	if err := json.Unmarshal(data, &list); err != nil {
		// keep the bad file for inspection; the next save starts a fresh one
		_, _ = quarantine(s.path())
		return
	}
	for _, g := range list {
		if g != nil && g.GameID != "" {
			s.games[g.GameID] = g
		}
	}
}

// saveLocked writes the store to disk. Caller must hold s.mu.
func (s *BoardStore) saveLocked() error {
	list := make([]*MinesGame, 0, len(s.games))
	for _, g := range s.games {
		list = append(list, g)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	return writeFile(s.path(), data)
}

// Put stores a copy of g, stamping UpdatedAt.
func (s *BoardStore) Put(g MinesGame) error {
	g.UpdatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.GameID] = &g
	return s.saveLocked()
}

// Get returns a copy of the stored game so callers can mutate it freely.
func (s *BoardStore) Get(gameID string) (MinesGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return MinesGame{}, false
	}
	return *g, true
}

// Delete drops a game, typically once it has been settled.
func (s *BoardStore) Delete(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	return s.saveLocked()
}
