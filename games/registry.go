package games

import (
	"context"
	"sort"
	"sync"

	"github.com/Ashenafi-pixel/canister-games-gateway/store"
)

// Game is a canister-backed game the gateway fronts.
type Game struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CanisterID string `json:"canisterId,omitempty"`
	Enabled    bool   `json:"enabled"`
	// Fallback is set for games the gateway can answer locally when the canister is down.
	Fallback bool `json:"fallback"`
}

// Catalog is the source of catalog rows, normally *store.Store.
type Catalog interface {
	Catalog(ctx context.Context) ([]store.CatalogGame, error)
}

type Registry struct {
	mu    sync.RWMutex
	games map[string]*Game
}

// DefaultGames is registered when no catalog is available or it is empty.
func DefaultGames() []Game {
	return []Game{
		{ID: "mines", Name: "Mines", Enabled: true, Fallback: true},
		{ID: "wheel", Name: "Wheel", Enabled: true, Fallback: true},
		{ID: "roulette", Name: "Roulette", Enabled: true},
	}
}

// NewRegistry loads games from catalog. A nil catalog, a failing one or an empty
// one leaves the registry with DefaultGames; the load error is returned for logging.
func NewRegistry(ctx context.Context, catalog Catalog) (*Registry, error) {
	r := &Registry{games: make(map[string]*Game)}
	var err error
	if catalog != nil {
		var rows []store.CatalogGame
		rows, err = catalog.Catalog(ctx)
		if err == nil {
			for _, row := range rows {
				if row.GameID == "" {
					continue
				}
				r.Register(Game{ID: row.GameID, Name: row.Name, CanisterID: row.CanisterID, Enabled: row.Enabled, Fallback: row.Fallback})
			}
		}
	}
	if len(r.games) == 0 {
		for _, g := range DefaultGames() {
			r.Register(g)
		}
	}
	return r, err
}

func (r *Registry) Register(g Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = &g
}

func (r *Registry) Get(id string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return Game{}, false
	}
	return *g, true
}

// Enabled reports whether id is registered and switched on.
func (r *Registry) Enabled(id string) bool {
	g, ok := r.Get(id)
	return ok && g.Enabled
}

// List returns all games sorted by ID.
func (r *Registry) List() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
