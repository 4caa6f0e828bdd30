package games

import (
	"context"
	"errors"
	"testing"

	"github.com/Ashenafi-pixel/canister-games-gateway/store"
)

type fakeCatalog struct {
	rows []store.CatalogGame
	err  error
}

func (f fakeCatalog) Catalog(context.Context) ([]store.CatalogGame, error) {
	return f.rows, f.err
}

func TestNewRegistry_Defaults(t *testing.T) {
	r, err := NewRegistry(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	list := r.List()
	if len(list) != 3 || list[0].ID != "mines" || list[1].ID != "roulette" || list[2].ID != "wheel" {
		t.Fatalf("defaults %+v", list)
	}
	if g, _ := r.Get("roulette"); g.Fallback {
		t.Error("roulette has no local fallback")
	}
	if !r.Enabled("wheel") || r.Enabled("plinko") {
		t.Error("Enabled mismatch")
	}
}

func TestNewRegistry_FromCatalog(t *testing.T) {
	cat := fakeCatalog{rows: []store.CatalogGame{
		{GameID: "wheel", Name: "Wheel", CanisterID: "w-cai", Enabled: true, Fallback: true},
		{GameID: "mines", Name: "Mines", Enabled: false},
		{GameID: ""},
	}}
	r, err := NewRegistry(context.Background(), cat)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.List()) != 2 {
		t.Fatalf("list %+v", r.List())
	}
	if r.Enabled("mines") {
		t.Error("disabled catalog row reported enabled")
	}
	if g, ok := r.Get("wheel"); !ok || g.CanisterID != "w-cai" {
		t.Errorf("wheel %+v", g)
	}
}

func TestNewRegistry_CatalogErrorKeepsDefaults(t *testing.T) {
	boom := errors.New("db down")
	r, err := NewRegistry(context.Background(), fakeCatalog{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("err %v", err)
	}
	if len(r.List()) != len(DefaultGames()) {
		t.Errorf("defaults not registered: %+v", r.List())
	}
}
