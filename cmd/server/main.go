package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Ashenafi-pixel/canister-games-gateway/canister"
	"github.com/Ashenafi-pixel/canister-games-gateway/config"
	"github.com/Ashenafi-pixel/canister-games-gateway/gamemath"
	"github.com/Ashenafi-pixel/canister-games-gateway/games"
	"github.com/Ashenafi-pixel/canister-games-gateway/ledger"
	"github.com/Ashenafi-pixel/canister-games-gateway/play"
	"github.com/Ashenafi-pixel/canister-games-gateway/rng"
	"github.com/Ashenafi-pixel/canister-games-gateway/round"
	"github.com/Ashenafi-pixel/canister-games-gateway/server"
	"github.com/Ashenafi-pixel/canister-games-gateway/store"
)

func main() {
	// Load .env from cwd, then the parent project's .env/.env.local
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../.env.local")
	cfg := config.Load()

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("gateway stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zc.Level = lvl
	}
	return zc.Build()
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	tables := gamemath.DefaultTables()
	if cfg.RiskTables != "" {
		t, err := gamemath.LoadTables(cfg.RiskTables)
		if err != nil {
			return err
		}
		tables = t
		log.Info("loaded risk tables", zap.String("path", cfg.RiskTables))
	}

	deps := play.Deps{
		Canister: canister.NewClient(cfg.CanisterURL, cfg.CanisterTimeout),
		Source:   rng.Crypto(),
		Tables:   tables,
		Boards:   round.NewBoardStore(cfg.DataDir),
		Results:  round.NewResultsStore(cfg.DataDir),
		Log:      log,
		Spender:  cfg.SpenderPrincipal,
	}
	if cfg.LedgerEndpoint != "" {
		deps.Ledger = ledger.NewClient(cfg.LedgerEndpoint, cfg.LedgerSecret)
	} else {
		log.Warn("LEDGER_ENDPOINT not set; bets are placed without approval")
	}

	var catalog games.Catalog
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.Audit = db
		catalog = db
		log.Info("database connected", zap.String("driver", string(db.Driver())))
		if err := seedCatalog(ctx, db); err != nil {
			log.Warn("seed game catalog", zap.Error(err))
		}
	}
	reg, err := games.NewRegistry(ctx, catalog)
	if err != nil {
		log.Warn("game catalog unavailable, using defaults", zap.Error(err))
	}
	deps.Registry = reg

	svc := play.NewService(deps)
	return server.New(cfg, svc, log).Run(ctx)
}

// seedCatalog writes the default games into an empty catalog so operators can edit rows in place.
func seedCatalog(ctx context.Context, db *store.Store) error {
	existing, err := db.Catalog(ctx)
	if err != nil || len(existing) > 0 {
		return err
	}
	for _, g := range games.DefaultGames() {
		if err := db.UpsertGame(ctx, store.CatalogGame{
			GameID:     g.ID,
			Name:       g.Name,
			CanisterID: g.CanisterID,
			Enabled:    g.Enabled,
			Fallback:   g.Fallback,
		}); err != nil {
			return err
		}
	}
	return nil
}
