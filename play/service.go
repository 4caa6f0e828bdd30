package play

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ashenafi-pixel/canister-games-gateway/canister"
	"github.com/Ashenafi-pixel/canister-games-gateway/gamemath"
	"github.com/Ashenafi-pixel/canister-games-gateway/games"
	"github.com/Ashenafi-pixel/canister-games-gateway/games/mines"
	"github.com/Ashenafi-pixel/canister-games-gateway/games/wheel"
	"github.com/Ashenafi-pixel/canister-games-gateway/ledger"
	"github.com/Ashenafi-pixel/canister-games-gateway/rng"
	"github.com/Ashenafi-pixel/canister-games-gateway/round"
	"github.com/Ashenafi-pixel/canister-games-gateway/store"
)

// Canister is the game authority, normally *canister.Client.
type Canister interface {
	StartMines(ctx context.Context, r canister.StartMinesRequest) (*canister.MinesGame, int, error)
	Reveal(ctx context.Context, gameID string, cell int) (*canister.RevealResponse, int, error)
	CashOut(ctx context.Context, gameID string) (*canister.CashOutResponse, int, error)
	WheelSegments(ctx context.Context, risk gamemath.Risk, count int) ([]wheel.Segment, int, error)
	SpinWheel(ctx context.Context, r canister.SpinRequest) (*wheel.SpinResult, int, error)
}

// Approver grants the gateway's spender principal an allowance, normally *ledger.Client.
type Approver interface {
	Configured() bool
	Allowance(ctx context.Context, owner, spender string) (*ledger.Response, error)
	Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) (*ledger.Response, error)
}

// Audit records locally computed answers, normally *store.Store.
type Audit interface {
	RecordFallback(ctx context.Context, ev *store.FallbackEvent) error
	ListFallbacks(ctx context.Context, limit int) ([]store.FallbackEvent, error)
}

type Deps struct {
	Canister Canister
	Ledger   Approver
	Source   rng.Source
	Tables   gamemath.Tables
	Boards   *round.BoardStore
	Results  *round.ResultsStore
	Registry *games.Registry
	Audit    Audit
	Log      *zap.Logger
	// Spender is the principal the ledger approval is granted to.
	Spender string
}

// Service runs wheel and mines actions against the canister and answers
// locally when it is unavailable.
type Service struct {
	d Deps

	genMu sync.Mutex
	gen   *wheel.Generator

	flightMu sync.Mutex
	inFlight map[string]struct{}
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Boards == nil {
		d.Boards = round.NewBoardStore("")
	}
	if d.Results == nil {
		d.Results = round.NewResultsStore("")
	}
	return &Service{
		d:        d,
		gen:      wheel.NewGenerator(d.Source, d.Tables),
		inFlight: make(map[string]struct{}),
	}
}

type SpinInput struct {
	Player    string          `json:"player"`
	BetAmount decimal.Decimal `json:"betAmount"`
	Risk      gamemath.Risk   `json:"risk"`
	Segments  int             `json:"segments"`
}

type SpinOutcome struct {
	RoundID    string          `json:"roundId"`
	Position   int             `json:"position"`
	Multiplier float64         `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Fallback   bool            `json:"fallback"`
	Settled    bool            `json:"settled"`
}

type StartInput struct {
	Player    string          `json:"player"`
	BetAmount decimal.Decimal `json:"betAmount"`
	MineCount int             `json:"mineCount"`
}

type RevealOutcome struct {
	Game       round.MinesGame `json:"game"`
	Multiplier float64         `json:"multiplier"`
}

type CashOutOutcome struct {
	Game   round.MinesGame `json:"game"`
	Payout decimal.Decimal `json:"payout"`
}

// gameOpen checks the registry; a nil registry allows everything.
func (s *Service) gameOpen(id string) (fallback bool, err error) {
	if s.d.Registry == nil {
		return true, nil
	}
	g, ok := s.d.Registry.Get(id)
	if !ok || !g.Enabled {
		return false, fmt.Errorf("%w: game %s is not enabled", ErrNotFound, id)
	}
	return g.Fallback, nil
}

// approve grants the spender an allowance of amount before a bet. It is skipped
// when no ledger is configured or the standing allowance already covers amount.
func (s *Service) approve(ctx context.Context, owner string, amount decimal.Decimal) error {
	if s.d.Ledger == nil || !s.d.Ledger.Configured() {
		return nil
	}
	cur, err := s.d.Ledger.Allowance(ctx, owner, s.d.Spender)
	switch {
	case err != nil:
		s.d.Log.Debug("allowance lookup failed", zap.String("owner", owner), zap.Error(err))
	case cur.OK() && cur.Allowance.GreaterThanOrEqual(amount):
		return nil
	}
	resp, err := s.d.Ledger.Approve(ctx, owner, s.d.Spender, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d: %s", ErrApprovalFailed, resp.StatusCode, resp.Message)
	}
	return nil
}

func (s *Service) audit(ctx context.Context, game, gameID string, cause error, payload any) {
	s.d.Log.Warn("canister unavailable, answering locally",
		zap.String("game", game),
		zap.String("game_id", gameID),
		zap.Error(cause))
	if s.d.Audit == nil {
		return
	}
	ev := &store.FallbackEvent{Game: game, GameID: gameID, Reason: cause.Error()}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			ev.Payload = b
		}
	}
	if err := s.d.Audit.RecordFallback(ctx, ev); err != nil {
		s.d.Log.Error("record fallback", zap.String("game", game), zap.Error(err))
	}
}

func (s *Service) record(r *round.Result) {
	r.RoundID = uuid.New().String()
	r.SettledAt = time.Now()
	if err := s.d.Results.Append(r); err != nil {
		s.d.Log.Error("append result", zap.String("game", r.Game), zap.String("round_id", r.RoundID), zap.Error(err))
	}
}

// Spin approves the bet and spins on the canister. When the canister is
// unreachable the spin is generated locally, flagged Fallback and not settled.
func (s *Service) Spin(ctx context.Context, in SpinInput) (*SpinOutcome, error) {
	if in.Segments <= 0 {
		return nil, fmt.Errorf("%w: segment count %d must be positive", games.ErrInvalidArgument, in.Segments)
	}
	if !in.BetAmount.IsPositive() {
		return nil, fmt.Errorf("%w: bet amount must be positive", games.ErrInvalidArgument)
	}
	risk := gamemath.ParseRisk(string(in.Risk))
	canFallback, err := s.gameOpen("wheel")
	if err != nil {
		return nil, err
	}
	if err := s.approve(ctx, in.Player, in.BetAmount); err != nil {
		return nil, err
	}

	res, status, err := s.d.Canister.SpinWheel(ctx, canister.SpinRequest{
		Player:    in.Player,
		BetAmount: in.BetAmount.InexactFloat64(),
		Risk:      risk,
		Segments:  in.Segments,
	})
	out := &SpinOutcome{}
	switch {
	case err == nil:
		out.Position, out.Multiplier = res.Position, res.Multiplier
		out.Payout = in.BetAmount.Mul(decimal.NewFromFloat(res.Multiplier)).Round(ledger.AmountDecimals)
		out.Settled = true
	case canFallback && canister.IsUnavailable(status, err):
		s.genMu.Lock()
		local, genErr := s.gen.Spin(risk, in.Segments)
		s.genMu.Unlock()
		if genErr != nil {
			return nil, genErr
		}
		out.Position, out.Multiplier = local.Position, local.Multiplier
		out.Payout = decimal.Zero
		out.Fallback = true
		s.audit(ctx, "wheel", "", err, local)
	default:
		return nil, remoteError("spin", status, err)
	}

	r := &round.Result{
		Game:       "wheel",
		Player:     in.Player,
		Risk:       string(risk),
		Position:   out.Position,
		Multiplier: out.Multiplier,
		BetAmount:  in.BetAmount.String(),
		Payout:     out.Payout.String(),
		Fallback:   out.Fallback,
		Settled:    out.Settled,
	}
	s.record(r)
	out.RoundID = r.RoundID
	return out, nil
}

// Segments returns the wheel display table, from the canister when it answers.
func (s *Service) Segments(ctx context.Context, risk gamemath.Risk, count int) (segs []wheel.Segment, fallback bool, err error) {
	if count <= 0 {
		return nil, false, fmt.Errorf("%w: segment count %d must be positive", games.ErrInvalidArgument, count)
	}
	risk = gamemath.ParseRisk(string(risk))
	canFallback, err := s.gameOpen("wheel")
	if err != nil {
		return nil, false, err
	}
	segs, status, cause := s.d.Canister.WheelSegments(ctx, risk, count)
	if cause == nil {
		return segs, false, nil
	}
	if !canFallback || !canister.IsUnavailable(status, cause) {
		return nil, false, remoteError("segments", status, cause)
	}
	s.genMu.Lock()
	segs, err = s.gen.Segments(risk, count)
	s.genMu.Unlock()
	if err != nil {
		return nil, false, err
	}
	s.audit(ctx, "wheel", "", cause, map[string]any{"risk": risk, "count": count})
	return segs, true, nil
}

// StartMines approves the bet and starts a game on the canister. There is no
// local start: without the canister there is no board to continue from.
func (s *Service) StartMines(ctx context.Context, in StartInput) (round.MinesGame, error) {
	if in.MineCount < 1 || in.MineCount > mines.MaxMines {
		return round.MinesGame{}, fmt.Errorf("%w: mine count %d outside [1,%d]", games.ErrInvalidArgument, in.MineCount, mines.MaxMines)
	}
	if !in.BetAmount.IsPositive() {
		return round.MinesGame{}, fmt.Errorf("%w: bet amount must be positive", games.ErrInvalidArgument)
	}
	if _, err := s.gameOpen("mines"); err != nil {
		return round.MinesGame{}, err
	}
	if err := s.approve(ctx, in.Player, in.BetAmount); err != nil {
		return round.MinesGame{}, err
	}
	started, status, err := s.d.Canister.StartMines(ctx, canister.StartMinesRequest{
		Player:    in.Player,
		BetAmount: in.BetAmount.InexactFloat64(),
		MineCount: in.MineCount,
	})
	if err != nil {
		return round.MinesGame{}, remoteError("start mines", status, err)
	}
	g := round.MinesGame{
		GameID:    started.GameID,
		Player:    in.Player,
		BetAmount: started.BetAmount,
		MineCount: started.MineCount,
		Board:     started.Board,
	}
	if g.MineCount == 0 {
		g.MineCount = in.MineCount
	}
	if g.BetAmount == 0 {
		g.BetAmount = in.BetAmount.InexactFloat64()
	}
	if err := s.d.Boards.Put(g); err != nil {
		s.d.Log.Error("store mines game", zap.String("game_id", g.GameID), zap.Error(err))
	}
	s.d.Log.Info("mines game started", zap.String("game_id", g.GameID), zap.Int("mines", g.MineCount))
	return s.latest(g), nil
}

// latest returns the stored copy of g, which carries UpdatedAt, or g itself if
// the store does not have it.
func (s *Service) latest(g round.MinesGame) round.MinesGame {
	if stored, ok := s.d.Boards.Get(g.GameID); ok {
		return stored
	}
	return g
}

// acquire marks gameID busy. The returned func releases it.
func (s *Service) acquire(gameID string) (func(), error) {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()
	if _, busy := s.inFlight[gameID]; busy {
		return nil, fmt.Errorf("%w: %s", ErrBusy, gameID)
	}
	s.inFlight[gameID] = struct{}{}
	return func() {
		s.flightMu.Lock()
		delete(s.inFlight, gameID)
		s.flightMu.Unlock()
	}, nil
}

// RevealMines reveals cell on the canister. When the canister is unreachable the
// stored board is advanced with mines.ApplyFallbackReveal and marked Fallback.
func (s *Service) RevealMines(ctx context.Context, gameID string, cell int) (*RevealOutcome, error) {
	release, err := s.acquire(gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	g, ok := s.d.Boards.Get(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: mines game %s", ErrNotFound, gameID)
	}
	if g.Board.Finished() {
		return nil, fmt.Errorf("%w: mines game %s is %s", games.ErrGameFinished, gameID, g.Board.Status)
	}
	if cell < 0 || cell >= mines.Cells {
		return nil, fmt.Errorf("%w: cell %d outside [0,%d]", games.ErrInvalidArgument, cell, mines.Cells-1)
	}
	canFallback, err := s.gameOpen("mines")
	if err != nil {
		return nil, err
	}

	out := &RevealOutcome{}
	resp, status, err := s.d.Canister.Reveal(ctx, gameID, cell)
	switch {
	case err == nil:
		g.Board = resp.Board
		g.Fallback = false
		out.Multiplier = resp.Multiplier
	case canFallback && canister.IsUnavailable(status, err):
		next, ferr := mines.ApplyFallbackReveal(g.Board, cell, g.MineCount, mines.FloorBet(g.BetAmount))
		if ferr != nil {
			return nil, ferr
		}
		g.Board = next
		g.Fallback = true
		if next.Status != mines.Lost {
			out.Multiplier = next.Multiplier(g.MineCount)
		}
		s.audit(ctx, "mines", gameID, err, map[string]any{"cell": cell, "board": next})
	default:
		return nil, remoteError("reveal", status, err)
	}

	if err := s.d.Boards.Put(g); err != nil {
		s.d.Log.Error("store mines game", zap.String("game_id", gameID), zap.Error(err))
	}
	s.record(&round.Result{
		Game:       "mines",
		GameID:     gameID,
		Player:     g.Player,
		Position:   cell,
		Multiplier: out.Multiplier,
		BetAmount:  decimal.NewFromFloat(g.BetAmount).String(),
		Payout:     decimal.Zero.String(),
		Fallback:   g.Fallback,
	})
	out.Game = s.latest(g)
	return out, nil
}

// CashOut settles a mines game on the canister. The canister decides even when
// the stored board was last advanced locally; nothing settles without it.
func (s *Service) CashOut(ctx context.Context, gameID string) (*CashOutOutcome, error) {
	release, err := s.acquire(gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	g, ok := s.d.Boards.Get(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: mines game %s", ErrNotFound, gameID)
	}
	resp, status, err := s.d.Canister.CashOut(ctx, gameID)
	if err != nil {
		return nil, remoteError("cash out", status, err)
	}
	g.Board = resp.Board
	g.Fallback = false
	g.UpdatedAt = time.Now()
	// settled games live on in the results ledger only
	if err := s.d.Boards.Delete(gameID); err != nil {
		s.d.Log.Error("evict mines game", zap.String("game_id", gameID), zap.Error(err))
	}
	s.record(&round.Result{
		Game:       "mines",
		GameID:     gameID,
		Player:     g.Player,
		Multiplier: g.Board.Multiplier(g.MineCount),
		BetAmount:  decimal.NewFromFloat(g.BetAmount).String(),
		Payout:     resp.Payout.String(),
		Settled:    true,
	})
	return &CashOutOutcome{Game: g, Payout: resp.Payout}, nil
}

// Game returns the last known state of a mines game.
func (s *Service) Game(gameID string) (round.MinesGame, error) {
	g, ok := s.d.Boards.Get(gameID)
	if !ok {
		return round.MinesGame{}, fmt.Errorf("%w: mines game %s", ErrNotFound, gameID)
	}
	return g, nil
}

// Results lists recorded rounds, newest first. limit <= 0 returns all.
func (s *Service) Results(limit int) ([]*round.Result, error) {
	return s.d.Results.List(limit)
}

// Result looks up one recorded round.
func (s *Service) Result(roundID string) (*round.Result, error) {
	r, err := s.d.Results.GetByRoundID(roundID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: round %s", ErrNotFound, roundID)
	}
	return r, nil
}

// Fallbacks lists recent locally computed answers. Without an audit store the list is empty.
func (s *Service) Fallbacks(ctx context.Context, limit int) ([]store.FallbackEvent, error) {
	if s.d.Audit == nil {
		return []store.FallbackEvent{}, nil
	}
	return s.d.Audit.ListFallbacks(ctx, limit)
}

// Games lists the registry, or nothing when no registry is wired.
func (s *Service) Games() []games.Game {
	if s.d.Registry == nil {
		return []games.Game{}
	}
	return s.d.Registry.List()
}
