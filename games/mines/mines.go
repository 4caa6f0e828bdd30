package mines

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/Ashenafi-pixel/canister-games-gateway/games"
)

// Cells is the number of tiles on the 5x5 board.
const Cells = 25

// MaxMines is the largest mine count a board accepts.
const MaxMines = Cells - 1

// CellSet is a set of cell indices 0..24 stored as a bitmask.
type CellSet uint32

func (s CellSet) Has(cell int) bool {
	return cell >= 0 && cell < Cells && s&(1<<uint(cell)) != 0
}

func (s CellSet) With(cell int) CellSet {
	if cell < 0 || cell >= Cells {
		return s
	}
	return s | 1<<uint(cell)
}

func (s CellSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

// Slice returns the members in ascending order.
func (s CellSet) Slice() []int {
	out := make([]int, 0, s.Len())
	for i := 0; i < Cells; i++ {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

func SetOf(cells ...int) CellSet {
	var s CellSet
	for _, c := range cells {
		s = s.With(c)
	}
	return s
}

func (s CellSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *CellSet) UnmarshalJSON(data []byte) error {
	var cells []int
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	var out CellSet
	for _, c := range cells {
		if c < 0 || c >= Cells {
			return fmt.Errorf("cell %d out of range", c)
		}
		out = out.With(c)
	}
	*s = out
	return nil
}

// Status is the lifecycle of a mines game.
type Status int

const (
	InProgress Status = iota
	Won
	Lost
)

var statusNames = map[Status]string{
	InProgress: "InProgress",
	Won:        "Won",
	Lost:       "Lost",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if strings.EqualFold(name, string(text)) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown mines status %q", text)
}

// Board is the client-side view of a mines game. It is a value; copies are independent.
type Board struct {
	Revealed CellSet `json:"revealedCells"`
	Mines    CellSet `json:"minePositions"`
	Status   Status  `json:"status"`
}

// Finished reports whether the board is in a terminal state.
func (b Board) Finished() bool {
	return b.Status == Won || b.Status == Lost
}

// SafeRevealed counts revealed cells that are not mines.
func (b Board) SafeRevealed() int {
	return (b.Revealed &^ b.Mines).Len()
}

// Multiplier is the fair-odds payout multiplier for the safe cells revealed so far,
// rounded to two decimals. It is a display hint; the authority computes real payouts.
func (b Board) Multiplier(mineCount int) float64 {
	if mineCount < 0 || mineCount > MaxMines {
		return 0
	}
	m := 1.0
	for k := 0; k < b.SafeRevealed(); k++ {
		safeLeft := Cells - mineCount - k
		if safeLeft <= 0 {
			break
		}
		m *= float64(Cells-k) / float64(safeLeft)
	}
	return math.Floor(m*100+0.5) / 100
}

// FloorBet truncates a bet amount to the integer domain used by ApplyFallbackReveal.
func FloorBet(amount float64) int64 {
	if amount <= 0 || math.IsNaN(amount) {
		return 0
	}
	if amount >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(amount))
}

// ApplyFallbackReveal decides a reveal locally when the game authority is unreachable.
//
// The outcome is a fixed function of (cell, bet): seed = cell + bet, and the cell is
// a mine when seed mod 25 == cell. A cell already known to hold a mine always loses.
// It is NOT fair and NOT unpredictable; boards it produces must be marked as
// fallback and must never settle value.
func ApplyFallbackReveal(board Board, cell, mineCount int, bet int64) (Board, error) {
	if board.Finished() {
		return board, fmt.Errorf("%w: status %s", games.ErrGameFinished, board.Status)
	}
	if board.Status != InProgress {
		return board, fmt.Errorf("%w: unknown status %d", games.ErrInvalidArgument, int(board.Status))
	}
	if cell < 0 || cell >= Cells {
		return board, fmt.Errorf("%w: cell %d outside [0,%d]", games.ErrInvalidArgument, cell, Cells-1)
	}
	if board.Revealed.Has(cell) {
		return board, fmt.Errorf("%w: cell %d already revealed", games.ErrInvalidArgument, cell)
	}
	if mineCount < 0 || mineCount > MaxMines {
		return board, fmt.Errorf("%w: mine count %d outside [0,%d]", games.ErrInvalidArgument, mineCount, MaxMines)
	}
	if bet < 0 || bet > math.MaxInt64-Cells {
		return board, fmt.Errorf("%w: bet %d", games.ErrInvalidArgument, bet)
	}

	next := board
	seed := int64(cell) + bet
	if seed%Cells == int64(cell) || board.Mines.Has(cell) {
		next.Status = Lost
		next.Revealed = next.Revealed.With(cell)
		if next.Mines == 0 {
			next.Mines = placeMines(seed, cell, mineCount)
		} else {
			next.Mines = next.Mines.With(cell)
		}
		return next, nil
	}

	next.Revealed = next.Revealed.With(cell)
	if next.Revealed.Len() >= Cells-mineCount {
		next.Status = Won
	}
	return next, nil
}

// placeMines puts a mine on cell and then on each i with (seed+i) mod 3 == 0
// until mineCount mines are placed.
func placeMines(seed int64, cell, mineCount int) CellSet {
	set := SetOf(cell)
	need := mineCount - 1
	for i := 0; i < Cells && need > 0; i++ {
		if i == cell {
			continue
		}
		if (seed+int64(i))%3 == 0 {
			set = set.With(i)
			need--
		}
	}
	return set
}
