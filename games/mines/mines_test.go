package mines

import (
	"encoding/json"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/Ashenafi-pixel/canister-games-gateway/games"
)

func TestApplyFallbackReveal_MineOnSeedMatch(t *testing.T) {
	// seed 1007, 1007 mod 25 = 7
	got, err := ApplyFallbackReveal(Board{}, 7, 5, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != Lost {
		t.Fatalf("status %s want Lost", got.Status)
	}
	want := SetOf(7, 1, 4, 10, 13)
	if got.Mines != want {
		t.Errorf("mines %v want %v", got.Mines.Slice(), want.Slice())
	}
	if !got.Revealed.Has(7) || !got.Mines.Has(7) {
		t.Error("triggering cell must be both revealed and a mine")
	}
}

func TestApplyFallbackReveal_KeepsKnownMines(t *testing.T) {
	board := Board{Mines: SetOf(2, 3)}
	got, err := ApplyFallbackReveal(board, 7, 5, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mines != SetOf(2, 3, 7) {
		t.Errorf("mines %v want [2 3 7]", got.Mines.Slice())
	}
}

func TestApplyFallbackReveal_KnownMineLoses(t *testing.T) {
	board := Board{Mines: SetOf(4)}
	got, err := ApplyFallbackReveal(board, 4, 3, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != Lost {
		t.Errorf("status %s want Lost", got.Status)
	}
}

func TestApplyFallbackReveal_SafeReveal(t *testing.T) {
	board := Board{}
	got, err := ApplyFallbackReveal(board, 3, 5, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != InProgress || !got.Revealed.Has(3) || got.Revealed.Len() != 1 {
		t.Errorf("unexpected board %+v", got)
	}
	if board.Revealed != 0 {
		t.Error("input board was mutated")
	}
}

func TestApplyFallbackReveal_LastSafeCellWins(t *testing.T) {
	var revealed CellSet
	for i := 0; i < 23; i++ {
		revealed = revealed.With(i)
	}
	board := Board{Revealed: revealed}
	got, err := ApplyFallbackReveal(board, 23, 1, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != Won {
		t.Errorf("status %s want Won", got.Status)
	}
	if got.Revealed.Len() != 24 {
		t.Errorf("revealed %d want 24", got.Revealed.Len())
	}
}

func TestApplyFallbackReveal_ZeroMinesNeedsAllCells(t *testing.T) {
	board := Board{}
	var err error
	for cell := 0; cell < Cells; cell++ {
		if board.Status != InProgress {
			t.Fatalf("finished early at cell %d: %s", cell, board.Status)
		}
		board, err = ApplyFallbackReveal(board, cell, 0, 1)
		if err != nil {
			t.Fatal(err)
		}
	}
	if board.Status != Won {
		t.Errorf("status %s want Won", board.Status)
	}
}

func TestApplyFallbackReveal_InvalidArguments(t *testing.T) {
	cases := []struct {
		name  string
		board Board
		cell  int
		mines int
		bet   int64
	}{
		{"cell negative", Board{}, -1, 3, 1},
		{"cell too large", Board{}, 25, 3, 1},
		{"already revealed", Board{Revealed: SetOf(4)}, 4, 3, 1},
		{"mine count negative", Board{}, 1, -1, 1},
		{"mine count too large", Board{}, 1, 25, 1},
		{"negative bet", Board{}, 1, 3, -5},
		{"unknown status", Board{Status: Status(9)}, 1, 3, 1},
	}
	for _, c := range cases {
		if _, err := ApplyFallbackReveal(c.board, c.cell, c.mines, c.bet); !errors.Is(err, games.ErrInvalidArgument) {
			t.Errorf("%s: err=%v want ErrInvalidArgument", c.name, err)
		}
	}
}

func TestApplyFallbackReveal_TerminalStates(t *testing.T) {
	for _, st := range []Status{Won, Lost} {
		_, err := ApplyFallbackReveal(Board{Status: st}, 1, 3, 1)
		if !errors.Is(err, games.ErrGameFinished) {
			t.Errorf("%s: err=%v want ErrGameFinished", st, err)
		}
		if !errors.Is(err, games.ErrInvalidArgument) {
			t.Errorf("%s: ErrGameFinished should also be ErrInvalidArgument", st)
		}
	}
}

func TestApplyFallbackReveal_SecondRevealFails(t *testing.T) {
	first, err := ApplyFallbackReveal(Board{}, 9, 3, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ApplyFallbackReveal(first, 9, 3, 1001); !errors.Is(err, games.ErrInvalidArgument) {
		t.Errorf("second reveal err=%v want ErrInvalidArgument", err)
	}
}

func TestApplyFallbackReveal_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var revealed CellSet
		for _, c := range rapid.SliceOfNDistinct(rapid.IntRange(0, Cells-1), 0, 10, rapid.ID[int]).Draw(t, "revealed") {
			revealed = revealed.With(c)
		}
		board := Board{Revealed: revealed}
		cell := rapid.IntRange(0, Cells-1).Filter(func(c int) bool { return !revealed.Has(c) }).Draw(t, "cell")
		mineCount := rapid.IntRange(0, 14).Draw(t, "mineCount")
		bet := rapid.Int64Range(0, 1_000_000).Draw(t, "bet")

		a, errA := ApplyFallbackReveal(board, cell, mineCount, bet)
		b, errB := ApplyFallbackReveal(board, cell, mineCount, bet)
		if (errA == nil) != (errB == nil) || a != b {
			t.Fatalf("non-deterministic: %+v/%v vs %+v/%v", a, errA, b, errB)
		}
		if errA != nil {
			return
		}
		switch a.Status {
		case Lost:
			if !a.Revealed.Has(cell) || !a.Mines.Has(cell) {
				t.Fatal("lost board must contain trigger in both sets")
			}
			if a.Mines.Len() > mineCount && mineCount > 0 {
				t.Fatalf("placed %d mines for mineCount %d", a.Mines.Len(), mineCount)
			}
		default:
			if a.Revealed&a.Mines != 0 {
				t.Fatal("revealed and mines overlap on a live board")
			}
		}
	})
}

func TestCellSetJSON(t *testing.T) {
	b := Board{Revealed: SetOf(0, 3), Mines: SetOf(24), Status: Lost}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"revealedCells":[0,3],"minePositions":[24],"status":"Lost"}`
	if string(data) != want {
		t.Errorf("got %s want %s", data, want)
	}
	var back Board
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != b {
		t.Errorf("round trip got %+v", back)
	}
	if err := json.Unmarshal([]byte(`{"revealedCells":[30]}`), &back); err == nil {
		t.Error("out of range cell should fail")
	}
}

func TestMultiplier(t *testing.T) {
	b := Board{Revealed: SetOf(0)}
	// one safe reveal with 1 mine: 25/24
	if got := b.Multiplier(1); got != 1.04 {
		t.Errorf("got %v want 1.04", got)
	}
	if got := (Board{}).Multiplier(5); got != 1 {
		t.Errorf("no reveals: got %v want 1", got)
	}
	if got := b.Multiplier(30); got != 0 {
		t.Errorf("invalid mine count: got %v", got)
	}
}

func TestFloorBet(t *testing.T) {
	cases := map[float64]int64{12.9: 12, 0: 0, -4: 0, 1000: 1000}
	for in, want := range cases {
		if got := FloorBet(in); got != want {
			t.Errorf("FloorBet(%v) = %d want %d", in, got, want)
		}
	}
}
