package wheel

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
	"pgregory.net/rapid"

	"github.com/Ashenafi-pixel/canister-games-gateway/gamemath"
	"github.com/Ashenafi-pixel/canister-games-gateway/games"
	"github.com/Ashenafi-pixel/canister-games-gateway/rng"
)

var risks = []gamemath.Risk{gamemath.RiskLow, gamemath.RiskMedium, gamemath.RiskHigh}

func isTwoDecimals(x float64) bool {
	scaled := x * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

func TestGenerateSpinResult_LowPositionZero(t *testing.T) {
	src := &rng.Fixed{Ints: []int{0}, Floats: []float64{0.7}}
	res, err := GenerateSpinResult(src, gamemath.RiskLow, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Position != 0 || res.Multiplier != 0 {
		t.Errorf("got %+v want position 0 multiplier 0", res)
	}
}

func TestGenerateSpinResult_BandValues(t *testing.T) {
	cases := []struct {
		risk gamemath.Risk
		pos  int
		f    float64
		want float64
	}{
		{gamemath.RiskLow, 1, 0.5, 1.0},
		{gamemath.RiskLow, 9, 0.0, 1.5},
		{gamemath.RiskMedium, 1, 0.9, 0},
		{gamemath.RiskMedium, 5, 0.5, 1.25},
		{gamemath.RiskMedium, 8, 0.123, 2.12},
		{gamemath.RiskHigh, 4, 0.9, 0},
		{gamemath.RiskHigh, 6, 0.25, 1.5},
		{gamemath.RiskHigh, 9, 0.5, 6.5},
	}
	for _, c := range cases {
		src := &rng.Fixed{Ints: []int{c.pos}, Floats: []float64{c.f}}
		res, err := GenerateSpinResult(src, c.risk, 10)
		if err != nil {
			t.Fatal(err)
		}
		if res.Position != c.pos || res.Multiplier != c.want {
			t.Errorf("%s pos=%d f=%v: got %+v want multiplier %v", c.risk, c.pos, c.f, res, c.want)
		}
	}
}

func TestGenerateSpinResult_RoundsHalfUp(t *testing.T) {
	src := &rng.Fixed{Ints: []int{5}, Floats: []float64{0.335}}
	res, err := GenerateSpinResult(src, gamemath.RiskLow, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !isTwoDecimals(res.Multiplier) {
		t.Errorf("multiplier %v not rounded to 2 decimals", res.Multiplier)
	}
	if got := Round2(1.125); got != 1.13 {
		t.Errorf("Round2(1.125) = %v want 1.13", got)
	}
	if got := Round2(2.004); got != 2.0 {
		t.Errorf("Round2(2.004) = %v want 2", got)
	}
}

func TestGenerateSpinResult_UnknownRiskIsMedium(t *testing.T) {
	a := &rng.Fixed{Ints: []int{9}, Floats: []float64{0.5}}
	b := &rng.Fixed{Ints: []int{9}, Floats: []float64{0.5}}
	got, _ := GenerateSpinResult(a, gamemath.ParseRisk("wild"), 10)
	want, _ := GenerateSpinResult(b, gamemath.RiskMedium, 10)
	if got != want {
		t.Errorf("unknown risk: got %+v want %+v", got, want)
	}
	got, _ = GenerateSpinResult(&rng.Fixed{Ints: []int{9}, Floats: []float64{0.5}}, gamemath.Risk("wild"), 10)
	if got != want {
		t.Errorf("raw unknown risk: got %+v want %+v", got, want)
	}
}

func TestInvalidSegmentCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := GenerateSpinResult(rng.Crypto(), gamemath.RiskLow, n); !errors.Is(err, games.ErrInvalidArgument) {
			t.Errorf("spin n=%d: err=%v want ErrInvalidArgument", n, err)
		}
		if _, err := BuildSegmentTable(rng.Crypto(), gamemath.RiskLow, n); !errors.Is(err, games.ErrInvalidArgument) {
			t.Errorf("segments n=%d: err=%v want ErrInvalidArgument", n, err)
		}
	}
}

func TestBuildSegmentTable_HighFour(t *testing.T) {
	segs, err := BuildSegmentTable(rng.NewSeeded(3), gamemath.RiskHigh, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 4 {
		t.Fatalf("got %d segments want 4", len(segs))
	}
	if segs[0].Multiplier != 0 || segs[0].Color != NeutralColor {
		t.Errorf("segment 0 = %+v want zero multiplier with neutral color", segs[0])
	}
	if segs[3].Multiplier < 3 || segs[3].Color != HighlightColor {
		t.Errorf("segment 3 = %+v want highlight", segs[3])
	}
}

func TestColorFor(t *testing.T) {
	if c := ColorFor(0, 0); c != NeutralColor {
		t.Errorf("zero: %s", c)
	}
	if c := ColorFor(1, 3); c != HighlightColor {
		t.Errorf("3x: %s", c)
	}
	if c := ColorFor(len(Palette)+1, 1.2); c != Palette[1] {
		t.Errorf("palette should cycle, got %s", c)
	}
}

func TestSpinProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		risk := rapid.SampledFrom(risks).Draw(t, "risk")
		n := rapid.IntRange(1, 200).Draw(t, "segments")
		seed := rapid.Int64().Draw(t, "seed")
		res, err := GenerateSpinResult(rng.NewSeeded(seed), risk, n)
		if err != nil {
			t.Fatal(err)
		}
		if res.Position < 0 || res.Position >= n {
			t.Fatalf("position %d outside [0,%d)", res.Position, n)
		}
		if res.Multiplier < 0 {
			t.Fatalf("negative multiplier %v", res.Multiplier)
		}
		if !isTwoDecimals(res.Multiplier) {
			t.Fatalf("multiplier %v not rounded to 2 decimals", res.Multiplier)
		}
	})
}

func TestSegmentProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		risk := rapid.SampledFrom(risks).Draw(t, "risk")
		n := rapid.IntRange(1, 200).Draw(t, "segments")
		seed := rapid.Int64().Draw(t, "seed")
		segs, err := BuildSegmentTable(rng.NewSeeded(seed), risk, n)
		if err != nil {
			t.Fatal(err)
		}
		if len(segs) != n {
			t.Fatalf("got %d segments want %d", len(segs), n)
		}
		table := gamemath.DefaultTables()[risk]
		for i, s := range segs {
			if s.Multiplier < 0 {
				t.Fatalf("segment %d negative multiplier %v", i, s.Multiplier)
			}
			if zero := table.Band(i, n).Max == 0; zero != (s.Multiplier == 0) {
				t.Fatalf("segment %d: multiplier %v disagrees with band", i, s.Multiplier)
			}
			if s.Color == "" {
				t.Fatalf("segment %d has no color", i)
			}
		}
	})
}

func TestSpinDistribution(t *testing.T) {
	const spins = 50_000
	for _, risk := range risks {
		g := NewGenerator(rng.NewSeeded(42), nil)
		samples := make([]float64, spins)
		zeros := 0
		for i := range samples {
			res, err := g.Spin(risk, 100)
			if err != nil {
				t.Fatal(err)
			}
			samples[i] = res.Multiplier
			if res.Multiplier == 0 {
				zeros++
			}
		}
		table := gamemath.DefaultTables()[risk]
		mean := stat.Mean(samples, nil)
		if want := table.Expected(); math.Abs(mean-want) > 0.05*want+0.02 {
			t.Errorf("%s mean %.4f want ~%.4f", risk, mean, want)
		}
		if share, want := float64(zeros)/spins, table.ZeroShare(); math.Abs(share-want) > 0.02 {
			t.Errorf("%s zero share %.4f want ~%.2f", risk, share, want)
		}
	}
}

func TestGeneratorCustomTables(t *testing.T) {
	tables := gamemath.Tables{gamemath.RiskMedium: {{Until: 1, Min: 4, Max: 4}}}
	g := NewGenerator(rng.NewSeeded(1), tables)
	res, err := g.Spin(gamemath.RiskHigh, 8)
	if err != nil {
		t.Fatal(err)
	}
	if res.Multiplier != 4 {
		t.Errorf("custom tables ignored: %+v", res)
	}
}
