package wheel

import (
	"fmt"
	"math"

	"github.com/Ashenafi-pixel/canister-games-gateway/gamemath"
	"github.com/Ashenafi-pixel/canister-games-gateway/games"
	"github.com/Ashenafi-pixel/canister-games-gateway/rng"
)

// Display colors for wheel segments.
const (
	NeutralColor   = "#374151"
	HighlightColor = "#FACC15"
)

// HighlightFrom is the multiplier at which a segment switches to HighlightColor.
const HighlightFrom = 3.0

// Palette is cycled by segment index.
var Palette = []string{"#3B82F6", "#10B981", "#F59E0B", "#8B5CF6", "#EC4899", "#14B8A6"}

// SpinResult is where the wheel stopped and what it pays.
type SpinResult struct {
	Position   int     `json:"position"`
	Multiplier float64 `json:"multiplier"`
}

// Segment is one slice of the rendered wheel.
type Segment struct {
	Multiplier float64 `json:"multiplier"`
	Color      string  `json:"color"`
}

// Generator produces local wheel outcomes from a random source and band tables.
type Generator struct {
	src    rng.Source
	tables gamemath.Tables
}

// NewGenerator returns a Generator. Nil arguments select crypto randomness and the default tables.
func NewGenerator(src rng.Source, tables gamemath.Tables) *Generator {
	if src == nil {
		src = rng.Crypto()
	}
	if tables == nil {
		tables = gamemath.DefaultTables()
	}
	return &Generator{src: src, tables: tables}
}

// Spin picks a uniform position and draws its multiplier from the risk's band at that position.
func (g *Generator) Spin(risk gamemath.Risk, segmentCount int) (SpinResult, error) {
	if segmentCount <= 0 {
		return SpinResult{}, fmt.Errorf("%w: segment count %d must be positive", games.ErrInvalidArgument, segmentCount)
	}
	table := g.tables.Lookup(risk)
	pos := g.src.IntN(segmentCount)
	m := table.Band(pos, segmentCount).Draw(g.src)
	return SpinResult{Position: pos, Multiplier: Round2(m)}, nil
}

// Segments builds the display table. Each index draws independently from its band,
// so the table shows the shape of possible outcomes, not any particular spin.
func (g *Generator) Segments(risk gamemath.Risk, segmentCount int) ([]Segment, error) {
	if segmentCount <= 0 {
		return nil, fmt.Errorf("%w: segment count %d must be positive", games.ErrInvalidArgument, segmentCount)
	}
	table := g.tables.Lookup(risk)
	out := make([]Segment, segmentCount)
	for i := range out {
		m := Round2(table.Band(i, segmentCount).Draw(g.src))
		out[i] = Segment{Multiplier: m, Color: ColorFor(i, m)}
	}
	return out, nil
}

// GenerateSpinResult spins with the default tables.
func GenerateSpinResult(src rng.Source, risk gamemath.Risk, segmentCount int) (SpinResult, error) {
	return NewGenerator(src, nil).Spin(risk, segmentCount)
}

// BuildSegmentTable builds segments with the default tables.
func BuildSegmentTable(src rng.Source, risk gamemath.Risk, segmentCount int) ([]Segment, error) {
	return NewGenerator(src, nil).Segments(risk, segmentCount)
}

// ColorFor returns the display color of segment i paying m.
func ColorFor(i int, m float64) string {
	switch {
	case m == 0:
		return NeutralColor
	case m >= HighlightFrom:
		return HighlightColor
	default:
		return Palette[i%len(Palette)]
	}
}

// Round2 rounds half up at two decimals on the scaled value.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
