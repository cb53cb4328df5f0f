package usecase

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/naka-gawa/issue-slots/internal/domain"
)

// Odds tuning. Each closed issue is worth ContributionPerIssue points and
// ContributionScale points buy a 100% bonus, capped at MaxContributionBonus.
const (
	BaseWinChance        = 0.05
	MaxContributionBonus = 0.25
	ContributionPerIssue = 100
	ContributionScale    = 5000
)

// WinChance converts a closed-issue count into a three-of-a-kind probability.
func WinChance(issuesClosed int) float64 {
	if issuesClosed < 0 {
		issuesClosed = 0
	}
	bonus := math.Min(float64(issuesClosed*ContributionPerIssue)/ContributionScale, MaxContributionBonus)
	return BaseWinChance + bonus
}

// FormatPercent renders a probability as e.g. "7.0%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// Rand is the randomness a SlotMachine draws from. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// globalRand uses the goroutine-safe top-level math/rand/v2 functions.
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// SlotMachine draws reels over a fixed symbol set.
type SlotMachine struct {
	symbols []string
	rng     Rand
}

// NewSlotMachine builds a machine; a nil rng uses math/rand/v2.
func NewSlotMachine(symbols []string, rng Rand) *SlotMachine {
	if len(symbols) == 0 {
		panic("usecase: slot machine needs at least one symbol")
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &SlotMachine{symbols: symbols, rng: rng}
}

// Symbols returns the reel symbols.
func (m *SlotMachine) Symbols() []string {
	return append([]string(nil), m.symbols...)
}

// Has reports whether s is one of the reel symbols.
func (m *SlotMachine) Has(s string) bool {
	for _, sym := range m.symbols {
		if sym == s {
			return true
		}
	}
	return false
}

// Spin draws reel 1, then decides a forced win with probability winChance.
// A forced spin copies reel 1; otherwise reels 2 and 3 are drawn independently
// and may still match by chance.
func (m *SlotMachine) Spin(winChance float64) SpinResult {
	reel1 := m.draw()
	forced := m.rng.Float64() < winChance
	reel2, reel3 := reel1, reel1
	if !forced {
		reel2 = m.draw()
		reel3 = m.draw()
	}
	return SpinResult{Outcome: newOutcome(reel1, reel2, reel3), Forced: forced}
}

func (m *SlotMachine) draw() string {
	return m.symbols[m.rng.IntN(len(m.symbols))]
}

// SpinResult pairs the outcome with the forcing draw that produced it.
type SpinResult struct {
	Outcome domain.SpinOutcome
	Forced  bool
}

func newOutcome(r1, r2, r3 string) domain.SpinOutcome {
	return domain.NewSpinOutcome(domain.Reels{r1, r2, r3})
}
