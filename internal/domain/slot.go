package domain

import "fmt"

// Fruit is a slot symbol together with the widget background class it renders with.
type Fruit struct {
	Fruit string `json:"fruit"`
	Color string `json:"color"`
}

// Fruits is the fixed catalogue behind both the search tool and the slot reels.
var Fruits = []Fruit{
	{Fruit: "mango", Color: "bg-[#FBF1E1] dark:bg-[#FBF1E1]/10"},
	{Fruit: "pineapple", Color: "bg-[#f8f0d9] dark:bg-[#f8f0d9]/10"},
	{Fruit: "cherries", Color: "bg-[#E2EDDC] dark:bg-[#E2EDDC]/10"},
	{Fruit: "coconut", Color: "bg-[#fbedd3] dark:bg-[#fbedd3]/10"},
	{Fruit: "apricot", Color: "bg-[#fee6ca] dark:bg-[#fee6ca]/10"},
	{Fruit: "blueberry", Color: "bg-[#e0e6e6] dark:bg-[#e0e6e6]/10"},
	{Fruit: "grapes", Color: "bg-[#f4ebe2] dark:bg-[#f4ebe2]/10"},
	{Fruit: "watermelon", Color: "bg-[#e6eddb] dark:bg-[#e6eddb]/10"},
	{Fruit: "orange", Color: "bg-[#fdebdf] dark:bg-[#fdebdf]/10"},
	{Fruit: "avocado", Color: "bg-[#ecefda] dark:bg-[#ecefda]/10"},
	{Fruit: "apple", Color: "bg-[#F9E7E4] dark:bg-[#F9E7E4]/10"},
	{Fruit: "pear", Color: "bg-[#f1f1cf] dark:bg-[#f1f1cf]/10"},
	{Fruit: "plum", Color: "bg-[#ece5ec] dark:bg-[#ece5ec]/10"},
	{Fruit: "banana", Color: "bg-[#fdf0dd] dark:bg-[#fdf0dd]/10"},
	{Fruit: "strawberry", Color: "bg-[#f7e6df] dark:bg-[#f7e6df]/10"},
	{Fruit: "lemon", Color: "bg-[#feeecd] dark:bg-[#feeecd]/10"},
}

// SlotSymbols returns the reel symbols in catalogue order.
func SlotSymbols() []string {
	out := make([]string, len(Fruits))
	for i, f := range Fruits {
		out[i] = f.Fruit
	}
	return out
}

// Reels is the outcome of one spin, left to right.
type Reels [3]string

// AllEqual reports a three-of-a-kind.
func (r Reels) AllEqual() bool {
	return r[0] == r[1] && r[1] == r[2]
}

// SpinOutcome is a single spin. Won is derived from the reels, never from the forcing draw.
type SpinOutcome struct {
	Reels Reels
	Won   bool
}

// NewSpinOutcome builds an outcome whose Won flag matches its reels.
func NewSpinOutcome(r Reels) SpinOutcome {
	return SpinOutcome{Reels: r, Won: r.AllEqual()}
}

// Message is the user-facing line for a spin.
func (o SpinOutcome) Message() string {
	if o.Won {
		return fmt.Sprintf("🎰 Jackpot! %s %s %s, you won!", o.Reels[0], o.Reels[0], o.Reels[0])
	}
	return fmt.Sprintf("🎰 %s | %s | %s, try again!", o.Reels[0], o.Reels[1], o.Reels[2])
}

// SessionKey identifies a spin session.
type SessionKey struct {
	Repo     string
	Username string
}

// SpinSession is the running tally for one user in one repository.
type SpinSession struct {
	LastSpinID       string
	LastReels        Reels
	LastWon          bool
	WinChancePercent string
	Wins             int
	Spins            int
}

// WinRate renders "wins/spins (pct%)".
func (s SpinSession) WinRate() string {
	if s.Spins == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d (%.0f%%)", s.Wins, s.Spins, float64(s.Wins)/float64(s.Spins)*100)
}
