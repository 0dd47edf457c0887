package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/monovoice/types"
)

// playerSummary renders one player for the status bar: "🚗 Alice $1500 @39".
func playerSummary(p types.Player) string {
	s := fmt.Sprintf("%s $%d @%d", p.Name, p.Money, p.Position)
	if p.TokenIcon != "" {
		s = p.TokenIcon + " " + s
	}
	return s
}

// renderStatusBar produces a full-width inverted status line showing every
// player's balance and position plus the transaction count. Players are
// reduced to a count when they do not fit.
func (m Model) renderStatusBar() string {
	var players []types.Player
	var txCount int
	m.session.View(func(l *types.Ledger) {
		players = append(players, l.Players...)
		txCount = len(l.Transactions)
	})

	right := fmt.Sprintf("Tx:%d ", txCount)

	left := " No players"
	if len(players) > 0 {
		names := make([]string, len(players))
		for i, p := range players {
			names[i] = playerSummary(p)
		}
		left = " " + strings.Join(names, " | ")
		if lipgloss.Width(left)+lipgloss.Width(right)+2 > m.width {
			left = fmt.Sprintf(" Players: %d", len(players))
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
