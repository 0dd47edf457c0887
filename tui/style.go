package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleResult = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleMoney = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleAmount = lipgloss.NewStyle().
			Bold(true)

	styleMove = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindResult lineKind = iota
	kindMoney
	kindMove
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case isErrorLine(line):
		return kindError
	case strings.Contains(line, " moved to position "):
		return kindMove
	case strings.Contains(line, " paid $"),
		strings.Contains(line, " collected $"),
		strings.Contains(line, " bought "):
		return kindMoney
	default:
		return kindResult
	}
}

var errorPrefixes = []string{
	"Command not recognized",
	"No command given",
	"Invalid ",
	"Insufficient funds",
	"Unexpected text",
	"Error processing command",
}

// isErrorLine reports whether a result line describes a rejected command.
func isErrorLine(line string) bool {
	for _, p := range errorPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return strings.HasSuffix(line, " not found") ||
		strings.Contains(line, " is already owned by ") ||
		strings.Contains(line, " cannot ")
}

// styledMoney renders a money line with the dollar amount in bold.
func styledMoney(line string) string {
	i := strings.IndexByte(line, '$')
	if i < 0 {
		return styleMoney.Render(line)
	}
	j := i + 1
	for j < len(line) && line[j] >= '0' && line[j] <= '9' {
		j++
	}
	return styleMoney.Render(line[:i]) + styleMoney.Inherit(styleAmount).Render(line[i:j]) + styleMoney.Render(line[j:])
}

// styledPlayerInput renders the echoed player input in green with "> " prefix.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render("> " + input)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
