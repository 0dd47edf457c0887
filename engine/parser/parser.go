// Package parser converts command sentences into resolved Commands.
// Intentionally dumb: no NLP, just an ordered keyword table and a handful of
// regular expressions per category.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nathoo/monovoice/engine/resolve"
	"github.com/nathoo/monovoice/types"
)

// category is one row of the trigger table.
type category struct {
	intent  types.Intent
	trigger string
	parse   func(text string, l *types.Ledger) types.Command
}

// grammar is evaluated top to bottom. The first category whose trigger occurs
// anywhere in the lower-cased input handles it exclusively, so a sentence that
// mentions both "move" and "pay" is always a MOVE.
var grammar = []category{
	{intent: types.IntentMove, trigger: "move", parse: parseMove},
	{intent: types.IntentPay, trigger: "pay", parse: parsePay},
	{intent: types.IntentCollect, trigger: "collect", parse: parseCollect},
	{intent: types.IntentBuy, trigger: "buy", parse: parseBuy},
}

var (
	// "Player Alice moves to position 10", "Alice moves to Boardwalk"
	moveSubjectFirst = regexp.MustCompile(`(?i)^(?:player\s+)?(.+?)\s+moves?\s+to\s+(.+)$`)
	// "Move player Bob to Park Place"
	moveVerbFirst = regexp.MustCompile(`(?i)^move\s+(?:player\s+)?(.+?)\s+to\s+(.+)$`)
	// Subject without a destination, for diagnostics only.
	moveSubjectOnly = regexp.MustCompile(`(?i)^(?:move\s+(?:player\s+)?\S|(?:player\s+)?\S.*?\s+moves?\b)`)
	// "Move to Boardwalk": a destination with no subject.
	moveNoSubject = regexp.MustCompile(`(?i)^move\s+(?:player\s+)?to\b`)

	positionTarget = regexp.MustCompile(`(?i)^(?:position\s+)?(-?\d+)$`)

	paySentence     = regexp.MustCompile(`(?i)^(?:player\s+)?(.+?)\s+pays?\b\s*(.*)$`)
	collectSentence = regexp.MustCompile(`(?i)^(?:player\s+)?(.+?)\s+collects?\b\s*(.*)$`)
	buySentence     = regexp.MustCompile(`(?i)^(?:player\s+)?(.+?)\s+buys?\b\s*(.*)$`)

	amountPrefix = regexp.MustCompile(`(?i)^\$?(\d[\d,]*)(?:\s+dollars?)?\b\s*(.*)$`)
	toClause     = regexp.MustCompile(`(?i)^to\s+(.+)$`)
	fromClause   = regexp.MustCompile(`(?i)^from\s+(.+)$`)

	playerPrefix  = regexp.MustCompile(`(?i)^player\s+`)
	articlePrefix = regexp.MustCompile(`(?i)^the\s+`)
)

// Parse classifies input and resolves its references against the ledger.
// It never fails: problems are reported as an UnknownCommand with a reason.
func Parse(input string, l *types.Ledger) types.Command {
	text := Normalize(input)
	if text == "" {
		return types.UnknownCommand{Reason: "No command given"}
	}

	lower := strings.ToLower(text)
	for _, c := range grammar {
		if strings.Contains(lower, c.trigger) {
			return c.parse(text, l)
		}
	}
	return types.UnknownCommand{Reason: "Command not recognized: " + text}
}

// Normalize trims the input, collapses whitespace and drops trailing
// sentence punctuation left behind by speech transcription.
func Normalize(input string) string {
	text := strings.Join(strings.Fields(input), " ")
	return strings.TrimRight(text, ".!?, ")
}

func parseMove(text string, l *types.Ledger) types.Command {
	m := moveSubjectFirst.FindStringSubmatch(text)
	if m == nil {
		m = moveVerbFirst.FindStringSubmatch(text)
	}
	if m == nil {
		if !moveNoSubject.MatchString(text) && moveSubjectOnly.MatchString(text) {
			return unknown("No destination specified in the command")
		}
		return unknown("No player specified in the command")
	}

	player, errCmd := resolvePlayer(m[1], l)
	if errCmd != nil {
		return errCmd
	}

	target := strings.TrimSpace(m[2])
	if pm := positionTarget.FindStringSubmatch(target); pm != nil {
		pos, err := strconv.Atoi(pm[1])
		if err != nil || pos < 0 || pos >= types.BoardSize {
			return unknown(fmt.Sprintf("Invalid position: %s. Must be 0-%d.", pm[1], types.BoardSize-1))
		}
		return types.MoveCommand{PlayerID: player.ID, Position: pos}
	}

	prop, errCmd := resolveProperty(target, l)
	if errCmd != nil {
		return errCmd
	}
	return types.MoveCommand{PlayerID: player.ID, Position: prop.Position}
}

func parsePay(text string, l *types.Ledger) types.Command {
	playerID, counterparty, amount, errCmd := parseTransfer(text, l, paySentence, toClause, "pay themselves")
	if errCmd != nil {
		return errCmd
	}
	return types.PayCommand{PlayerID: playerID, Counterparty: counterparty, Amount: amount}
}

func parseCollect(text string, l *types.Ledger) types.Command {
	playerID, counterparty, amount, errCmd := parseTransfer(text, l, collectSentence, fromClause, "collect from themselves")
	if errCmd != nil {
		return errCmd
	}
	return types.CollectCommand{PlayerID: playerID, Counterparty: counterparty, Amount: amount}
}

// parseTransfer handles the shared PAY/COLLECT shape:
// <subject> <verb> <amount> [<preposition> <counterparty>].
// An omitted counterparty means the bank.
func parseTransfer(text string, l *types.Ledger, sentence, clause *regexp.Regexp, selfVerb string) (string, string, int, types.Command) {
	m := sentence.FindStringSubmatch(text)
	if m == nil {
		return "", "", 0, unknown("No player specified in the command")
	}

	player, errCmd := resolvePlayer(m[1], l)
	if errCmd != nil {
		return "", "", 0, errCmd
	}

	am := amountPrefix.FindStringSubmatch(strings.TrimSpace(m[2]))
	if am == nil {
		return "", "", 0, unknown("No amount specified in the command")
	}
	digits := strings.ReplaceAll(am[1], ",", "")
	amount, err := strconv.Atoi(digits)
	if err != nil || amount > types.MaxAmount {
		return "", "", 0, unknown(fmt.Sprintf("Invalid amount: %s. Must be at most %d.", digits, types.MaxAmount))
	}
	if amount <= 0 {
		return "", "", 0, unknown(fmt.Sprintf("Invalid amount: %s. Must be greater than 0.", digits))
	}

	rest := strings.TrimSpace(am[2])
	if rest == "" {
		return player.ID, types.Bank, amount, nil
	}
	cm := clause.FindStringSubmatch(rest)
	if cm == nil {
		return "", "", 0, unknown(fmt.Sprintf("Unexpected text %q in the command", rest))
	}

	counterparty, errCmd := resolveCounterparty(cm[1], l)
	if errCmd != nil {
		return "", "", 0, errCmd
	}
	if counterparty == player.ID {
		return "", "", 0, unknown(fmt.Sprintf("Player %q cannot %s", player.Name, selfVerb))
	}
	return player.ID, counterparty, amount, nil
}

func parseBuy(text string, l *types.Ledger) types.Command {
	m := buySentence.FindStringSubmatch(text)
	if m == nil {
		return unknown("No player specified in the command")
	}

	player, errCmd := resolvePlayer(m[1], l)
	if errCmd != nil {
		return errCmd
	}

	name := strings.TrimSpace(m[2])
	if name == "" {
		return unknown("No property specified in the command")
	}
	prop, errCmd := resolveProperty(name, l)
	if errCmd != nil {
		return errCmd
	}
	return types.BuyCommand{PlayerID: player.ID, PropertyID: prop.ID}
}

// resolveCounterparty accepts "bank", "the bank", "player <ref>" or a bare
// player reference.
func resolveCounterparty(ref string, l *types.Ledger) (string, types.Command) {
	ref = articlePrefix.ReplaceAllString(strings.TrimSpace(ref), "")
	if strings.EqualFold(ref, types.Bank) {
		return types.Bank, nil
	}
	p, errCmd := resolvePlayer(ref, l)
	if errCmd != nil {
		return "", errCmd
	}
	return p.ID, nil
}

func resolvePlayer(ref string, l *types.Ledger) (*types.Player, types.Command) {
	ref = playerPrefix.ReplaceAllString(strings.TrimSpace(ref), "")
	if p, ok := resolve.Player(ref, l.Players); ok {
		return p, nil
	}
	return nil, unknown((&resolve.NotFoundError{Kind: "Player", Name: ref}).Error())
}

// resolveProperty tries the name as given, then without a leading "the".
func resolveProperty(name string, l *types.Ledger) (*types.Property, types.Command) {
	if p, ok := resolve.Property(name, l.Properties); ok {
		return p, nil
	}
	if bare := articlePrefix.ReplaceAllString(name, ""); bare != name {
		if p, ok := resolve.Property(bare, l.Properties); ok {
			return p, nil
		}
	}
	return nil, unknown((&resolve.NotFoundError{Kind: "Property", Name: name}).Error())
}

func unknown(reason string) types.Command {
	return types.UnknownCommand{Reason: reason}
}
