package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// IntentKind classifies an inbound text message.
type IntentKind int

const (
	// IntentUnknown is anything that is neither a weight nor a command.
	IntentUnknown IntentKind = iota
	// IntentWeight is a parseable weight measurement.
	IntentWeight
	// IntentCommand is an exact match against the command vocabulary.
	IntentCommand
)

// Recognised commands.
const (
	CommandHelp   = "HELP"
	CommandLast   = "LAST"
	CommandStatus = "STATUS"
	CommandCancel = "CANCEL"
)

// Intent is the classified meaning of an inbound message. Weight is set only
// for IntentWeight, Command only for IntentCommand.
type Intent struct {
	Kind    IntentKind
	Weight  float64
	Command string
}

// Whole number with at most one digit after the decimal point.
var weightPattern = regexp.MustCompile(`^\d+(\.\d)?$`)

// ParseWeight validates and parses raw text as a weight. It accepts positive
// numbers with at most one fractional digit ("185", "185.5") and rejects
// everything else, including zero, negatives, unit suffixes and values like
// "185.55". Format ambiguity routes to the unknown path rather than guessing.
func ParseWeight(input string) (float64, bool) {
	trimmed := strings.TrimSpace(input)
	if !weightPattern.MatchString(trimmed) {
		return 0, false
	}
	w, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}

// ParseMessage classifies a raw message body into exactly one Intent.
// Command matching is case-insensitive and takes precedence over weight
// parsing. Pure function; no side effects.
func ParseMessage(body string) Intent {
	trimmed := strings.ToUpper(strings.TrimSpace(body))

	switch trimmed {
	case CommandHelp, CommandLast, CommandStatus, CommandCancel:
		return Intent{Kind: IntentCommand, Command: trimmed}
	}

	if w, ok := ParseWeight(body); ok {
		return Intent{Kind: IntentWeight, Weight: w}
	}

	return Intent{Kind: IntentUnknown}
}

// HelpMessage is the reply for the HELP command.
func HelpMessage() string {
	return "Send weight (185.5), LAST, STATUS, or CANCEL"
}

// UnknownMessage is the reply for unclassifiable input.
func UnknownMessage() string {
	return "Unknown. Send weight (185.5) or try HELP, LAST, STATUS"
}
