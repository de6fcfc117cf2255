package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"textweight/internal/domain"
)

// MessageService turns classified inbound messages into replies. Weight
// intents either commit immediately or land in the pending slot when the
// outlier policy defers them; commands read state and report it.
type MessageService struct {
	entries  domain.EntryRepository
	pending  *PendingSlot
	settings domain.SettingsRepository
	timeout  time.Duration
	now      func() time.Time
}

// NewMessageService creates a MessageService. The pending timeout matches
// the scheduler's promotion deadline.
func NewMessageService(entries domain.EntryRepository, pending *PendingSlot, settings domain.SettingsRepository) *MessageService {
	return &MessageService{
		entries:  entries,
		pending:  pending,
		settings: settings,
		timeout:  PendingTimeout,
		now:      time.Now,
	}
}

// HandleMessage classifies one message body and returns the plain-text
// reply. Store failures degrade to an error reply; nothing here is fatal.
func (s *MessageService) HandleMessage(ctx context.Context, body string) string {
	intent := domain.ParseMessage(body)

	switch intent.Kind {
	case domain.IntentWeight:
		reply, err := s.handleWeight(ctx, intent.Weight)
		if err != nil {
			log.Printf("message: weight %v: %v", intent.Weight, err)
			return "Error saving. Try again."
		}
		return reply
	case domain.IntentCommand:
		reply, err := s.handleCommand(ctx, intent.Command)
		if err != nil {
			log.Printf("message: command %s: %v", intent.Command, err)
			return "Error saving. Try again."
		}
		return reply
	default:
		return domain.UnknownMessage()
	}
}

func (s *MessageService) handleWeight(ctx context.Context, value float64) (string, error) {
	unit := configuredDisplayUnit(ctx, s.settings)
	weight := domain.FromDisplayUnit(value, unit)

	last, err := s.entries.GetLast(ctx)
	if err != nil {
		return "", err
	}
	var previous *float64
	if last != nil {
		previous = &last.Weight
	}

	if domain.IsOutlier(weight, previous) {
		if _, err := s.pending.Replace(ctx, weight, previous, s.now()); err != nil {
			return "", err
		}
		mins := int(s.timeout.Minutes())
		return fmt.Sprintf("%s seems unusual. Logging in %dm. CANCEL to stop.", formatNumber(value), mins), nil
	}

	date := currentDate(s.now(), configuredTimezone(ctx, s.settings))
	if _, err := s.entries.Upsert(ctx, date, weight); err != nil {
		return "", err
	}
	return "Logged: " + formatNumber(value), nil
}

func (s *MessageService) handleCommand(ctx context.Context, command string) (string, error) {
	switch command {
	case domain.CommandHelp:
		return domain.HelpMessage(), nil

	case domain.CommandLast:
		last, err := s.entries.GetLast(ctx)
		if err != nil {
			return "", err
		}
		if last == nil {
			return "No entries yet", nil
		}
		unit := configuredDisplayUnit(ctx, s.settings)
		return fmt.Sprintf("Last: %s on %s", domain.FormatWithUnit(last.Weight, unit), formatDate(last.Date)), nil

	case domain.CommandStatus:
		p, err := s.pending.Current(ctx)
		if err != nil {
			return "", err
		}
		if p == nil {
			return "Nothing pending", nil
		}
		unit := configuredDisplayUnit(ctx, s.settings)
		remaining := s.timeout - s.now().Sub(p.CreatedAt)
		mins := int(math.Ceil(remaining.Minutes()))
		return fmt.Sprintf("Pending: %s (logs in %dm)", domain.FormatWithUnit(p.Weight, unit), mins), nil

	case domain.CommandCancel:
		cancelled, err := s.pending.Cancel(ctx)
		if err != nil {
			return "", err
		}
		if !cancelled {
			return "Nothing pending to cancel", nil
		}
		return "Cancelled", nil
	}

	return domain.UnknownMessage(), nil
}

// formatNumber renders a weight the way the user typed it: no trailing
// zeros, at most one fractional digit.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDate renders a YYYY-MM-DD date for SMS display, e.g. "Dec 30".
func formatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}
