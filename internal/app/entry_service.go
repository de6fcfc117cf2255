package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"textweight/internal/domain"
)

var (
	// ErrInvalidDate indicates a date outside YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")
	// ErrInvalidWeight indicates a non-positive weight.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrEntryNotFound indicates the entry id does not exist.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrNoValidEntries indicates a bulk import with no usable rows.
	ErrNoValidEntries = errors.New("no valid entries")
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
var mdyDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// EntryService encapsulates the dashboard's entry use cases. The SMS path
// never goes through here; these are the explicit edits and exports the
// core state machine treats as external.
type EntryService struct {
	repo     domain.EntryRepository
	pending  *PendingSlot
	settings domain.SettingsRepository
}

// NewEntryService creates an EntryService.
func NewEntryService(repo domain.EntryRepository, pending *PendingSlot, settings domain.SettingsRepository) *EntryService {
	return &EntryService{repo: repo, pending: pending, settings: settings}
}

// List returns all entries, newest first.
func (s *EntryService) List(ctx context.Context) ([]domain.Entry, error) {
	return s.repo.List(ctx)
}

// Backfill validates and upserts an entry for an explicit date.
func (s *EntryService) Backfill(ctx context.Context, date string, weight float64) (*domain.Entry, error) {
	if !isoDate.MatchString(date) {
		return nil, ErrInvalidDate
	}
	if weight <= 0 {
		return nil, ErrInvalidWeight
	}
	return s.repo.Upsert(ctx, date, weight)
}

// Update overwrites the weight of an existing entry.
func (s *EntryService) Update(ctx context.Context, id int64, weight float64) (*domain.Entry, error) {
	if weight <= 0 {
		return nil, ErrInvalidWeight
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrEntryNotFound
	}
	return s.repo.Update(ctx, id, weight)
}

// Delete removes an entry by id. This is the only way a committed entry is
// ever deleted.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrEntryNotFound
	}
	return s.repo.Delete(ctx, id)
}

// ImportRow is one raw row from a bulk import payload.
type ImportRow struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// Import normalizes and bulk-upserts rows, collecting per-row errors. It
// fails only when no row is usable.
func (s *EntryService) Import(ctx context.Context, rows []ImportRow) (int, []string, error) {
	var valid []domain.ImportEntry
	var rowErrs []string

	for i, row := range rows {
		date := normalizeDate(row.Date)
		if date == "" {
			rowErrs = append(rowErrs, fmt.Sprintf("Row %d: Invalid date", i+1))
			continue
		}
		if row.Weight <= 0 {
			rowErrs = append(rowErrs, fmt.Sprintf("Row %d: Invalid weight", i+1))
			continue
		}
		valid = append(valid, domain.ImportEntry{Date: date, Weight: row.Weight})
	}

	if len(valid) == 0 {
		return 0, rowErrs, ErrNoValidEntries
	}

	count, err := s.repo.BulkImport(ctx, valid)
	if err != nil {
		return 0, rowErrs, err
	}
	return count, rowErrs, nil
}

// ExportCSV renders all entries as date,weight rows in date order.
func (s *EntryService) ExportCSV(ctx context.Context) (string, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	var b strings.Builder
	b.WriteString("date,weight\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s,%s\n", e.Date, formatNumber(e.Weight))
	}
	return b.String(), nil
}

// ExportAppleHealth renders all entries as Apple Health body-mass records.
// Apple Health uses kilograms internally; storage is lbs.
func (s *EntryService) ExportAppleHealth(ctx context.Context) (string, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<!DOCTYPE HealthData>\n")
	b.WriteString("<HealthData locale=\"en_US\">\n")
	fmt.Fprintf(&b, "  <ExportDate value=%q/>\n", time.Now().UTC().Format(time.RFC3339))

	for _, e := range entries {
		kg := domain.LbsToKg(e.Weight)
		dateTime := e.Date + "T08:00:00-06:00"
		fmt.Fprintf(&b,
			"  <Record type=\"HKQuantityTypeIdentifierBodyMass\" sourceName=\"TextWeight\" unit=\"kg\" creationDate=%q startDate=%q endDate=%q value=\"%.2f\"/>\n",
			dateTime, dateTime, dateTime, kg)
	}

	b.WriteString("</HealthData>")
	return b.String(), nil
}

// Pending returns the current pending entry for dashboard status display.
func (s *EntryService) Pending(ctx context.Context) (*domain.PendingEntry, error) {
	return s.pending.Current(ctx)
}

// normalizeDate accepts YYYY-MM-DD or MM/DD/YYYY and returns YYYY-MM-DD, or
// "" when neither matches.
func normalizeDate(date string) string {
	if isoDate.MatchString(date) {
		return date
	}
	if m := mdyDate.FindStringSubmatch(date); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	}
	return ""
}
