package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/models"
)

// CalendarStore persists the whole date -> classification mapping as one record.
// Every mutation is a read-modify-write of the full document under mu.
type CalendarStore struct {
	rs   RecordStore
	mu   sync.Mutex
	subs subscribers
}

func NewCalendarStore(rs RecordStore) *CalendarStore {
	return &CalendarStore{rs: rs}
}

// Get returns the last durably written calendar. A calendar never written is empty.
func (s *CalendarStore) Get(ctx context.Context) (models.Calendar, error) {
	var doc models.CalendarDocument
	if _, err := readDocument(ctx, s.rs, constants.CalendarRecordKey, &doc); err != nil {
		return nil, err
	}
	if doc.Days == nil {
		doc.Days = models.Calendar{}
	}
	return doc.Days, nil
}

// Day returns the classification of a single date.
func (s *CalendarStore) Day(ctx context.Context, date string) (models.DayType, error) {
	cal, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return cal.Get(date), nil
}

// Set overwrites one date's classification.
func (s *CalendarStore) Set(ctx context.Context, rec models.DayRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	return s.mutate(ctx, func(cal models.Calendar) error {
		cal.Apply(rec)
		return nil
	})
}

// SetAll replaces the whole mapping.
func (s *CalendarStore) SetAll(ctx context.Context, cal models.Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	next := cal.Clone()
	for date, t := range next {
		if t == models.DayTypeUnset {
			delete(next, date)
		}
	}

	s.mu.Lock()
	err := s.write(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.subs.notify(ctx)
	return nil
}

// Cycle advances date one step through the tap cycle and returns the new classification.
func (s *CalendarStore) Cycle(ctx context.Context, date string) (models.DayType, error) {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return "", fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	var next models.DayType
	err := s.mutate(ctx, func(cal models.Calendar) error {
		next = cal.Get(date).Next()
		cal.Apply(models.DayRecord{Date: date, Type: next})
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// Month returns every day of the month, Unset days included.
func (s *CalendarStore) Month(ctx context.Context, year int, month time.Month) ([]models.DayRecord, error) {
	cal, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return cal.Month(year, month), nil
}

// SetMonth replaces the records of one month with recs as a single write.
// Days of the month missing from recs become Unset.
func (s *CalendarStore) SetMonth(ctx context.Context, year int, month time.Month, recs []models.DayRecord) error {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	for _, rec := range recs {
		if err := validateRecord(rec); err != nil {
			return err
		}
		if len(rec.Date) < len(prefix) || rec.Date[:len(prefix)] != prefix {
			return fmt.Errorf("date %s is outside %04d-%02d", rec.Date, year, int(month))
		}
	}
	return s.mutate(ctx, func(cal models.Calendar) error {
		cal.ClearMonth(year, month)
		for _, rec := range recs {
			cal.Apply(rec)
		}
		return nil
	})
}

// ClearMonth sets every day of the month to Unset and returns how many were cleared.
func (s *CalendarStore) ClearMonth(ctx context.Context, year int, month time.Month) (int, error) {
	cleared := 0
	err := s.mutate(ctx, func(cal models.Calendar) error {
		cleared = cal.ClearMonth(year, month)
		return nil
	})
	return cleared, err
}

// FillMonth classifies every day of the month that falls on one of weekdays.
// Unless overwrite is set, days that already carry a classification are kept.
func (s *CalendarStore) FillMonth(ctx context.Context, year int, month time.Month, weekdays []time.Weekday, t models.DayType, overwrite bool) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("invalid day type: %s", t)
	}
	want := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		want[wd] = true
	}

	changed := 0
	err := s.mutate(ctx, func(cal models.Calendar) error {
		for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
			if !want[d.Weekday()] {
				continue
			}
			date := d.Format(constants.DateFormat)
			current := cal.Get(date)
			if current == t || (!overwrite && current != models.DayTypeUnset) {
				continue
			}
			cal.Apply(models.DayRecord{Date: date, Type: t})
			changed++
		}
		return nil
	})
	return changed, err
}

// Subscribe registers fn to run after every committed write.
func (s *CalendarStore) Subscribe(fn Listener) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *CalendarStore) mutate(ctx context.Context, fn func(models.Calendar) error) error {
	s.mu.Lock()
	cal, err := s.Get(ctx)
	if err == nil {
		err = fn(cal)
	}
	if err == nil {
		err = s.write(ctx, cal)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.subs.notify(ctx)
	return nil
}

func (s *CalendarStore) write(ctx context.Context, cal models.Calendar) error {
	doc := models.CalendarDocument{Version: constants.CalendarDocumentVersion, Days: cal}
	return writeDocument(ctx, s.rs, constants.CalendarRecordKey, doc)
}

func validateRecord(rec models.DayRecord) error {
	if _, err := time.Parse(constants.DateFormat, rec.Date); err != nil {
		return fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	if !rec.Type.Valid() {
		return fmt.Errorf("invalid day type: %s", rec.Type)
	}
	return nil
}
