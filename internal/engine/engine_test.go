package engine

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/julianstephens/shiftbell/internal/models"
)

func onlyWorkStart(at string) models.NotificationSettings {
	s := models.DefaultSettings()
	for _, t := range models.NotificationTypes {
		s.Types[t] = models.TypeSettings{Enabled: false, Time: s.Types[t].Time}
	}
	s.Types[models.NotificationWorkStart] = models.TypeSettings{Enabled: true, Time: at}
	return s
}

func TestComputeScenarioA(t *testing.T) {
	cal := models.Calendar{"2026-03-10": models.DayTypeWorkDay}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got := New(14).Compute(cal, onlyWorkStart("08:00"), now)
	want := []models.ScheduledNotification{{
		ID:         "shiftbell:work_start:2026-03-10",
		Type:       models.NotificationWorkStart,
		FiresAt:    time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		SourceDate: "2026-03-10",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compute() = %+v, want %+v", got, want)
	}
}

func TestComputeOnlyWorkDays(t *testing.T) {
	cal := models.Calendar{
		"2026-03-02": models.DayTypeWorkDay,
		"2026-03-03": models.DayTypeAnnualLeave,
		"2026-03-04": models.DayTypeExternalTraining,
		// 2026-03-05 is Unset
	}
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	got := New(14).Compute(cal, models.DefaultSettings(), now)
	if len(got) != 4 {
		t.Fatalf("Compute() returned %d entries, want 4", len(got))
	}
	for i, n := range got {
		if n.SourceDate != "2026-03-02" {
			t.Errorf("entry %d has source date %s", i, n.SourceDate)
		}
		if n.Type != models.NotificationTypes[i] {
			t.Errorf("entry %d type = %s, want %s", i, n.Type, models.NotificationTypes[i])
		}
	}
}

func TestComputeMasterOff(t *testing.T) {
	cal := models.Calendar{"2026-03-02": models.DayTypeWorkDay}
	s := models.DefaultSettings()
	s.MasterEnabled = false

	if got := New(14).Compute(cal, s, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)); len(got) != 0 {
		t.Errorf("Compute() with master off = %v", got)
	}
}

func TestComputeExcludesPastDue(t *testing.T) {
	cal := models.Calendar{"2026-03-02": models.DayTypeWorkDay}
	now := time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)

	got := New(14).Compute(cal, models.DefaultSettings(), now)
	var types []models.NotificationType
	for _, n := range got {
		types = append(types, n.Type)
	}
	want := []models.NotificationType{models.NotificationLunchEnd, models.NotificationWorkEnd}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("types = %v, want %v", types, want)
	}

	// an entry firing exactly now is not in the past
	exact := New(14).Compute(cal, onlyWorkStart("12:30"), now)
	if len(exact) != 1 {
		t.Errorf("entry at now excluded: %v", exact)
	}
}

func TestComputeHorizonBounds(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cal := models.Calendar{
		"2026-02-28": models.DayTypeWorkDay, // yesterday
		"2026-03-14": models.DayTypeWorkDay, // today+13, last day in horizon
		"2026-03-15": models.DayTypeWorkDay, // today+14, outside
	}

	e := New(14)
	got := e.Compute(cal, onlyWorkStart("09:00"), now)
	if len(got) != 1 || got[0].SourceDate != "2026-03-14" {
		t.Errorf("Compute() = %+v, want only 2026-03-14", got)
	}
	if e.HorizonEnd(now) != "2026-03-15" {
		t.Errorf("HorizonEnd() = %s", e.HorizonEnd(now))
	}
}

func TestComputeUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// DST starts 2026-03-08 in New York
	now := time.Date(2026, 3, 7, 20, 0, 0, 0, loc)
	cal := models.Calendar{"2026-03-08": models.DayTypeWorkDay, "2026-03-09": models.DayTypeWorkDay}

	got := New(3).Compute(cal, onlyWorkStart("09:00"), now)
	if len(got) != 2 {
		t.Fatalf("Compute() = %+v", got)
	}
	for _, n := range got {
		if h := n.FiresAt.In(loc).Hour(); h != 9 {
			t.Errorf("%s fires at local hour %d, want 9", n.ID, h)
		}
	}
}

func TestComputeSkipsUnparseableTime(t *testing.T) {
	cal := models.Calendar{"2026-03-02": models.DayTypeWorkDay}
	got := New(14).Compute(cal, onlyWorkStart("nine"), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if len(got) != 0 {
		t.Errorf("Compute() = %v", got)
	}
}

func TestNewDefaultsHorizon(t *testing.T) {
	if New(0).HorizonDays() != 14 {
		t.Errorf("New(0).HorizonDays() = %d", New(0).HorizonDays())
	}
}

// propertyInput is decoded from raw generator values so shrinking never indexes out of range.
type propertyInput struct {
	cal      models.Calendar
	settings models.NotificationSettings
	now      time.Time
	days     []models.DayType
}

const propertyHorizon = 10

var propertyStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func decode(days []int, master bool, enabled []bool, minutes []int, nowMinute int) propertyInput {
	in := propertyInput{
		cal:      models.Calendar{},
		settings: models.NotificationSettings{MasterEnabled: master, Types: map[models.NotificationType]models.TypeSettings{}},
		now:      propertyStart.Add(time.Duration(nowMinute) * time.Minute),
		days:     make([]models.DayType, propertyHorizon),
	}
	for i := 0; i < propertyHorizon; i++ {
		dt := models.DayTypeUnset
		if i < len(days) {
			dt = models.DayTypes[days[i]%len(models.DayTypes)]
		}
		in.days[i] = dt
		in.cal.Apply(models.DayRecord{Date: propertyStart.AddDate(0, 0, i).Format("2006-01-02"), Type: dt})
	}
	for i, t := range models.NotificationTypes {
		on := i < len(enabled) && enabled[i]
		m := 0
		if i < len(minutes) {
			m = minutes[i] % (24 * 60)
		}
		in.settings.Types[t] = models.TypeSettings{Enabled: on, Time: fmt.Sprintf("%02d:%02d", m/60, m%60)}
	}
	return in
}

func properties(t *testing.T) *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

func inputGens() []gopter.Gen {
	return []gopter.Gen{
		gen.SliceOfN(propertyHorizon, gen.IntRange(0, 3)),
		gen.Bool(),
		gen.SliceOfN(4, gen.Bool()),
		gen.SliceOfN(4, gen.IntRange(0, 24*60-1)),
		gen.IntRange(0, 2*24*60),
	}
}

func TestComputeProperties(t *testing.T) {
	e := New(propertyHorizon)
	props := properties(t)

	props.Property("compute is idempotent", prop.ForAll(
		func(days []int, master bool, enabled []bool, minutes []int, nowMinute int) bool {
			in := decode(days, master, enabled, minutes, nowMinute)
			return reflect.DeepEqual(e.Compute(in.cal, in.settings, in.now), e.Compute(in.cal.Clone(), in.settings.Clone(), in.now))
		},
		inputGens()...,
	))

	props.Property("no entry for a non-work day", prop.ForAll(
		func(days []int, master bool, enabled []bool, minutes []int, nowMinute int) bool {
			in := decode(days, master, enabled, minutes, nowMinute)
			for _, n := range e.Compute(in.cal, in.settings, in.now) {
				if in.cal.Get(n.SourceDate) != models.DayTypeWorkDay {
					return false
				}
			}
			return true
		},
		inputGens()...,
	))

	props.Property("master off yields nothing", prop.ForAll(
		func(days []int, enabled []bool, minutes []int, nowMinute int) bool {
			in := decode(days, false, enabled, minutes, nowMinute)
			return len(e.Compute(in.cal, in.settings, in.now)) == 0
		},
		gen.SliceOfN(propertyHorizon, gen.IntRange(0, 3)),
		gen.SliceOfN(4, gen.Bool()),
		gen.SliceOfN(4, gen.IntRange(0, 24*60-1)),
		gen.IntRange(0, 2*24*60),
	))

	props.Property("exactly one future entry per work day and enabled type", prop.ForAll(
		func(days []int, master bool, enabled []bool, minutes []int, nowMinute int) bool {
			in := decode(days, master, enabled, minutes, nowMinute)
			got := e.Compute(in.cal, in.settings, in.now)

			byID := make(map[string]models.ScheduledNotification, len(got))
			for _, n := range got {
				if _, dup := byID[n.ID]; dup {
					return false
				}
				byID[n.ID] = n
			}

			want := 0
			if master {
				for i, dt := range in.days {
					if dt != models.DayTypeWorkDay {
						continue
					}
					day := propertyStart.AddDate(0, 0, i)
					date := day.Format("2006-01-02")
					for _, nt := range models.NotificationTypes {
						ts := in.settings.For(nt)
						if !ts.Enabled {
							continue
						}
						tod, _ := time.Parse("15:04", ts.Time)
						firesAt := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, time.UTC)
						if firesAt.Before(in.now) {
							continue
						}
						want++
						n, ok := byID[models.NotificationID(nt, date)]
						if !ok || !n.FiresAt.Equal(firesAt) || n.Type != nt || n.SourceDate != date {
							return false
						}
					}
				}
			}
			return want == len(got)
		},
		inputGens()...,
	))

	props.TestingRun(t)
}
