package models

import "testing"

func TestDayTypeNext(t *testing.T) {
	tests := []struct {
		from DayType
		want DayType
	}{
		{DayTypeUnset, DayTypeWorkDay},
		{DayTypeWorkDay, DayTypeAnnualLeave},
		{DayTypeAnnualLeave, DayTypeExternalTraining},
		{DayTypeExternalTraining, DayTypeUnset},
		{DayType("holiday"), DayTypeWorkDay},
		{DayType(""), DayTypeWorkDay},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			if got := tt.from.Next(); got != tt.want {
				t.Errorf("%q.Next() = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}

func TestDayTypeFullCycle(t *testing.T) {
	d := DayTypeUnset
	for i := 0; i < len(DayTypes); i++ {
		if d != DayTypes[i] {
			t.Fatalf("step %d: got %q, want %q", i, d, DayTypes[i])
		}
		d = d.Next()
	}
	if d != DayTypeUnset {
		t.Errorf("cycle ended at %q, want %q", d, DayTypeUnset)
	}
}

func TestDayTypeGeneratesNotifications(t *testing.T) {
	for _, d := range DayTypes {
		if got, want := d.GeneratesNotifications(), d == DayTypeWorkDay; got != want {
			t.Errorf("%q.GeneratesNotifications() = %v, want %v", d, got, want)
		}
	}
	if DayType("holiday").GeneratesNotifications() {
		t.Error("unknown day type should not generate notifications")
	}
}

func TestParseDayType(t *testing.T) {
	tests := []struct {
		in      string
		want    DayType
		wantErr bool
	}{
		{in: "work", want: DayTypeWorkDay},
		{in: " Work_Day ", want: DayTypeWorkDay},
		{in: "leave", want: DayTypeAnnualLeave},
		{in: "et", want: DayTypeExternalTraining},
		{in: "none", want: DayTypeUnset},
		{in: "", want: DayTypeUnset},
		{in: "holiday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDayType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDayType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDayType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
