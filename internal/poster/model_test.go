package poster

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseGender(t *testing.T) {
	tests := []struct {
		in      string
		want    Gender
		wantErr bool
	}{
		{"Boy", Boy, false},
		{"girl", Girl, false},
		{" GIRL ", Girl, false},
		{"No Character", Boy, true},
		{"", Boy, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGender(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGender(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseGender(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if err != nil && !errors.Is(err, ErrInvalidValue) {
				t.Errorf("error %v is not ErrInvalidValue", err)
			}
		})
	}
}

func TestParseAgeRange(t *testing.T) {
	for _, in := range []string{"Teen (13+)", "teen"} {
		got, err := ParseAgeRange(in)
		if err != nil || got != Teen {
			t.Errorf("ParseAgeRange(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAgeRange("Adult"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestConfig_JSON(t *testing.T) {
	c := Config{
		StudentName: "سارة",
		Schedules:   []ScheduleEntry{{Day: Weekdays[0], Time: "18:00"}},
		ClassLink:   "https://class.example/room1",
		Gender:      Girl,
		AgeRange:    Teen,
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["gender"] != "Girl" || m["age_range"] != "Teen (13+)" {
		t.Errorf("enums not encoded as labels: %s", data)
	}
}

func TestResolveDay(t *testing.T) {
	if d, err := ResolveDay("2"); err != nil || d != "الثلاثاء" {
		t.Errorf("ResolveDay(2) = %q, %v", d, err)
	}
	if d, err := ResolveDay("الأحد"); err != nil || d != "الأحد" {
		t.Errorf("ResolveDay(label) = %q, %v", d, err)
	}
	for _, bad := range []string{"7", "-1", "Monday"} {
		if _, err := ResolveDay(bad); !errors.Is(err, ErrUnknownDay) {
			t.Errorf("ResolveDay(%q) err = %v", bad, err)
		}
	}
}

func TestValidClock(t *testing.T) {
	for in, want := range map[string]bool{
		"00:00": true,
		"18:00": true,
		"23:59": true,
		"24:00": false,
		"9:30":  false,
		"19:60": false,
		"ab:cd": false,
		"":      false,
	} {
		if got := ValidClock(in); got != want {
			t.Errorf("ValidClock(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	full := Config{
		StudentName: "Sara",
		Schedules:   []ScheduleEntry{{Day: Weekdays[1], Time: DefaultTime}},
		ClassLink:   "https://class.example/room1",
	}
	if err := full.Validate(); err != nil {
		t.Fatalf("full config rejected: %v", err)
	}

	cases := map[string]func(c *Config){
		"student_name": func(c *Config) { c.StudentName = "  " },
		"schedules":    func(c *Config) { c.Schedules = nil },
		"class_link":   func(c *Config) { c.ClassLink = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			c := full
			mutate(&c)
			err := c.Validate()
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || len(ve.Missing) != 1 || ve.Missing[0] != field {
				t.Errorf("missing = %v, want [%s]", ve, field)
			}
		})
	}
}

func TestExportFilename(t *testing.T) {
	tests := map[string]string{
		"":       "LP-Reminder-Student.png",
		"  ":     "LP-Reminder-Student.png",
		"سارة":   "LP-Reminder-سارة.png",
		"a/b:c":  "LP-Reminder-a-b-c.png",
		"Omar\n": "LP-Reminder-Omar.png",
	}
	for in, want := range tests {
		if got := ExportFilename(in); got != want {
			t.Errorf("ExportFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSnapshot_View(t *testing.T) {
	bg := newTestImage()
	tests := []struct {
		name string
		snap Snapshot
		want View
	}{
		{"empty", Snapshot{}, ViewEmpty},
		{"generating without image", Snapshot{Generating: true}, ViewGenerating},
		{"generating hides stale image", Snapshot{Generating: true, Background: bg}, ViewGenerating},
		{"populated", Snapshot{Background: bg}, ViewPopulated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.View(); got != tt.want {
				t.Errorf("View() = %v, want %v", got, tt.want)
			}
		})
	}
}
