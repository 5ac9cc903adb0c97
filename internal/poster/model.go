package poster

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Gender selects the character drawn into the generated background.
type Gender int

const (
	Boy Gender = iota
	Girl

	genderCount
)

var genderNames = [genderCount]string{
	Boy:  "Boy",
	Girl: "Girl",
}

func (g Gender) String() string {
	if g < 0 || g >= genderCount {
		return "Gender(" + strconv.Itoa(int(g)) + ")"
	}
	return genderNames[g]
}

// ParseGender accepts "Boy" or "Girl", case-insensitively.
func ParseGender(s string) (Gender, error) {
	for g, name := range genderNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Gender(g), nil
		}
	}
	return Boy, fmt.Errorf("%w: unknown gender %q", ErrInvalidValue, s)
}

func (g Gender) MarshalText() ([]byte, error) {
	if g < 0 || g >= genderCount {
		return nil, fmt.Errorf("%w: gender %d", ErrInvalidValue, int(g))
	}
	return []byte(genderNames[g]), nil
}

func (g *Gender) UnmarshalText(b []byte) error {
	v, err := ParseGender(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// AgeRange is stored with the poster but does not affect the prompt or layout.
type AgeRange int

const (
	Preschool AgeRange = iota
	Child
	Teen

	ageRangeCount
)

var ageRangeLabels = [ageRangeCount]string{
	Preschool: "Preschool (3-6)",
	Child:     "Child (7-12)",
	Teen:      "Teen (13+)",
}

func (a AgeRange) String() string {
	if a < 0 || a >= ageRangeCount {
		return "AgeRange(" + strconv.Itoa(int(a)) + ")"
	}
	return ageRangeLabels[a]
}

// ParseAgeRange accepts the display label ("Child (7-12)") or the bare
// name ("Child").
func ParseAgeRange(s string) (AgeRange, error) {
	s = strings.TrimSpace(s)
	for a, label := range ageRangeLabels {
		name, _, _ := strings.Cut(label, " ")
		if strings.EqualFold(s, label) || strings.EqualFold(s, name) {
			return AgeRange(a), nil
		}
	}
	return Child, fmt.Errorf("%w: unknown age range %q", ErrInvalidValue, s)
}

func (a AgeRange) MarshalText() ([]byte, error) {
	if a < 0 || a >= ageRangeCount {
		return nil, fmt.Errorf("%w: age range %d", ErrInvalidValue, int(a))
	}
	return []byte(ageRangeLabels[a]), nil
}

func (a *AgeRange) UnmarshalText(b []byte) error {
	v, err := ParseAgeRange(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Genders and AgeRanges list every value in declaration order.
func Genders() []Gender {
	out := make([]Gender, 0, genderCount)
	for g := Gender(0); g < genderCount; g++ {
		out = append(out, g)
	}
	return out
}

func AgeRanges() []AgeRange {
	out := make([]AgeRange, 0, ageRangeCount)
	for a := AgeRange(0); a < ageRangeCount; a++ {
		out = append(out, a)
	}
	return out
}

// Weekdays holds the day labels printed on the poster, Sunday first.
var Weekdays = [7]string{
	"الأحد",
	"الاثنين",
	"الثلاثاء",
	"الأربعاء",
	"الخميس",
	"الجمعة",
	"السبت",
}

const DefaultTime = "18:00"

// ResolveDay maps a weekday label or its index ("0".."6") to the label.
func ResolveDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, d := range Weekdays {
		if s == d {
			return d, nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(Weekdays) {
		return Weekdays[i], nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDay, s)
}

// ValidClock reports whether s is a 24h HH:MM time.
func ValidClock(s string) bool {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return false
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return false
	}
	mm, err := strconv.Atoi(m)
	return err == nil && mm >= 0 && mm <= 59
}

type ScheduleEntry struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// Config is the form a staff member fills in.
type Config struct {
	StudentName string          `json:"student_name"`
	Schedules   []ScheduleEntry `json:"schedules"`
	ClassLink   string          `json:"class_link"`
	Gender      Gender          `json:"gender"`
	AgeRange    AgeRange        `json:"age_range"`
}

// Validate checks the fields required before a background can be generated.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.StudentName) == "" {
		missing = append(missing, "student_name")
	}
	if len(c.Schedules) == 0 {
		missing = append(missing, "schedules")
	}
	if strings.TrimSpace(c.ClassLink) == "" {
		missing = append(missing, "class_link")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// QRArtifact is an encoded class-link QR code.
type QRArtifact struct {
	Link  string
	Image image.Image
	PNG   []byte
}

// Snapshot is a point-in-time copy of a Store, safe to read without locks.
type Snapshot struct {
	Config     Config
	QR         *QRArtifact
	Background image.Image
	Generating bool
	Exporting  bool
}

// View is the mutually exclusive poster state picked from the snapshot.
type View int

const (
	ViewEmpty View = iota
	ViewGenerating
	ViewPopulated
)

func (v View) String() string {
	switch v {
	case ViewGenerating:
		return "generating"
	case ViewPopulated:
		return "populated"
	default:
		return "empty"
	}
}

func (s Snapshot) View() View {
	switch {
	case s.Generating:
		return ViewGenerating
	case s.Background != nil:
		return ViewPopulated
	default:
		return ViewEmpty
	}
}

// ExportFilename names the downloaded poster.
func ExportFilename(studentName string) string {
	name := strings.TrimSpace(studentName)
	if name == "" {
		name = "Student"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	return "LP-Reminder-" + name + ".png"
}
