package poster

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newTestImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEncoder records calls and lets a test hold individual encodes open.
type fakeEncoder struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan struct{}
	fail  map[string]bool
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{gates: map[string]chan struct{}{}, fail: map[string]bool{}}
}

func (f *fakeEncoder) hold(link string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[link] = ch
	return ch
}

func (f *fakeEncoder) Encode(ctx context.Context, text string) (*QRArtifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	gate := f.gates[text]
	fail := f.fail[text]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("encode failed")
	}
	return &QRArtifact{Link: text, Image: newTestImage(), PNG: []byte(text)}, nil
}

func (f *fakeEncoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func awaitQR(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.AwaitQR(ctx); err != nil {
		t.Fatalf("AwaitQR: %v", err)
	}
}

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore(newFakeEncoder(), discardLogger())
	snap := s.Snapshot()
	if snap.Config.Gender != Boy || snap.Config.AgeRange != Child {
		t.Errorf("defaults = %v/%v", snap.Config.Gender, snap.Config.AgeRange)
	}
	if snap.Config.StudentName != "" || len(snap.Config.Schedules) != 0 || snap.Config.ClassLink != "" {
		t.Errorf("expected empty form, got %+v", snap.Config)
	}
	if snap.QR != nil || snap.Background != nil || snap.Generating || snap.Exporting {
		t.Error("expected no artifacts and no busy flags")
	}
}

func TestStore_ToggleDay(t *testing.T) {
	s := NewStore(nil, discardLogger())

	on, err := s.ToggleDay(Weekdays[2])
	if err != nil || !on {
		t.Fatalf("ToggleDay = %v, %v", on, err)
	}
	if _, err := s.ToggleDay("0"); err != nil {
		t.Fatal(err)
	}
	got := s.Snapshot().Config.Schedules
	want := []ScheduleEntry{{Weekdays[2], DefaultTime}, {Weekdays[0], DefaultTime}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("schedules = %v, want insertion order %v", got, want)
	}

	if _, err := s.ToggleDay("Monday"); !errors.Is(err, ErrUnknownDay) {
		t.Errorf("expected ErrUnknownDay, got %v", err)
	}
}

func TestStore_ToggleTwiceResetsTime(t *testing.T) {
	s := NewStore(nil, discardLogger())
	s.ToggleDay(Weekdays[0])
	s.ToggleDay(Weekdays[2])
	if err := s.SetTime(Weekdays[2], "19:30"); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot().Config.Schedules

	s.ToggleDay(Weekdays[2])
	s.ToggleDay(Weekdays[2])
	after := s.Snapshot().Config.Schedules

	if len(after) != len(before) {
		t.Fatalf("len = %d, want %d", len(after), len(before))
	}
	if after[1].Day != Weekdays[2] {
		t.Errorf("re-added day at %v", after)
	}
	if after[1].Time != DefaultTime {
		t.Errorf("re-added day kept time %q, want reset to %q", after[1].Time, DefaultTime)
	}
	if after[0] != before[0] {
		t.Errorf("untouched entry changed: %v -> %v", before[0], after[0])
	}
}

func TestStore_ToggleTwiceRestoresDefaultEntries(t *testing.T) {
	s := NewStore(nil, discardLogger())
	s.ToggleDay(Weekdays[4])
	before := s.Snapshot().Config.Schedules
	s.ToggleDay(Weekdays[5])
	s.ToggleDay(Weekdays[5])
	if after := s.Snapshot().Config.Schedules; !reflect.DeepEqual(before, after) {
		t.Errorf("schedules = %v, want %v", after, before)
	}
}

func TestStore_SetTime(t *testing.T) {
	s := NewStore(nil, discardLogger())
	if err := s.SetTime(Weekdays[1], "10:00"); !errors.Is(err, ErrDayNotScheduled) {
		t.Errorf("expected ErrDayNotScheduled, got %v", err)
	}
	s.ToggleDay(Weekdays[1])
	if err := s.SetTime(Weekdays[1], "25:00"); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
	if err := s.SetTime("1", "07:15"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Config.Schedules[0].Time; got != "07:15" {
		t.Errorf("time = %q", got)
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore(nil, discardLogger())
	s.ToggleDay(Weekdays[0])
	snap := s.Snapshot()
	snap.Config.Schedules[0].Time = "01:00"
	if s.Snapshot().Config.Schedules[0].Time != DefaultTime {
		t.Error("mutating a snapshot changed the store")
	}
}

func TestStore_ClassLinkProducesQR(t *testing.T) {
	enc := newFakeEncoder()
	s := NewStore(enc, discardLogger())
	s.SetClassLink("https://class.example/room1")
	awaitQR(t, s)

	qr := s.Snapshot().QR
	if qr == nil || qr.Link != "https://class.example/room1" {
		t.Fatalf("QR = %+v", qr)
	}

	// same link again is not re-encoded
	s.SetClassLink("https://class.example/room1")
	awaitQR(t, s)
	if n := enc.callCount(); n != 1 {
		t.Errorf("encode calls = %d, want 1", n)
	}
}

func TestStore_EmptyLinkClearsQRSynchronously(t *testing.T) {
	enc := newFakeEncoder()
	s := NewStore(enc, discardLogger())
	s.SetClassLink("https://class.example/room1")
	awaitQR(t, s)

	s.SetClassLink("")
	if s.Snapshot().QR != nil {
		t.Fatal("QR not cleared immediately")
	}
	if n := enc.callCount(); n != 1 {
		t.Errorf("empty link issued an encode: calls = %d", n)
	}
}

func TestStore_EmptyLinkDropsInFlightEncode(t *testing.T) {
	enc := newFakeEncoder()
	gate := enc.hold("https://slow.example")
	s := NewStore(enc, discardLogger())

	s.SetClassLink("https://slow.example")
	s.SetClassLink("")
	close(gate)
	awaitQR(t, s)

	if s.Snapshot().QR != nil {
		t.Error("stale encode repopulated a cleared QR")
	}
}

func TestStore_LatestLinkWins(t *testing.T) {
	enc := newFakeEncoder()
	slow := enc.hold("https://old.example")
	s := NewStore(enc, discardLogger())

	s.SetClassLink("https://old.example")
	s.SetClassLink("https://new.example")

	// wait for the new link to land before releasing the old one
	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().QR == nil {
		if time.Now().After(deadline) {
			t.Fatal("new QR never produced")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(slow)
	awaitQR(t, s)

	if got := s.Snapshot().QR.Link; got != "https://new.example" {
		t.Errorf("QR link = %q, want the latest link", got)
	}
}

func TestStore_EncodeFailureKeepsPreviousQR(t *testing.T) {
	enc := newFakeEncoder()
	enc.fail["https://broken.example"] = true
	s := NewStore(enc, discardLogger())

	s.SetClassLink("https://class.example/room1")
	awaitQR(t, s)
	s.SetClassLink("https://broken.example")
	awaitQR(t, s)

	qr := s.Snapshot().QR
	if qr == nil || qr.Link != "https://class.example/room1" {
		t.Errorf("QR = %+v, want previous artifact kept", qr)
	}
}

func TestStore_AwaitQRHonoursContext(t *testing.T) {
	enc := newFakeEncoder()
	gate := enc.hold("https://slow.example")
	defer close(gate)
	s := NewStore(enc, discardLogger())
	s.SetClassLink("https://slow.example")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.AwaitQR(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AwaitQR = %v, want deadline exceeded", err)
	}
}

func TestStore_BusyFlags(t *testing.T) {
	s := NewStore(nil, discardLogger())

	if err := s.TryBeginGenerate(); err != nil {
		t.Fatal(err)
	}
	if err := s.TryBeginGenerate(); !errors.Is(err, ErrBusy) {
		t.Errorf("second generate = %v, want ErrBusy", err)
	}
	s.EndGenerate()
	if err := s.TryBeginGenerate(); err != nil {
		t.Errorf("generate after end = %v", err)
	}
	s.EndGenerate()

	if err := s.TryBeginExport(); !errors.Is(err, ErrNoBackground) {
		t.Errorf("export without background = %v, want ErrNoBackground", err)
	}
	s.SetBackground(newTestImage())
	if err := s.TryBeginExport(); err != nil {
		t.Fatal(err)
	}
	if err := s.TryBeginExport(); !errors.Is(err, ErrBusy) {
		t.Errorf("second export = %v, want ErrBusy", err)
	}
	s.EndExport()
	if s.Snapshot().Exporting {
		t.Error("exporting flag still set")
	}
}

func TestStore_BackgroundSurvivesEdits(t *testing.T) {
	s := NewStore(newFakeEncoder(), discardLogger())
	bg := newTestImage()
	s.SetBackground(bg)

	s.SetStudentName("Omar")
	s.ToggleDay(Weekdays[3])
	s.SetGender(Girl)
	s.SetClassLink("https://class.example/other")
	awaitQR(t, s)

	if s.Snapshot().Background != bg {
		t.Error("background changed after field edits")
	}
}
