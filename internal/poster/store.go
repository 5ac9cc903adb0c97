package poster

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// QREncoder turns a class link into a QR artifact.
type QREncoder interface {
	Encode(ctx context.Context, text string) (*QRArtifact, error)
}

const qrEncodeTimeout = 10 * time.Second

// Store owns one poster's form values and derived artifacts. All mutation
// goes through its methods.
type Store struct {
	mu         sync.Mutex
	cfg        Config
	qr         *QRArtifact
	background image.Image
	generating bool
	exporting  bool

	// qrSeq numbers every encode request; only the latest one may publish.
	qrSeq     uint64
	qrPending int
	qrIdle    chan struct{}

	encoder QREncoder
	logger  *slog.Logger
}

// NewStore returns a store with empty defaults.
func NewStore(encoder QREncoder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:     Config{Gender: Boy, AgeRange: Child},
		encoder: encoder,
		logger:  logger,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.Schedules = slices.Clone(s.cfg.Schedules)
	return Snapshot{
		Config:     cfg,
		QR:         s.qr,
		Background: s.background,
		Generating: s.generating,
		Exporting:  s.exporting,
	}
}

func (s *Store) SetStudentName(name string) {
	s.mu.Lock()
	s.cfg.StudentName = name
	s.mu.Unlock()
}

func (s *Store) SetGender(g Gender) error {
	if g < 0 || g >= genderCount {
		return fmt.Errorf("%w: gender %d", ErrInvalidValue, int(g))
	}
	s.mu.Lock()
	s.cfg.Gender = g
	s.mu.Unlock()
	return nil
}

func (s *Store) SetAgeRange(a AgeRange) error {
	if a < 0 || a >= ageRangeCount {
		return fmt.Errorf("%w: age range %d", ErrInvalidValue, int(a))
	}
	s.mu.Lock()
	s.cfg.AgeRange = a
	s.mu.Unlock()
	return nil
}

// ToggleDay removes day from the schedule if present, otherwise appends it
// with DefaultTime. It reports whether the day is scheduled afterwards.
func (s *Store) ToggleDay(day string) (bool, error) {
	label, err := ResolveDay(day)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(label); i >= 0 {
		s.cfg.Schedules = slices.Delete(s.cfg.Schedules, i, i+1)
		return false, nil
	}
	s.cfg.Schedules = append(s.cfg.Schedules, ScheduleEntry{Day: label, Time: DefaultTime})
	return true, nil
}

// SetTime changes the time of an already scheduled day.
func (s *Store) SetTime(day, clock string) error {
	label, err := ResolveDay(day)
	if err != nil {
		return err
	}
	if !ValidClock(clock) {
		return fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(label)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrDayNotScheduled, label)
	}
	s.cfg.Schedules[i].Time = clock
	return nil
}

func (s *Store) indexOf(label string) int {
	return slices.IndexFunc(s.cfg.Schedules, func(e ScheduleEntry) bool { return e.Day == label })
}

// SetClassLink stores the link and refreshes the QR artifact. An empty link
// clears the artifact before returning; any other value starts an encode in
// the background.
func (s *Store) SetClassLink(link string) {
	s.mu.Lock()
	changed := s.cfg.ClassLink != link
	s.cfg.ClassLink = link
	if !changed && (link == "" || s.qr != nil || s.qrPending > 0) {
		s.mu.Unlock()
		return
	}
	s.qrSeq++
	if link == "" {
		s.qr = nil
		s.mu.Unlock()
		return
	}
	seq := s.qrSeq
	if s.qrPending == 0 {
		s.qrIdle = make(chan struct{})
	}
	s.qrPending++
	s.mu.Unlock()

	go s.encodeQR(seq, link)
}

func (s *Store) encodeQR(seq uint64, link string) {
	ctx, cancel := context.WithTimeout(context.Background(), qrEncodeTimeout)
	defer cancel()

	var (
		art *QRArtifact
		err error
	)
	if s.encoder == nil {
		err = fmt.Errorf("no QR encoder configured")
	} else {
		art, err = s.encoder.Encode(ctx, link)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.logger.Error("QR encode failed", "link", link, "error", err)
	case seq != s.qrSeq:
		s.logger.Debug("discarding superseded QR encode", "link", link, "seq", seq, "latest", s.qrSeq)
	default:
		s.qr = art
	}
	s.qrPending--
	if s.qrPending == 0 {
		close(s.qrIdle)
		s.qrIdle = nil
	}
}

// AwaitQR blocks until no QR encode is in flight or ctx is done.
func (s *Store) AwaitQR(ctx context.Context) error {
	s.mu.Lock()
	idle := s.qrIdle
	s.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryBeginGenerate sets the generating flag. It fails with ErrBusy when a
// generation is already running.
func (s *Store) TryBeginGenerate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating {
		return ErrBusy
	}
	s.generating = true
	return nil
}

func (s *Store) EndGenerate() {
	s.mu.Lock()
	s.generating = false
	s.mu.Unlock()
}

// TryBeginExport sets the exporting flag. Exports need a background and
// never overlap.
func (s *Store) TryBeginExport() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.background == nil {
		return ErrNoBackground
	}
	if s.exporting {
		return ErrBusy
	}
	s.exporting = true
	return nil
}

func (s *Store) EndExport() {
	s.mu.Lock()
	s.exporting = false
	s.mu.Unlock()
}

// SetBackground replaces the generated background. Edits to other fields
// never clear it.
func (s *Store) SetBackground(img image.Image) {
	s.mu.Lock()
	s.background = img
	s.mu.Unlock()
}
