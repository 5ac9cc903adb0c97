package api

import (
	"errors"

	imagepkg "github.com/lpcrm/reminder-poster/internal/image"
	"github.com/lpcrm/reminder-poster/internal/poster"
)

// sessionView is the JSON form of a session the page renders from.
type sessionView struct {
	ID            string        `json:"id"`
	Config        poster.Config `json:"config"`
	State         string        `json:"state"`
	Generating    bool          `json:"generating"`
	Exporting     bool          `json:"exporting"`
	HasBackground bool          `json:"has_background"`
	CanGenerate   bool          `json:"can_generate"`
	CanDownload   bool          `json:"can_download"`
	Missing       []string      `json:"missing,omitempty"`
	QR            string        `json:"qr,omitempty"`
}

func newSessionView(id string, snap poster.Snapshot) sessionView {
	v := sessionView{
		ID:            id,
		Config:        snap.Config,
		State:         snap.View().String(),
		Generating:    snap.Generating,
		Exporting:     snap.Exporting,
		HasBackground: snap.Background != nil,
		CanDownload:   snap.Background != nil && !snap.Exporting,
	}
	if v.Config.Schedules == nil {
		v.Config.Schedules = []poster.ScheduleEntry{}
	}
	var verr *poster.ValidationError
	if err := snap.Config.Validate(); errors.As(err, &verr) {
		v.Missing = verr.Missing
	}
	v.CanGenerate = len(v.Missing) == 0 && !snap.Generating
	if snap.QR != nil && len(snap.QR.PNG) > 0 {
		v.QR = imagepkg.DataURI("image/png", snap.QR.PNG)
	}
	return v
}
