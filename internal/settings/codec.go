package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/model"
)

// ErrMalformed is wrapped by every schema violation Unmarshal reports.
var ErrMalformed = errors.New("malformed settings document")

// Marshal encodes s as the persisted settings document.
func Marshal(s model.Settings) ([]byte, error) {
	s = s.Clone()
	s.Enabled = s.ProtectionLevel != model.LevelOff
	s.LastModified = s.LastModified.UTC()
	for i := range s.BlockHistory {
		s.BlockHistory[i].Timestamp = s.BlockHistory[i].Timestamp.UTC()
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("settings: marshal: %w", err)
	}
	return data, nil
}

// wire mirrors model.Settings with pointers so missing fields can be told
// apart from zero values. pin and accountabilityPartner may be absent.
type wire struct {
	Enabled               *bool                  `json:"enabled"`
	ProtectionLevel       *model.ProtectionLevel `json:"protectionLevel"`
	VitalBlockingEnabled  *bool                  `json:"vitalBlockingEnabled"`
	Pin                   *string                `json:"pin"`
	CustomBlockedDomains  *[]string              `json:"customBlockedDomains"`
	CustomBlockedKeywords *[]string              `json:"customBlockedKeywords"`
	AccountabilityPartner *wirePartner           `json:"accountabilityPartner"`
	BlockHistory          *[]wireAttempt         `json:"blockHistory"`
	LastModified          *time.Time             `json:"lastModified"`
}

type wirePartner struct {
	Email         *string `json:"email"`
	NotifyOnBlock bool    `json:"notifyOnBlock"`
	DailyReport   bool    `json:"dailyReport"`
	WeeklyReport  bool    `json:"weeklyReport"`
}

type wireAttempt struct {
	ID              *string                `json:"id"`
	Timestamp       *time.Time             `json:"timestamp"`
	URL             string                 `json:"url"`
	Keyword         string                 `json:"keyword"`
	Reason          *string                `json:"reason"`
	ProtectionLevel *model.ProtectionLevel `json:"protectionLevel"`
}

// Unmarshal decodes and validates a settings document. Unknown fields,
// missing required fields, unknown levels, malformed PINs and attempts
// without exactly one of url or keyword are all rejected.
func Unmarshal(data []byte) (model.Settings, error) {
	var w wire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return model.Settings{}, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}

	switch {
	case w.Enabled == nil:
		return model.Settings{}, missing("enabled")
	case w.ProtectionLevel == nil:
		return model.Settings{}, missing("protectionLevel")
	case w.VitalBlockingEnabled == nil:
		return model.Settings{}, missing("vitalBlockingEnabled")
	case w.CustomBlockedDomains == nil:
		return model.Settings{}, missing("customBlockedDomains")
	case w.CustomBlockedKeywords == nil:
		return model.Settings{}, missing("customBlockedKeywords")
	case w.BlockHistory == nil:
		return model.Settings{}, missing("blockHistory")
	case w.LastModified == nil:
		return model.Settings{}, missing("lastModified")
	}

	if !w.ProtectionLevel.Valid() {
		return model.Settings{}, fmt.Errorf("%w: unknown protection level %q", ErrMalformed, *w.ProtectionLevel)
	}

	s := model.Settings{
		ProtectionLevel:       *w.ProtectionLevel,
		VitalBlockingEnabled:  *w.VitalBlockingEnabled,
		CustomBlockedDomains:  append([]string{}, *w.CustomBlockedDomains...),
		CustomBlockedKeywords: append([]string{}, *w.CustomBlockedKeywords...),
		BlockHistory:          make([]model.BlockedAttempt, 0, len(*w.BlockHistory)),
		LastModified:          w.LastModified.UTC(),
	}
	s.Enabled = s.ProtectionLevel != model.LevelOff

	if w.Pin != nil {
		if err := gate.ValidatePin(*w.Pin); err != nil {
			return model.Settings{}, fmt.Errorf("%w: stored pin: %v", ErrMalformed, err)
		}
		pin := *w.Pin
		s.Pin = &pin
	}

	if p := w.AccountabilityPartner; p != nil {
		if p.Email == nil || *p.Email == "" {
			return model.Settings{}, missing("accountabilityPartner.email")
		}
		s.AccountabilityPartner = &model.AccountabilityPartner{
			Email:         *p.Email,
			NotifyOnBlock: p.NotifyOnBlock,
			DailyReport:   p.DailyReport,
			WeeklyReport:  p.WeeklyReport,
		}
	}

	for i, a := range *w.BlockHistory {
		at, err := a.attempt()
		if err != nil {
			return model.Settings{}, fmt.Errorf("%w: blockHistory[%d]: %v", ErrMalformed, i, err)
		}
		if len(s.BlockHistory) < model.MaxHistory {
			s.BlockHistory = append(s.BlockHistory, at)
		}
	}

	return s, nil
}

func (a wireAttempt) attempt() (model.BlockedAttempt, error) {
	switch {
	case a.ID == nil || *a.ID == "":
		return model.BlockedAttempt{}, errors.New("missing id")
	case a.Timestamp == nil:
		return model.BlockedAttempt{}, errors.New("missing timestamp")
	case a.Reason == nil:
		return model.BlockedAttempt{}, errors.New("missing reason")
	case a.ProtectionLevel == nil || !a.ProtectionLevel.Valid():
		return model.BlockedAttempt{}, errors.New("missing or unknown protectionLevel")
	case (a.URL == "") == (a.Keyword == ""):
		return model.BlockedAttempt{}, errors.New("needs exactly one of url or keyword")
	}
	return model.BlockedAttempt{
		ID:              *a.ID,
		Timestamp:       a.Timestamp.UTC(),
		URL:             a.URL,
		Keyword:         a.Keyword,
		Reason:          *a.Reason,
		ProtectionLevel: *a.ProtectionLevel,
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformed, field)
}

// Decode is Unmarshal with the all-off default as fallback. The error is
// returned alongside the defaults so callers can log it.
func Decode(data []byte, now time.Time) (model.Settings, error) {
	s, err := Unmarshal(data)
	if err != nil {
		return model.DefaultSettings(now), err
	}
	return s, nil
}
