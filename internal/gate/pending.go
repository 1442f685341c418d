package gate

import "github.com/ppiankov/contentguard/internal/model"

// PendingKind tags a parked transition.
type PendingKind string

const (
	PendingNone      PendingKind = ""
	PendingLevel     PendingKind = "level"
	PendingVital     PendingKind = "vital"
	PendingPinChange PendingKind = "pin_change"
)

// Pending is a transition waiting for the PIN. Only the field matching
// Kind is meaningful.
type Pending struct {
	Kind  PendingKind           `json:"kind"`
	Level model.ProtectionLevel `json:"level,omitempty"`
	Vital bool                  `json:"vital,omitempty"`
	Pin   string                `json:"-"`
}

// None is the empty pending transition.
var None = Pending{}

// IsNone reports whether nothing is parked.
func (p Pending) IsNone() bool {
	return p.Kind == PendingNone
}

// Change maps the parked transition back to a Change.
func (p Pending) Change() (Change, bool) {
	switch p.Kind {
	case PendingLevel:
		return SetLevel(p.Level), true
	case PendingVital:
		return SetVital(p.Vital), true
	case PendingPinChange:
		return SetPin(p.Pin), true
	default:
		return Change{}, false
	}
}

// Park converts a change into its pending form. Enabled changes park as
// the level they resolve to against s.
func Park(s model.Settings, c Change) Pending {
	switch c.Kind {
	case ChangeLevel, ChangeEnabled:
		return Pending{Kind: PendingLevel, Level: c.TargetLevel(s)}
	case ChangeVital:
		return Pending{Kind: PendingVital, Vital: c.Vital}
	case ChangePin:
		return Pending{Kind: PendingPinChange, Pin: c.Pin}
	default:
		return None
	}
}
