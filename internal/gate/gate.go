// Package gate decides whether a settings change needs the PIN.
//
// Raising protection is never gated. Lowering the level, turning vital
// blocking off and replacing an existing PIN all require the current PIN.
// Without a PIN every change is allowed.
package gate

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/ppiankov/contentguard/internal/model"
)

var (
	// ErrPinRequired is returned when a guarded change arrives without a PIN.
	ErrPinRequired = errors.New("PIN required")
	// ErrIncorrectPin is returned when the supplied PIN does not match.
	ErrIncorrectPin = errors.New("incorrect PIN")
	// ErrInvalidPin is wrapped by every PIN format violation.
	ErrInvalidPin = errors.New("invalid PIN")
)

// ValidationError describes a malformed PIN.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrInvalidPin }

// ValidatePin checks PIN format: 4 to 6 ASCII digits.
func ValidatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 6 {
		return &ValidationError{Msg: "PIN must be 4-6 digits"}
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return &ValidationError{Msg: "PIN must contain only numbers"}
		}
	}
	return nil
}

// ChangeKind identifies a guarded transition.
type ChangeKind string

const (
	ChangeLevel   ChangeKind = "level"
	ChangeVital   ChangeKind = "vital"
	ChangeEnabled ChangeKind = "enabled"
	ChangePin     ChangeKind = "pin"
)

// Change is a requested transition.
type Change struct {
	Kind    ChangeKind
	Level   model.ProtectionLevel
	Vital   bool
	Enabled bool
	Pin     string
}

// SetLevel requests a new protection level.
func SetLevel(l model.ProtectionLevel) Change {
	return Change{Kind: ChangeLevel, Level: l}
}

// SetVital requests vital blocking on or off.
func SetVital(on bool) Change {
	return Change{Kind: ChangeVital, Vital: on}
}

// SetEnabled turns protection on or off as a whole.
func SetEnabled(on bool) Change {
	return Change{Kind: ChangeEnabled, Enabled: on}
}

// SetPin requests a new PIN.
func SetPin(pin string) Change {
	return Change{Kind: ChangePin, Pin: pin}
}

// TargetLevel returns the level s would have after a level or enabled change.
// Disabling means off. Enabling keeps the current level, or light if off.
func (c Change) TargetLevel(s model.Settings) model.ProtectionLevel {
	switch c.Kind {
	case ChangeLevel:
		return c.Level
	case ChangeEnabled:
		if !c.Enabled {
			return model.LevelOff
		}
		if s.ProtectionLevel == model.LevelOff {
			return model.LevelLight
		}
		return s.ProtectionLevel
	default:
		return s.ProtectionLevel
	}
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeLevel:
		return "set level " + string(c.Level)
	case ChangeVital:
		return fmt.Sprintf("set vital blocking %v", c.Vital)
	case ChangeEnabled:
		return fmt.Sprintf("set protection enabled %v", c.Enabled)
	case ChangePin:
		return "change PIN"
	default:
		return "unknown change"
	}
}

// Verdict is the outcome of Decide.
type Verdict string

const (
	Allowed     Verdict = "allowed"
	RequiresPin Verdict = "requires_pin"
)

// Decision is a gate verdict with a human-readable reason.
type Decision struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

// Allowed reports whether the change may be applied without a PIN.
func (d Decision) Allowed() bool {
	return d.Verdict == Allowed
}

// Decide evaluates change against s.
func Decide(s model.Settings, c Change) Decision {
	if !s.HasPin() {
		return Decision{Verdict: Allowed, Reason: "no PIN set"}
	}

	switch c.Kind {
	case ChangeLevel, ChangeEnabled:
		to := c.TargetLevel(s)
		if model.IsDowngrade(s.ProtectionLevel, to) {
			return Decision{
				Verdict: RequiresPin,
				Reason:  fmt.Sprintf("lowering protection from %s to %s requires PIN", s.ProtectionLevel, to),
			}
		}
		return Decision{Verdict: Allowed, Reason: "raising or keeping protection"}
	case ChangeVital:
		if s.VitalBlockingEnabled && !c.Vital {
			return Decision{Verdict: RequiresPin, Reason: "disabling vital protection requires PIN"}
		}
		return Decision{Verdict: Allowed, Reason: "enabling or keeping vital protection"}
	case ChangePin:
		return Decision{Verdict: RequiresPin, Reason: "changing the PIN requires the current PIN"}
	default:
		return Decision{Verdict: Allowed, Reason: "change is not guarded"}
	}
}

// VerifyPin reports whether pin matches the stored PIN. With no PIN stored
// there is nothing to verify.
func VerifyPin(s model.Settings, pin string) bool {
	if !s.HasPin() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(*s.Pin), []byte(pin)) == 1
}

// Authorize re-runs Decide against s and checks pin when the change is
// guarded. It returns nil when the change may be applied.
func Authorize(s model.Settings, c Change, pin string) error {
	if d := Decide(s, c); d.Allowed() {
		return nil
	}
	if pin == "" {
		return ErrPinRequired
	}
	if !VerifyPin(s, pin) {
		return ErrIncorrectPin
	}
	return nil
}
