package settings

import (
	"fmt"

	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/model"
)

// ActionType names a settings transition.
type ActionType string

const (
	ActSetLevel      ActionType = "set_level"
	ActSetEnabled    ActionType = "set_enabled"
	ActSetVital      ActionType = "set_vital"
	ActSetPin        ActionType = "set_pin"
	ActAddDomain     ActionType = "add_domain"
	ActRemoveDomain  ActionType = "remove_domain"
	ActAddKeyword    ActionType = "add_keyword"
	ActRemoveKeyword ActionType = "remove_keyword"
	ActSetPartner    ActionType = "set_partner"
	ActClearPartner  ActionType = "clear_partner"
	ActLogAttempt    ActionType = "log_attempt"
	ActClearHistory  ActionType = "clear_history"
)

// Action is one requested transition. Only the fields its Type uses are set.
type Action struct {
	Type    ActionType
	Level   model.ProtectionLevel
	On      bool
	Value   string
	Partner model.AccountabilityPartner
	Attempt model.BlockedAttempt
}

func SetLevel(l model.ProtectionLevel) Action { return Action{Type: ActSetLevel, Level: l} }
func SetEnabled(on bool) Action               { return Action{Type: ActSetEnabled, On: on} }
func SetVital(on bool) Action                 { return Action{Type: ActSetVital, On: on} }
func SetPin(pin string) Action                { return Action{Type: ActSetPin, Value: pin} }
func AddDomain(d string) Action               { return Action{Type: ActAddDomain, Value: d} }
func RemoveDomain(d string) Action            { return Action{Type: ActRemoveDomain, Value: d} }
func AddKeyword(k string) Action              { return Action{Type: ActAddKeyword, Value: k} }
func RemoveKeyword(k string) Action           { return Action{Type: ActRemoveKeyword, Value: k} }
func ClearPartner() Action                    { return Action{Type: ActClearPartner} }
func ClearHistory() Action                    { return Action{Type: ActClearHistory} }

func SetPartner(p model.AccountabilityPartner) Action {
	return Action{Type: ActSetPartner, Partner: p}
}

func LogAttempt(a model.BlockedAttempt) Action {
	return Action{Type: ActLogAttempt, Attempt: a}
}

// Change maps the action onto the gate. ok is false for actions the gate
// does not guard.
func (a Action) Change() (gate.Change, bool) {
	switch a.Type {
	case ActSetLevel:
		return gate.SetLevel(a.Level), true
	case ActSetEnabled:
		return gate.SetEnabled(a.On), true
	case ActSetVital:
		return gate.SetVital(a.On), true
	case ActSetPin:
		return gate.SetPin(a.Value), true
	default:
		return gate.Change{}, false
	}
}

// FromChange converts a gate change back to an action.
func FromChange(c gate.Change) Action {
	switch c.Kind {
	case gate.ChangeLevel:
		return SetLevel(c.Level)
	case gate.ChangeEnabled:
		return SetEnabled(c.Enabled)
	case gate.ChangeVital:
		return SetVital(c.Vital)
	default:
		return SetPin(c.Pin)
	}
}

// String describes the action for logs and the journal. PINs never appear.
func (a Action) String() string {
	switch a.Type {
	case ActSetLevel:
		return "set level " + string(a.Level)
	case ActSetEnabled:
		return fmt.Sprintf("set protection enabled %v", a.On)
	case ActSetVital:
		return fmt.Sprintf("set vital blocking %v", a.On)
	case ActSetPin:
		return "change PIN"
	case ActAddDomain:
		return "add domain " + a.Value
	case ActRemoveDomain:
		return "remove domain " + a.Value
	case ActAddKeyword:
		return "add keyword " + a.Value
	case ActRemoveKeyword:
		return "remove keyword " + a.Value
	case ActSetPartner:
		return "set partner " + a.Partner.Email
	case ActClearPartner:
		return "clear partner"
	case ActLogAttempt:
		return "log blocked " + a.Attempt.Content()
	case ActClearHistory:
		return "clear history"
	default:
		return "unknown action " + string(a.Type)
	}
}

// EffectType names a side effect produced by Reduce.
type EffectType string

const EffectNotifyPartner EffectType = "notify_partner"

// Effect is a side effect the shell around Reduce may execute.
type Effect struct {
	Type    EffectType
	Partner model.AccountabilityPartner
	Attempt model.BlockedAttempt
}
