package settings

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/model"
)

// ErrInvalidInput is wrapped by every rejected action argument.
var ErrInvalidInput = errors.New("invalid input")

// Reduce applies a to state and returns the next state plus any side
// effects. state is never modified. Every applied action stamps
// LastModified with now and keeps Enabled equal to level != off.
// Adding an entry that is already present is a no-op.
func Reduce(state model.Settings, a Action, now time.Time) (model.Settings, []Effect, error) {
	next := state.Clone()
	var effects []Effect

	switch a.Type {
	case ActSetLevel:
		if !a.Level.Valid() {
			return state, nil, fmt.Errorf("%w: unknown protection level %q", ErrInvalidInput, a.Level)
		}
		next.ProtectionLevel = a.Level

	case ActSetEnabled:
		next.ProtectionLevel = gate.SetEnabled(a.On).TargetLevel(state)

	case ActSetVital:
		next.VitalBlockingEnabled = a.On

	case ActSetPin:
		if err := gate.ValidatePin(a.Value); err != nil {
			return state, nil, err
		}
		pin := a.Value
		next.Pin = &pin

	case ActAddDomain:
		d := NormalizeDomain(a.Value)
		if d == "" {
			return state, nil, fmt.Errorf("%w: domain must not be empty", ErrInvalidInput)
		}
		if indexFold(next.CustomBlockedDomains, d) >= 0 {
			return state.Clone(), nil, nil
		}
		next.CustomBlockedDomains = append(next.CustomBlockedDomains, d)

	case ActRemoveDomain:
		next.CustomBlockedDomains = removeFold(next.CustomBlockedDomains, NormalizeDomain(a.Value))

	case ActAddKeyword:
		k := strings.TrimSpace(a.Value)
		if k == "" {
			return state, nil, fmt.Errorf("%w: keyword must not be empty", ErrInvalidInput)
		}
		if indexFold(next.CustomBlockedKeywords, k) >= 0 {
			return state.Clone(), nil, nil
		}
		next.CustomBlockedKeywords = append(next.CustomBlockedKeywords, k)

	case ActRemoveKeyword:
		next.CustomBlockedKeywords = removeFold(next.CustomBlockedKeywords, strings.TrimSpace(a.Value))

	case ActSetPartner:
		p := a.Partner
		addr, err := mail.ParseAddress(strings.TrimSpace(p.Email))
		if err != nil {
			return state, nil, fmt.Errorf("%w: partner email %q: %v", ErrInvalidInput, p.Email, err)
		}
		p.Email = addr.Address
		next.AccountabilityPartner = &p

	case ActClearPartner:
		next.AccountabilityPartner = nil

	case ActLogAttempt:
		at := a.Attempt
		if (at.URL == "") == (at.Keyword == "") {
			return state, nil, fmt.Errorf("%w: blocked attempt needs exactly one of url or keyword", ErrInvalidInput)
		}
		next.BlockHistory = audit.Append(next.BlockHistory, at)
		if p := state.AccountabilityPartner; p != nil && p.NotifyOnBlock {
			effects = append(effects, Effect{Type: EffectNotifyPartner, Partner: *p, Attempt: at})
		}

	case ActClearHistory:
		next.BlockHistory = audit.Clear(next.BlockHistory)

	default:
		return state, nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, a.Type)
	}

	next.Enabled = next.ProtectionLevel != model.LevelOff
	next.LastModified = now
	return next, effects, nil
}

// NormalizeDomain lowercases d and strips any scheme, path and port so
// "https://Example.com/x" and "example.com" are the same entry.
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, ":"); i >= 0 {
		d = d[:i]
	}
	return d
}

func indexFold(list []string, s string) int {
	for i, v := range list {
		if strings.EqualFold(v, s) {
			return i
		}
	}
	return -1
}

func removeFold(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if !strings.EqualFold(v, s) {
			out = append(out, v)
		}
	}
	return out
}
