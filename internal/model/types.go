package model

import (
	"fmt"
	"strings"
	"time"
)

// ProtectionLevel is a point on the ordered protection lattice.
type ProtectionLevel string

const (
	LevelOff    ProtectionLevel = "off"
	LevelLight  ProtectionLevel = "light"
	LevelStrong ProtectionLevel = "strong"
	LevelStrict ProtectionLevel = "strict"
)

// Levels lists every protection level in ascending order.
var Levels = []ProtectionLevel{LevelOff, LevelLight, LevelStrong, LevelStrict}

// LevelRank maps a level to a comparable integer. Higher rank = more restricted.
var LevelRank = map[ProtectionLevel]int{
	LevelOff:    0,
	LevelLight:  1,
	LevelStrong: 2,
	LevelStrict: 3,
}

// Rank returns the level's position in the lattice, or -1 for unknown levels.
func (l ProtectionLevel) Rank() int {
	if r, ok := LevelRank[l]; ok {
		return r
	}
	return -1
}

// Valid reports whether l is one of the four known levels.
func (l ProtectionLevel) Valid() bool {
	_, ok := LevelRank[l]
	return ok
}

// Label returns the human-readable level name.
func (l ProtectionLevel) Label() string {
	switch l {
	case LevelOff:
		return "Off"
	case LevelLight:
		return "Light Protection"
	case LevelStrong:
		return "Strong Protection"
	case LevelStrict:
		return "Strict Protection"
	default:
		return fmt.Sprintf("unknown(%s)", string(l))
	}
}

// Description returns a one-line summary of what the level filters.
func (l ProtectionLevel) Description() string {
	switch l {
	case LevelOff:
		return "No content filtering active"
	case LevelLight:
		return "Basic filtering for common adult content"
	case LevelStrong:
		return "Enhanced filtering with social media restrictions"
	case LevelStrict:
		return "Maximum protection with comprehensive filtering"
	default:
		return ""
	}
}

// Categories returns the blocked content categories for the level.
func (l ProtectionLevel) Categories() []string {
	switch l {
	case LevelLight:
		return []string{"adult", "explicit"}
	case LevelStrong:
		return []string{"adult", "explicit", "dating", "gambling", "proxy"}
	case LevelStrict:
		return []string{"adult", "explicit", "dating", "gambling", "proxy", "gaming", "streaming", "social-media"}
	default:
		return []string{}
	}
}

// ParseLevel converts user input into a ProtectionLevel.
func ParseLevel(s string) (ProtectionLevel, error) {
	l := ProtectionLevel(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown protection level %q (want off, light, strong or strict)", s)
	}
	return l, nil
}

// IsDowngrade reports whether moving from one level to another lowers protection.
func IsDowngrade(from, to ProtectionLevel) bool {
	return to.Rank() < from.Rank()
}

// AccountabilityPartner is an optional third party notified about blocks.
// Only NotifyOnBlock is acted on synchronously; the report flags are
// preferences for an external scheduler.
type AccountabilityPartner struct {
	Email         string `json:"email"`
	NotifyOnBlock bool   `json:"notifyOnBlock"`
	DailyReport   bool   `json:"dailyReport"`
	WeeklyReport  bool   `json:"weeklyReport"`
}

// BlockedAttempt is one audited block. Exactly one of URL or Keyword is set.
type BlockedAttempt struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	URL             string          `json:"url,omitempty"`
	Keyword         string          `json:"keyword,omitempty"`
	Reason          string          `json:"reason"`
	ProtectionLevel ProtectionLevel `json:"protectionLevel"`
}

// Kind returns "URL" or "Keyword".
func (a BlockedAttempt) Kind() string {
	if a.URL != "" {
		return "URL"
	}
	return "Keyword"
}

// Content returns whichever of URL or Keyword is populated.
func (a BlockedAttempt) Content() string {
	if a.URL != "" {
		return a.URL
	}
	return a.Keyword
}

// MaxHistory caps the in-document block history.
const MaxHistory = 100

// Settings is the content protection aggregate. One per installation.
// Treat values as immutable: mutate a Clone.
type Settings struct {
	Enabled               bool                   `json:"enabled"`
	ProtectionLevel       ProtectionLevel        `json:"protectionLevel"`
	VitalBlockingEnabled  bool                   `json:"vitalBlockingEnabled"`
	Pin                   *string                `json:"pin"`
	CustomBlockedDomains  []string               `json:"customBlockedDomains"`
	CustomBlockedKeywords []string               `json:"customBlockedKeywords"`
	AccountabilityPartner *AccountabilityPartner `json:"accountabilityPartner"`
	BlockHistory          []BlockedAttempt       `json:"blockHistory"`
	LastModified          time.Time              `json:"lastModified"`
}

// DefaultSettings returns the all-off aggregate.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		Enabled:               false,
		ProtectionLevel:       LevelOff,
		VitalBlockingEnabled:  false,
		CustomBlockedDomains:  []string{},
		CustomBlockedKeywords: []string{},
		BlockHistory:          []BlockedAttempt{},
		LastModified:          now,
	}
}

// HasPin reports whether a PIN guards downgrades.
func (s Settings) HasPin() bool {
	return s.Pin != nil && *s.Pin != ""
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	c := s
	if s.Pin != nil {
		pin := *s.Pin
		c.Pin = &pin
	}
	if s.AccountabilityPartner != nil {
		p := *s.AccountabilityPartner
		c.AccountabilityPartner = &p
	}
	c.CustomBlockedDomains = append([]string{}, s.CustomBlockedDomains...)
	c.CustomBlockedKeywords = append([]string{}, s.CustomBlockedKeywords...)
	c.BlockHistory = append([]BlockedAttempt{}, s.BlockHistory...)
	return c
}
