package classify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/contentguard/internal/denylist"
	"github.com/ppiankov/contentguard/internal/model"
)

// Stage names the rule that produced a block.
type Stage string

const (
	StageNone     Stage = ""
	StageVital    Stage = "vital"
	StageDomain   Stage = "domain"
	StageKeyword  Stage = "keyword"
	StageFallback Stage = "fallback"
)

// Result is a classification verdict.
type Result struct {
	Blocked        bool   `json:"blocked"`
	Reason         string `json:"reason,omitempty"`
	MatchedKeyword string `json:"matched_keyword,omitempty"`
	Stage          Stage  `json:"stage,omitempty"`
}

// Classifier evaluates URLs and free text against a lattice.
type Classifier struct {
	lat *denylist.Lattice
}

// New returns a Classifier bound to lat. A nil lattice uses the built-in lists.
func New(lat *denylist.Lattice) *Classifier {
	if lat == nil {
		lat = denylist.Default()
	}
	return &Classifier{lat: lat}
}

// Lattice returns the lattice the classifier reads from.
func (c *Classifier) Lattice() *denylist.Lattice {
	return c.lat
}

// CheckURL classifies rawURL. Stages run in order and short-circuit:
// vital domains, level and custom domains, then keywords in the URL.
// Input that does not parse as an absolute URL is matched as a raw string.
func (c *Classifier) CheckURL(rawURL string, level model.ProtectionLevel, customDomains []string, vital bool) Result {
	host, ok := hostOf(rawURL)
	if !ok {
		return c.checkRaw(rawURL, level, customDomains, vital)
	}

	if vital {
		for _, d := range c.lat.VitalDomains() {
			if containsEither(host, d) {
				return Result{
					Blocked: true,
					Reason:  "Content blocked by Vital Protection (Adult/X-Twitter Restriction)",
					Stage:   StageVital,
				}
			}
		}
	}

	for _, d := range c.domains(level, customDomains) {
		if containsEither(host, d) {
			return Result{
				Blocked: true,
				Reason:  fmt.Sprintf("Domain %q is blocked at %s protection level", d, level),
				Stage:   StageDomain,
			}
		}
	}

	if level != model.LevelOff || vital {
		lower := strings.ToLower(rawURL)
		for _, k := range c.keywords(level, vital) {
			if strings.Contains(lower, k) {
				return Result{
					Blocked:        true,
					Reason:         fmt.Sprintf("URL contains blocked keyword: %q", k),
					MatchedKeyword: k,
					Stage:          StageKeyword,
				}
			}
		}
	}

	return Result{}
}

// CheckKeywords scans text for the level's keywords plus custom ones.
// With vital on and level off the light keywords act as a floor.
func (c *Classifier) CheckKeywords(text string, level model.ProtectionLevel, customKeywords []string, vital bool) Result {
	lower := strings.ToLower(text)

	terms := c.keywords(level, vital)
	for _, k := range terms {
		if strings.Contains(lower, k) {
			return keywordHit(k)
		}
	}
	for _, k := range customKeywords {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(k)) {
			return keywordHit(k)
		}
	}
	return Result{}
}

func keywordHit(k string) Result {
	return Result{
		Blocked:        true,
		Reason:         fmt.Sprintf("Content contains blocked keyword: %q", k),
		MatchedKeyword: k,
		Stage:          StageKeyword,
	}
}

// checkRaw is the fallback for input that is not an absolute URL.
func (c *Classifier) checkRaw(raw string, level model.ProtectionLevel, customDomains []string, vital bool) Result {
	lower := strings.ToLower(raw)

	if vital {
		for _, d := range c.lat.VitalDomains() {
			if strings.Contains(lower, d) {
				return Result{
					Blocked: true,
					Reason:  fmt.Sprintf("Vital Protection: Blocked domain %q detected", d),
					Stage:   StageFallback,
				}
			}
		}
	}

	for _, d := range c.domains(level, customDomains) {
		if strings.Contains(lower, d) {
			return Result{
				Blocked: true,
				Reason:  fmt.Sprintf("Text contains blocked domain: %q", d),
				Stage:   StageFallback,
			}
		}
	}

	return Result{}
}

func (c *Classifier) domains(level model.ProtectionLevel, custom []string) []string {
	base := c.lat.Domains(level)
	if len(custom) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(custom))
	out = append(out, base...)
	for _, d := range custom {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (c *Classifier) keywords(level model.ProtectionLevel, vital bool) []string {
	if vital && level == model.LevelOff {
		return c.lat.Keywords(model.LevelLight)
	}
	return c.lat.Keywords(level)
}

// hostOf returns the lowercased host of an absolute URL with any leading
// "www." removed. ok is false when rawURL has no scheme or host.
func hostOf(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return strings.TrimPrefix(host, "www."), true
}

// containsEither reports whether host contains domain or domain contains host.
func containsEither(host, domain string) bool {
	return strings.Contains(host, domain) || strings.Contains(domain, host)
}

var defaultClassifier = New(nil)

// CheckURL classifies rawURL against the built-in lists.
func CheckURL(rawURL string, level model.ProtectionLevel, customDomains []string, vital bool) Result {
	return defaultClassifier.CheckURL(rawURL, level, customDomains, vital)
}

// CheckKeywords scans text against the built-in keyword lists.
func CheckKeywords(text string, level model.ProtectionLevel, customKeywords []string, vital bool) Result {
	return defaultClassifier.CheckKeywords(text, level, customKeywords, vital)
}
