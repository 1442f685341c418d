package denylist

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ppiankov/contentguard/internal/model"
)

// OpenDNS FamilyShield resolvers. Pointing the system resolver at these
// adds a network-level adult filter underneath the engine.
const (
	FamilyShieldPrimary   = "208.67.222.123"
	FamilyShieldSecondary = "208.67.220.123"
)

// Export formats.
const (
	FormatPlain   = "plain"
	FormatHosts   = "hosts"
	FormatDnsmasq = "dnsmasq"
)

// Effective returns the sorted, de-duplicated set of domains a DNS-level
// blocker should sink for the given settings: level ∪ custom ∪ vital.
func (l *Lattice) Effective(level model.ProtectionLevel, custom []string, vital bool) []string {
	seen := make(map[string]struct{})
	add := func(list []string) {
		for _, d := range list {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			seen[d] = struct{}{}
		}
	}

	add(l.Domains(level))
	add(custom)
	if vital {
		add(l.VitalDomains())
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Export writes domains in the requested format, one per line.
func Export(w io.Writer, domains []string, format string) error {
	var line func(string) string
	switch format {
	case FormatPlain, "":
		line = func(d string) string { return d }
	case FormatHosts:
		line = func(d string) string { return "0.0.0.0 " + d }
	case FormatDnsmasq:
		line = func(d string) string { return "address=/" + d + "/" }
	default:
		return fmt.Errorf("denylist: unknown export format %q (want plain, hosts or dnsmasq)", format)
	}

	bw := bufio.NewWriter(w)
	for _, d := range domains {
		if _, err := bw.WriteString(line(d) + "\n"); err != nil {
			return fmt.Errorf("denylist: export: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("denylist: export: %w", err)
	}
	return nil
}
