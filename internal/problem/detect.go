package problem

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Domain names a planning domain.
type Domain string

const (
	DomainSatellite Domain = "satellite"
	DomainBlocks    Domain = "blocks"
)

// ParseDomain maps a user-supplied domain name to a Domain.
func ParseDomain(s string) (Domain, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "satellite", "sat":
		return DomainSatellite, true
	case "blocks", "blocksworld", "bw":
		return DomainBlocks, true
	}
	return "", false
}

// IsScenario reports whether path names a YAML scenario rather than a PDDL
// problem.
func IsScenario(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

var (
	satelliteKeywords = []string{"on_board", "calibration_target", "supports", "slew_time", "have_image"}
	blocksKeywords    = []string{"on-table", "ontable", "handempty"}
)

// DetectDomain guesses the domain of a PDDL problem. The ":domain" clause
// decides when it names a known domain; otherwise predicate keywords do.
func DetectDomain(content []byte) (Domain, error) {
	if doc, err := parseSexpr(bytes.NewReader(content)); err == nil {
		if d := doc.find(":domain"); d != nil {
			if w := d.words(); len(w) > 1 {
				name := w[1]
				switch {
				case strings.Contains(name, "sat"):
					return DomainSatellite, nil
				case strings.Contains(name, "block"):
					return DomainBlocks, nil
				}
			}
		}
	}

	lower := strings.ToLower(string(content))
	for _, k := range satelliteKeywords {
		if strings.Contains(lower, k) {
			return DomainSatellite, nil
		}
	}
	for _, k := range blocksKeywords {
		if strings.Contains(lower, k) {
			return DomainBlocks, nil
		}
	}
	return "", ErrUnknownDomain
}
