package detector

import (
	"net"
	"net/url"
	"strings"

	"CredibilityScanner/internal/domain"
)

const (
	StatusUnknown    = "Unknown"
	StatusInvalid    = "Invalid URL"
	StatusTrusted    = "Trusted Source"
	StatusSuspicious = "Suspicious/Satire"
	StatusUnverified = "Unverified Source"
)

// Source rates the origin domain against allow and deny lists.
type Source struct {
	trusted    []string
	suspicious []string
}

// NewSource lowercases both domain lists.
func NewSource(lex Lexicon) *Source {
	return &Source{
		trusted:    lowerAll(lex.TrustedDomains),
		suspicious: lowerAll(lex.SuspiciousDomains),
	}
}

// Verify extracts the domain and suffix-matches it. The trusted list wins
// when a domain appears on both.
func (s *Source) Verify(rawURL string) domain.SourceResult {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return domain.SourceResult{Score: 50, Status: StatusUnknown}
	}

	host, ok := ExtractDomain(rawURL)
	if !ok {
		return domain.SourceResult{Score: 50, Status: StatusInvalid}
	}

	switch {
	case hasSuffixAny(host, s.trusted):
		return domain.SourceResult{Score: 100, Status: StatusTrusted, Domain: host}
	case hasSuffixAny(host, s.suspicious):
		return domain.SourceResult{Score: 0, Status: StatusSuspicious, Domain: host}
	default:
		return domain.SourceResult{Score: 50, Status: StatusUnverified, Domain: host}
	}
}

// ExtractDomain returns the lowercased host without port and leading "www.".
func ExtractDomain(rawURL string) (string, bool) {
	candidate := rawURL
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	host := u.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", false
	}
	return host, true
}

func hasSuffixAny(host string, list []string) bool {
	for _, d := range list {
		if strings.HasSuffix(host, d) {
			return true
		}
	}
	return false
}

func lowerAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
