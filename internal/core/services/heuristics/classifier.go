package heuristics

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/agnivade/levenshtein"
	edlib "github.com/hbollon/go-edlib"
	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

const (
	severityInsecure   = 40
	severitySuspicious = 65
	severityTyposquat  = 90
	severityKeywords   = 75

	typosquatMinRatio = 0.75
	minKeywordHits    = 2
)

// Classifier scores URLs and password metadata. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	rules Rules
}

// NewClassifier builds a classifier over the given rules.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules.normalized()}
}

// ClassifyURL applies the URL rules in order; the first match wins.
func (c *Classifier) ClassifyURL(raw string) domain.Verdict {
	scheme, host := splitURL(raw)
	lowered := strings.ToLower(raw)

	if scheme == "http" && !isLoopback(host) {
		return domain.ThreatVerdict(domain.CategoryInsecureConnection, severityInsecure,
			"Connection is not encrypted (HTTP instead of HTTPS)")
	}

	for _, tld := range c.rules.SuspiciousTLDs {
		if host != "" && strings.HasSuffix(host, tld) {
			return domain.ThreatVerdict(domain.CategorySuspiciousDomain, severitySuspicious,
				fmt.Sprintf("Domain uses suspicious TLD: %s", tld))
		}
	}

	if host != "" {
		for _, legit := range c.rules.LegitimateDomains {
			if r := Similarity(host, legit); r > typosquatMinRatio && r < 1.0 {
				return domain.ThreatVerdict(domain.CategoryPhishingTyposquatting, severityTyposquat,
					fmt.Sprintf("Domain %q looks like %q (possible typosquatting, %d edits away)",
						host, legit, levenshtein.ComputeDistance(host, legit)))
			}
		}
	}

	var hits []string
	for _, kw := range c.rules.PhishingKeywords {
		if strings.Contains(lowered, kw) {
			hits = append(hits, kw)
		}
	}
	if len(hits) >= minKeywordHits {
		return domain.ThreatVerdict(domain.CategoryPhishingKeywords, severityKeywords,
			fmt.Sprintf("URL contains phishing keywords: %s", strings.Join(hits, ", ")))
	}

	return domain.SafeVerdict()
}

// Similarity is the indel ratio of a and b in [0, 1]: 2*LCS/(len(a)+len(b)).
func Similarity(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1.0
	}
	return float64(2*edlib.LCS(a, b)) / float64(total)
}

// splitURL returns the lower-cased scheme and host with any leading "www."
// removed. Unparseable input still yields the literal scheme prefix but no
// host.
func splitURL(raw string) (scheme, host string) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		if prefix, _, ok := strings.Cut(raw, "://"); ok {
			scheme = strings.ToLower(prefix)
		}
		return scheme, ""
	}
	host = strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return strings.ToLower(u.Scheme), host
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
