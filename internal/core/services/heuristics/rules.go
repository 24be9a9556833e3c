package heuristics

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules holds the data the URL classifier matches against.
type Rules struct {
	SuspiciousTLDs    []string `yaml:"suspicious_tlds"`
	LegitimateDomains []string `yaml:"legitimate_domains"`
	PhishingKeywords  []string `yaml:"phishing_keywords"`
}

// DefaultRules returns the built-in lists.
func DefaultRules() Rules {
	return Rules{
		SuspiciousTLDs: []string{".xyz", ".tk", ".ml", ".ga", ".cf", ".gq", ".top"},
		LegitimateDomains: []string{
			"google.com", "facebook.com", "amazon.com", "paypal.com",
			"microsoft.com", "apple.com", "github.com", "linkedin.com",
		},
		PhishingKeywords: []string{
			"verify", "suspend", "account", "update", "confirm",
			"secure", "banking", "urgent", "immediately", "click-here",
		},
	}
}

// LoadRules reads rules from a YAML file. A missing path or file yields the
// defaults; lists absent from the file keep their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return rules, fmt.Errorf("read rules: %w", err)
	}

	var fromFile Rules
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return rules, fmt.Errorf("parse rules %s: %w", path, err)
	}

	if len(fromFile.SuspiciousTLDs) > 0 {
		rules.SuspiciousTLDs = fromFile.SuspiciousTLDs
	}
	if len(fromFile.LegitimateDomains) > 0 {
		rules.LegitimateDomains = fromFile.LegitimateDomains
	}
	if len(fromFile.PhishingKeywords) > 0 {
		rules.PhishingKeywords = fromFile.PhishingKeywords
	}
	return rules.normalized(), nil
}

func (r Rules) normalized() Rules {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return Rules{
		SuspiciousTLDs:    lower(r.SuspiciousTLDs),
		LegitimateDomains: lower(r.LegitimateDomains),
		PhishingKeywords:  lower(r.PhishingKeywords),
	}
}
