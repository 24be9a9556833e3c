package domain

import "errors"

// Category classifies the kind of threat a verdict describes.
type Category string

const (
	CategoryNone                  Category = "none"
	CategoryInsecureConnection    Category = "insecure_connection"
	CategorySuspiciousDomain      Category = "suspicious_domain"
	CategoryPhishingTyposquatting Category = "phishing_typosquatting"
	CategoryPhishingKeywords      Category = "phishing_keywords"
	CategoryVisionDetected        Category = "vision_detected"
	CategoryOther                 Category = "other"
)

// ActionPopupOpened is recorded in Verdict.ActionTaken when the oracle raised an alert.
const ActionPopupOpened = "popup_opened"

var (
	ErrEmptyResponse   = errors.New("oracle response carried neither actions nor text")
	ErrNoPayload       = errors.New("no structured payload in oracle text")
	ErrUnparseable     = errors.New("oracle text carried no parseable report and no action")
	ErrInvalidSeverity = errors.New("severity must be between 0 and 100")
)

// ParseCategory maps a free-form label onto a known category.
// Unknown labels map to CategoryOther, empty labels to CategoryNone.
func ParseCategory(s string) Category {
	switch c := Category(s); c {
	case CategoryNone, CategoryInsecureConnection, CategorySuspiciousDomain,
		CategoryPhishingTyposquatting, CategoryPhishingKeywords, CategoryVisionDetected:
		return c
	case "":
		return CategoryNone
	}
	return CategoryOther
}

// Verdict is the normalized outcome of classifying one sample.
type Verdict struct {
	ThreatDetected bool     `json:"threat_detected"`
	Category       Category `json:"category"`
	ThreatType     string   `json:"threat_type,omitempty"`
	Severity       int      `json:"severity"`
	Rationale      string   `json:"rationale"`
	UserMessage    string   `json:"user_message,omitempty"`
	ActionTaken    *string  `json:"action_taken,omitempty"`
}

// SafeVerdict returns the zero-threat verdict.
func SafeVerdict() Verdict {
	return Verdict{Category: CategoryNone}
}

// ThreatVerdict builds a positive verdict for a heuristic match.
func ThreatVerdict(c Category, severity int, rationale string) Verdict {
	v := Verdict{
		ThreatDetected: true,
		Category:       c,
		ThreatType:     string(c),
		Severity:       severity,
		Rationale:      rationale,
	}
	return v.Normalize()
}

// Normalize clamps severity and zeroes it for non-threats.
func (v Verdict) Normalize() Verdict {
	v.Severity = ClampSeverity(v.Severity)
	if !v.ThreatDetected {
		v.Severity = 0
		if v.Category == "" {
			v.Category = CategoryNone
		}
	}
	if v.ThreatDetected && (v.Category == "" || v.Category == CategoryNone) {
		v.Category = CategoryOther
	}
	return v
}

// ClampSeverity bounds s to [0, 100].
func ClampSeverity(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
