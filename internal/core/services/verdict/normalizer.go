// Package verdict turns raw oracle responses into normalized verdicts.
package verdict

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
)

const (
	defaultThreatType = "unknown"
	defaultSeverity   = 50
	maxRationaleRunes = 200
)

// Normalize interprets an oracle response. It never fails on malformed
// content: unparseable text yields a no-threat verdict (or, when an alert
// action was invoked, the action's verdict with the raw text as rationale).
// Errors are informational and always come with a safe verdict:
// domain.ErrEmptyResponse when the response carried nothing at all, and
// domain.ErrUnparseable when there was no action and the text held no report.
func Normalize(resp domain.OracleResponse) (domain.Verdict, error) {
	v := domain.SafeVerdict()
	if resp.Empty() {
		return v, domain.ErrEmptyResponse
	}

	action := firstAlert(resp.Actions)
	if action != nil {
		taken := domain.ActionPopupOpened
		v.ThreatDetected = true
		v.Category = domain.CategoryVisionDetected
		v.ThreatType = stringField(action.Args, "threat_type", defaultThreatType)
		v.Severity = intField(action.Args, defaultSeverity, "severity")
		v.ActionTaken = &taken
	}

	text := strings.TrimSpace(strings.Join(resp.Text, " "))
	if text == "" {
		return v.Normalize(), nil
	}

	p, err := parsePayload(text)
	if err != nil {
		if action == nil {
			return v.Normalize(), domain.ErrUnparseable
		}
		v.Rationale = truncateRunes(text, maxRationaleRunes)
		return v.Normalize(), nil
	}

	p.overlay(&v, action != nil)
	return v.Normalize(), nil
}

// payload is the structured report embedded in oracle text.
type payload map[string]any

// parsePayload extracts and decodes the JSON object carried by text.
func parsePayload(text string) (payload, error) {
	candidate := extractCandidate(text)
	if candidate == "" {
		return nil, domain.ErrNoPayload
	}

	var p payload
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNoPayload
	}
	return p, nil
}

// overlay copies parsed fields onto v. Parsed fields win except that
// ActionTaken is never touched, and ThreatDetected stays true when an
// alert action was invoked.
func (p payload) overlay(v *domain.Verdict, actionInvoked bool) {
	if detected, ok := p["threat_detected"].(bool); ok && !actionInvoked {
		v.ThreatDetected = detected
		if detected {
			v.Category = domain.CategoryVisionDetected
		} else {
			v.Category = domain.CategoryNone
		}
	}
	if tt := stringField(p, "threat_type", ""); tt != "" {
		v.ThreatType = tt
	}
	if _, ok := numberField(p, "confidence", "severity"); ok {
		v.Severity = intField(p, v.Severity, "confidence", "severity")
	}
	if r := stringField(p, "explanation", ""); r != "" {
		v.Rationale = r
	} else if r := stringField(p, "rationale", ""); r != "" {
		v.Rationale = r
	}
	if m := stringField(p, "user_friendly_message", ""); m != "" {
		v.UserMessage = m
	}
	if v.ThreatDetected && v.ThreatType == "" {
		v.ThreatType = defaultThreatType
	}
}

// extractCandidate prefers a ```json fenced block, then any ``` fence,
// then the whole text.
func extractCandidate(text string) string {
	if body, ok := fenced(text, "```json"); ok {
		return body
	}
	if body, ok := fenced(text, "```"); ok {
		return body
	}
	return strings.TrimSpace(text)
}

// fenced returns the content after the opening marker up to the next fence,
// or to the end of text when the fence is never closed.
func fenced(text, open string) (string, bool) {
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

func firstAlert(actions []domain.InvokedAction) *domain.InvokedAction {
	for i := range actions {
		if actions[i].IsAlert() {
			return &actions[i]
		}
	}
	return nil
}

func stringField(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// intField reads the first numeric value among keys, clamped to a severity
// and rounded. NaN falls back.
func intField(m map[string]any, fallback int, keys ...string) int {
	f, ok := numberField(m, keys...)
	if !ok || math.IsNaN(f) {
		return fallback
	}
	return int(math.Round(math.Min(math.Max(f, 0), 100)))
}

func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch n := m[key].(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int32:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
