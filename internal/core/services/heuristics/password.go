package heuristics

import "github.com/lcalzada-xor/cyberpet/internal/core/domain"

const (
	minPasswordLength         = 8
	recommendedPasswordLength = 12

	weakScore   = 60
	mediumScore = 30
)

// ScorePassword rates password metadata; higher scores are worse.
func (c *Classifier) ScorePassword(meta domain.PasswordMetadata) domain.PasswordReport {
	score := 0
	issues := []string{}

	switch {
	case meta.Length < minPasswordLength:
		score += 50
		issues = append(issues, "Password too short (minimum 8 characters)")
	case meta.Length < recommendedPasswordLength:
		score += 20
		issues = append(issues, "Password should be at least 12 characters")
	}

	checks := []struct {
		ok    bool
		issue string
	}{
		{meta.HasUpper, "Missing uppercase letters"},
		{meta.HasLower, "Missing lowercase letters"},
		{meta.HasNumbers, "Missing numbers"},
		{meta.HasSpecial, "Missing special characters"},
	}
	for _, chk := range checks {
		if !chk.ok {
			score += 15
			issues = append(issues, chk.issue)
		}
	}

	score = min(score, 100)

	strength := domain.StrengthStrong
	switch {
	case score >= weakScore:
		strength = domain.StrengthWeak
	case score >= mediumScore:
		strength = domain.StrengthMedium
	}

	return domain.PasswordReport{Strength: strength, Score: score, Issues: issues}
}
