package domain

// Strength buckets a password score.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// PasswordMetadata describes a password without revealing it.
type PasswordMetadata struct {
	Length     int  `json:"length"`
	HasUpper   bool `json:"has_upper"`
	HasLower   bool `json:"has_lower"`
	HasNumbers bool `json:"has_numbers"`
	HasSpecial bool `json:"has_special"`
}

// PasswordReport is the outcome of scoring PasswordMetadata.
type PasswordReport struct {
	Strength Strength `json:"strength"`
	Score    int      `json:"score"`
	Issues   []string `json:"issues"`
}
