package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoodFor(t *testing.T) {
	tests := []struct {
		health float64
		want   Mood
	}{
		{100, MoodHappy},
		{80.1, MoodHappy},
		{80, MoodConcerned},
		{50.1, MoodConcerned},
		{50, MoodSick},
		{20.1, MoodSick},
		{20, MoodCritical},
		{0, MoodCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MoodFor(tt.health), "health %v", tt.health)
	}
}

func TestVerdict_Normalize(t *testing.T) {
	v := Verdict{ThreatDetected: false, Severity: 70}.Normalize()
	assert.Equal(t, 0, v.Severity)
	assert.Equal(t, CategoryNone, v.Category)

	v = Verdict{ThreatDetected: true, Severity: 180}.Normalize()
	assert.Equal(t, 100, v.Severity)
	assert.Equal(t, CategoryOther, v.Category)

	v = Verdict{ThreatDetected: true, Severity: -4, Category: CategoryPhishingKeywords}.Normalize()
	assert.Equal(t, 0, v.Severity)
	assert.Equal(t, CategoryPhishingKeywords, v.Category)
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategorySuspiciousDomain, ParseCategory("suspicious_domain"))
	assert.Equal(t, CategoryNone, ParseCategory(""))
	assert.Equal(t, CategoryOther, ParseCategory("malware_download"))
}

func TestPetState_Sanitize(t *testing.T) {
	history := make([]Event, 75)
	for i := range history {
		history[i] = Event{Severity: i}
	}

	s := PetState{Health: -3, EvolutionStage: 0, Points: 10, Streak: -1, EventHistory: history}.Sanitize()
	assert.Equal(t, 0.0, s.Health)
	assert.Equal(t, 1, s.EvolutionStage)
	assert.Equal(t, 0, s.Streak)
	require.Len(t, s.EventHistory, MaxHistory)
	assert.Equal(t, 25, s.EventHistory[0].Severity)

	assert.NotNil(t, PetState{Health: 50, EvolutionStage: 2}.Sanitize().EventHistory)
}

func TestSecurityEvent_Validate(t *testing.T) {
	assert.NoError(t, SecurityEvent{Type: "phishing", Severity: 60}.Validate())
	assert.ErrorIs(t, SecurityEvent{Severity: 101}.Validate(), ErrInvalidSeverity)
	assert.ErrorIs(t, SecurityEvent{Severity: -1}.Validate(), ErrInvalidSeverity)
}

func TestNewAuditLog(t *testing.T) {
	entry, err := NewAuditLog("system", "system", ActionPetReset, "pet", "", "")
	require.NoError(t, err)
	assert.Equal(t, ActionPetReset, entry.Action)
	assert.False(t, entry.Timestamp.IsZero())

	_, err = NewAuditLog("", "", ActionPetReset, "pet", "", "")
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = NewAuditLog("u1", "", AuditAction("DELETE_EVERYTHING"), "pet", "", "")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{ID: "admin", Username: "admin", IP: "10.0.0.1"})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", p.IP)
}
