package domain

import "time"

// PetReport is a point-in-time summary of the pet and its recent history.
type PetReport struct {
	ID          string        `json:"id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Pet         PetSnapshot   `json:"pet"`
	Monitor     MonitorStatus `json:"monitor"`
	Events      []Event       `json:"events"`
}
