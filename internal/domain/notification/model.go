package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is addressed to exactly one professional or one patient;
// both columns are nullable but every creation path populates one.
type Notification struct {
	ID              uuid.UUID  `json:"id"`
	ProfessionnelID *uuid.UUID `json:"professionnel_id,omitempty"`
	PatientID       *uuid.UUID `json:"patient_id,omitempty"`
	Type            string     `json:"type"`
	Titre           string     `json:"titre"`
	Message         string     `json:"message"`
	Lue             bool       `json:"lue"`
	Lien            *string    `json:"lien,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
