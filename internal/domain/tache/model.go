package tache

import (
	"time"

	"github.com/google/uuid"

	"github.com/serein-sante/serein-server/internal/domain/account"
	"github.com/serein-sante/serein-server/internal/domain/patient"
)

// Tache is a follow-up action a professional tracks for a patient.
type Tache struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	ProfessionnelID uuid.UUID `json:"professionnel_id"`
	TypeDemarche    string    `json:"type_demarche"`
	Etat            string    `json:"etat"`
	Date            time.Time `json:"date"`
	Details         string    `json:"details"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TacheAvecPatient decorates a task with its patient for the
// by-professional listing.
type TacheAvecPatient struct {
	Tache
	Patient *patient.Dossier `json:"patient"`
}

// TacheAvecProfessionnel decorates a task with its professional for the
// by-patient listing.
type TacheAvecProfessionnel struct {
	Tache
	Professionnel *account.Professionnel `json:"professionnel"`
}
