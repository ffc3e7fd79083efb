package tache

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface of the task domain.
type Repository interface {
	Create(ctx context.Context, t *Tache) error
	Get(ctx context.Context, id uuid.UUID) (*Tache, error)
	Update(ctx context.Context, t *Tache) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ListByProfessionnel returns the professional's tasks, most recent
	// date first, each decorated with its patient dossier.
	ListByProfessionnel(ctx context.Context, professionnelID uuid.UUID, limit, offset int) ([]*TacheAvecPatient, int, error)
	// ListByPatient returns a patient's tasks across all professionals,
	// most recent date first, each decorated with its professional.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TacheAvecProfessionnel, error)

	CountOpenByPatientAndProfessionnel(ctx context.Context, patientID, professionnelID uuid.UUID) (int, error)
	DeleteByPatientAndProfessionnel(ctx context.Context, patientID, professionnelID uuid.UUID) (int, error)
}
