package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateIdentite(ctx context.Context, i *InformationIdentite) error
	GetIdentite(ctx context.Context, id uuid.UUID) (*InformationIdentite, error)
	UpdateIdentite(ctx context.Context, i *InformationIdentite) error

	CreateCoordonnee(ctx context.Context, co *InformationCoordonnee) error
	GetCoordonnee(ctx context.Context, id uuid.UUID) (*InformationCoordonnee, error)
	UpdateCoordonnee(ctx context.Context, co *InformationCoordonnee) error

	CreatePatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByNumeroDossier(ctx context.Context, numero string) (*Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error

	GetDossier(ctx context.Context, id uuid.UUID) (*Dossier, error)
	ListDossiersByProfessionnel(ctx context.Context, professionnelID uuid.UUID, limit, offset int) ([]*Dossier, int, error)
	SearchByInfo(ctx context.Context, crit SearchCriteria) ([]*Dossier, error)

	CreateLink(ctx context.Context, patientID, professionnelID uuid.UUID) (*Lien, error)
	LinkExists(ctx context.Context, patientID, professionnelID uuid.UUID) (bool, error)
	// LockLink locks the link row for the rest of the transaction so that
	// concurrent removals of the same link are serialized.
	LockLink(ctx context.Context, patientID, professionnelID uuid.UUID) (bool, error)
	DeleteLink(ctx context.Context, patientID, professionnelID uuid.UUID) (bool, error)

	// DeleteDossierCascade removes a patient and everything hanging off it,
	// children before parents. Must run inside a transaction.
	DeleteDossierCascade(ctx context.Context, patientID uuid.UUID) error
}

// TaskStore is the slice of the task domain the removal flow needs.
type TaskStore interface {
	CountOpenByPatientAndProfessionnel(ctx context.Context, patientID, professionnelID uuid.UUID) (int, error)
	DeleteByPatientAndProfessionnel(ctx context.Context, patientID, professionnelID uuid.UUID) (int, error)
}

// Notifier records a notification addressed to a professional.
type Notifier interface {
	NotifyProfessionnel(ctx context.Context, professionnelID uuid.UUID, typ, titre, message string, lien *string) error
}
