package account

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	SetUserType(ctx context.Context, id string, typ string) error

	CreateProfessionnel(ctx context.Context, p *Professionnel) error
	GetProfessionnelByID(ctx context.Context, id uuid.UUID) (*Professionnel, error)
	GetProfessionnelByUserID(ctx context.Context, userID string) (*Professionnel, error)

	CreateParticulier(ctx context.Context, p *Particulier) error
	GetParticulierByUserID(ctx context.Context, userID string) (*Particulier, error)
	GetParticulierByPatientID(ctx context.Context, patientID uuid.UUID) (*Particulier, error)
}
