package document

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	Get(ctx context.Context, id uuid.UUID) (*Document, error)
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Document, error)
}
