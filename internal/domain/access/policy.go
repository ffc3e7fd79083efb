// Package access decides what the authenticated caller may see. Every
// patient-scoped operation goes through a VisibilityPolicy instead of
// re-deriving role logic inline.
package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/serein-sante/serein-server/internal/platform/apperr"
)

// Role is the account type stored on app_user.
type Role string

const (
	RoleProfessionnel Role = "PROFESSIONNEL"
	RoleParticulier   Role = "PARTICULIER"
)

// Caller is the resolved identity of the requesting user.
type Caller struct {
	UserID          string
	Role            Role
	ProfessionnelID uuid.UUID // set when Role == RoleProfessionnel
	ParticulierID   uuid.UUID // set when Role == RoleParticulier
	PatientID       uuid.UUID // the particulier's own patient
}

// VisibilityPolicy reports whether the caller may operate on a patient.
// A nil return means allowed.
type VisibilityPolicy interface {
	CanAccessPatient(ctx context.Context, patientID uuid.UUID) error
}

// professionnelPolicy allows access when a patient↔professionnel link row
// exists. The message deliberately conflates "does not exist" with "not
// visible to you" so callers cannot probe for dossier existence.
type professionnelPolicy struct {
	links           LinkStore
	professionnelID uuid.UUID
}

func (p *professionnelPolicy) CanAccessPatient(ctx context.Context, patientID uuid.UUID) error {
	ok, err := p.links.LinkExists(ctx, patientID, p.professionnelID)
	if err != nil {
		return apperr.Wrap("vérification du lien patient", err)
	}
	if !ok {
		return apperr.Forbidden("patient introuvable ou non autorisé")
	}
	return nil
}

// particulierPolicy allows access to the caller's own patient only.
type particulierPolicy struct {
	patientID uuid.UUID
}

func (p *particulierPolicy) CanAccessPatient(_ context.Context, patientID uuid.UUID) error {
	if patientID != p.patientID {
		return apperr.Forbidden("patient introuvable ou non autorisé")
	}
	return nil
}
