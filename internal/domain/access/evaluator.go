package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/serein-sante/serein-server/internal/platform/apperr"
	"github.com/serein-sante/serein-server/internal/platform/auth"
)

// Directory resolves user accounts and their role profiles. The boolean
// result distinguishes "no such row" from a storage failure.
type Directory interface {
	GetUserType(ctx context.Context, userID string) (string, bool, error)
	GetProfessionnelID(ctx context.Context, userID string) (uuid.UUID, bool, error)
	GetParticulier(ctx context.Context, userID string) (particulierID, patientID uuid.UUID, found bool, err error)
}

// LinkStore reports whether a patient↔professionnel link row exists.
type LinkStore interface {
	LinkExists(ctx context.Context, patientID, professionnelID uuid.UUID) (bool, error)
}

type Evaluator struct {
	dir   Directory
	links LinkStore
}

func NewEvaluator(dir Directory, links LinkStore) *Evaluator {
	return &Evaluator{dir: dir, links: links}
}

// Resolve derives the caller identity and its visibility policy from the
// request context. The result is re-derived on every call and never cached:
// link rows can be created or removed between requests.
func (e *Evaluator) Resolve(ctx context.Context) (*Caller, VisibilityPolicy, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return nil, nil, apperr.Unauthenticated("authentification requise")
	}

	typ, found, err := e.dir.GetUserType(ctx, userID)
	if err != nil {
		return nil, nil, apperr.Wrap("résolution de l'utilisateur", err)
	}
	if !found {
		return nil, nil, apperr.Unauthenticated("authentification requise")
	}

	switch Role(typ) {
	case RoleProfessionnel:
		id, found, err := e.dir.GetProfessionnelID(ctx, userID)
		if err != nil {
			return nil, nil, apperr.Wrap("résolution du profil professionnel", err)
		}
		if !found {
			// A professionnel account without its profile row is a
			// configuration error, not a normal-path case.
			return nil, nil, apperr.NotFound("profil professionnel introuvable")
		}
		caller := &Caller{UserID: userID, Role: RoleProfessionnel, ProfessionnelID: id}
		return caller, &professionnelPolicy{links: e.links, professionnelID: id}, nil

	case RoleParticulier:
		id, patientID, found, err := e.dir.GetParticulier(ctx, userID)
		if err != nil {
			return nil, nil, apperr.Wrap("résolution du profil particulier", err)
		}
		if !found {
			return nil, nil, apperr.NotFound("profil particulier introuvable")
		}
		caller := &Caller{UserID: userID, Role: RoleParticulier, ParticulierID: id, PatientID: patientID}
		return caller, &particulierPolicy{patientID: patientID}, nil

	default:
		return nil, nil, apperr.Forbidden("type d'utilisateur non reconnu")
	}
}

// ResolveProfessionnel resolves the caller and requires the professionnel
// role. Used by operations only case workers may perform.
func (e *Evaluator) ResolveProfessionnel(ctx context.Context) (*Caller, VisibilityPolicy, error) {
	caller, policy, err := e.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	if caller.Role != RoleProfessionnel {
		return nil, nil, apperr.Forbidden("réservé aux professionnels")
	}
	return caller, policy, nil
}
