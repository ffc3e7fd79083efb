package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/serein-sante/serein-server/internal/domain/access"
	"github.com/serein-sante/serein-server/internal/platform/apperr"
	"github.com/serein-sante/serein-server/internal/platform/auth"
)

type Service struct {
	accounts  Repository
	evaluator *access.Evaluator
}

func NewService(accounts Repository, evaluator *access.Evaluator) *Service {
	return &Service{accounts: accounts, evaluator: evaluator}
}

var validUserTypes = map[string]bool{
	string(access.RoleProfessionnel): true,
	string(access.RoleParticulier):   true,
}

// GetMe returns the caller's account and role profile. Works for accounts
// whose type is not set yet, since the front-end needs it to drive
// onboarding.
func (s *Service) GetMe(ctx context.Context) (*Me, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return nil, apperr.Unauthenticated("authentification requise")
	}

	u, err := s.accounts.GetUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Unauthenticated("authentification requise")
	}
	if err != nil {
		return nil, apperr.Wrap("lecture de l'utilisateur", err)
	}

	me := &Me{User: u}
	if u.Type == nil {
		return me, nil
	}

	switch access.Role(*u.Type) {
	case access.RoleProfessionnel:
		p, err := s.accounts.GetProfessionnelByUserID(ctx, userID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Wrap("lecture du profil professionnel", err)
		}
		if err == nil {
			me.Professionnel = p
		}
	case access.RoleParticulier:
		p, err := s.accounts.GetParticulierByUserID(ctx, userID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Wrap("lecture du profil particulier", err)
		}
		if err == nil {
			me.Particulier = p
		}
	}
	return me, nil
}

// SetUserType assigns the account type once. The type drives every later
// visibility decision, so flipping it after the fact is not allowed.
func (s *Service) SetUserType(ctx context.Context, typ string) error {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return apperr.Unauthenticated("authentification requise")
	}
	if !validUserTypes[typ] {
		return apperr.Validationf("type d'utilisateur invalide: %s", typ)
	}

	u, err := s.accounts.GetUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Unauthenticated("authentification requise")
	}
	if err != nil {
		return apperr.Wrap("lecture de l'utilisateur", err)
	}
	if u.Type != nil {
		return apperr.Conflict("le type du compte est déjà défini")
	}

	if err := s.accounts.SetUserType(ctx, userID, typ); err != nil {
		return apperr.Wrap("mise à jour du type d'utilisateur", err)
	}
	return nil
}

// CreateProfessionnel creates the caller's own professional profile.
func (s *Service) CreateProfessionnel(ctx context.Context, p *Professionnel) error {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return apperr.Unauthenticated("authentification requise")
	}
	if p.Nom == "" || p.Prenom == "" || p.Fonction == "" {
		return apperr.Validation("nom, prenom et fonction sont obligatoires")
	}

	u, err := s.accounts.GetUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Unauthenticated("authentification requise")
	}
	if err != nil {
		return apperr.Wrap("lecture de l'utilisateur", err)
	}
	if u.Type == nil || access.Role(*u.Type) != access.RoleProfessionnel {
		return apperr.Forbidden("le compte n'est pas de type professionnel")
	}

	if _, err := s.accounts.GetProfessionnelByUserID(ctx, userID); err == nil {
		return apperr.Conflict("profil professionnel déjà créé")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap("lecture du profil professionnel", err)
	}

	p.UserID = userID
	if err := s.accounts.CreateProfessionnel(ctx, p); err != nil {
		return apperr.Wrap("création du profil professionnel", err)
	}
	return nil
}

// CreateParticulier binds a user account to one of the caller's patients.
// The binding is permanent: neither side can be re-bound later.
func (s *Service) CreateParticulier(ctx context.Context, userID string, patientID uuid.UUID) (*Particulier, error) {
	_, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessPatient(ctx, patientID); err != nil {
		return nil, err
	}

	u, err := s.accounts.GetUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("utilisateur introuvable")
	}
	if err != nil {
		return nil, apperr.Wrap("lecture de l'utilisateur", err)
	}
	if u.Type != nil && access.Role(*u.Type) != access.RoleParticulier {
		return nil, apperr.Conflict("le compte n'est pas de type particulier")
	}

	if _, err := s.accounts.GetParticulierByUserID(ctx, userID); err == nil {
		return nil, apperr.Conflict("ce compte est déjà lié à un patient")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap("lecture du profil particulier", err)
	}
	if _, err := s.accounts.GetParticulierByPatientID(ctx, patientID); err == nil {
		return nil, apperr.Conflict("ce patient est déjà lié à un compte")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap("lecture du profil particulier", err)
	}

	if u.Type == nil {
		if err := s.accounts.SetUserType(ctx, userID, string(access.RoleParticulier)); err != nil {
			return nil, apperr.Wrap("mise à jour du type d'utilisateur", err)
		}
	}

	p := &Particulier{UserID: userID, PatientID: patientID}
	if err := s.accounts.CreateParticulier(ctx, p); err != nil {
		return nil, apperr.Wrap("création du profil particulier", err)
	}
	return p, nil
}
