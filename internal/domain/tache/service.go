package tache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/serein-sante/serein-server/internal/domain/access"
	"github.com/serein-sante/serein-server/internal/platform/apperr"
)

type Service struct {
	taches    Repository
	evaluator *access.Evaluator
}

func NewService(taches Repository, evaluator *access.Evaluator) *Service {
	return &Service{taches: taches, evaluator: evaluator}
}

var validTypesDemarche = map[string]bool{
	"ADMINISTRATIVE": true,
	"MEDICALE":       true,
	"SOCIALE":        true,
	"JURIDIQUE":      true,
	"LOGEMENT":       true,
	"EMPLOI":         true,
	"AUTRE":          true,
}

// Task states form a closed set but no transition graph: any state may be
// set to any other.
var validEtatsTache = map[string]bool{
	"A_FAIRE":  true,
	"EN_COURS": true,
	"TERMINEE": true,
	"ANNULEE":  true,
}

const EtatInitial = "A_FAIRE"

type CreateTacheInput struct {
	PatientID    uuid.UUID `json:"patient_id"`
	TypeDemarche string    `json:"type_demarche"`
	Etat         string    `json:"etat"`
	Date         time.Time `json:"date"`
	Details      string    `json:"details"`
}

// CreateTache records a task for the caller professional on a patient of
// their list.
func (s *Service) CreateTache(ctx context.Context, in *CreateTacheInput) (*Tache, error) {
	caller, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessPatient(ctx, in.PatientID); err != nil {
		return nil, err
	}

	if !validTypesDemarche[in.TypeDemarche] {
		return nil, apperr.Validationf("type_demarche invalide: %s", in.TypeDemarche)
	}
	etat := in.Etat
	if etat == "" {
		etat = EtatInitial
	}
	if !validEtatsTache[etat] {
		return nil, apperr.Validationf("etat invalide: %s", in.Etat)
	}
	if in.Date.IsZero() {
		return nil, apperr.Validation("date est obligatoire")
	}

	t := &Tache{
		PatientID:       in.PatientID,
		ProfessionnelID: caller.ProfessionnelID,
		TypeDemarche:    in.TypeDemarche,
		Etat:            etat,
		Date:            in.Date,
		Details:         in.Details,
	}
	if err := s.taches.Create(ctx, t); err != nil {
		return nil, apperr.Wrap("création de la tâche", err)
	}
	return t, nil
}

// getOwned loads a task and checks the caller professional owns it. A task
// owned by someone else reads as not found.
func (s *Service) getOwned(ctx context.Context, caller *access.Caller, id uuid.UUID) (*Tache, error) {
	t, err := s.taches.Get(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("tâche non trouvée")
	}
	if err != nil {
		return nil, apperr.Wrap("lecture de la tâche", err)
	}
	if t.ProfessionnelID != caller.ProfessionnelID {
		return nil, apperr.NotFound("tâche non trouvée")
	}
	return t, nil
}

func (s *Service) GetTache(ctx context.Context, id uuid.UUID) (*Tache, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	return s.getOwned(ctx, caller, id)
}

// TacheUpdate is a partial update: nil means leave unchanged.
type TacheUpdate struct {
	TypeDemarche *string    `json:"type_demarche"`
	Etat         *string    `json:"etat"`
	Date         *time.Time `json:"date"`
	Details      *string    `json:"details"`
}

func (s *Service) UpdateTache(ctx context.Context, id uuid.UUID, upd *TacheUpdate) (*Tache, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.getOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if upd.TypeDemarche != nil {
		if !validTypesDemarche[*upd.TypeDemarche] {
			return nil, apperr.Validationf("type_demarche invalide: %s", *upd.TypeDemarche)
		}
		t.TypeDemarche = *upd.TypeDemarche
	}
	if upd.Etat != nil {
		if !validEtatsTache[*upd.Etat] {
			return nil, apperr.Validationf("etat invalide: %s", *upd.Etat)
		}
		t.Etat = *upd.Etat
	}
	if upd.Date != nil {
		t.Date = *upd.Date
	}
	if upd.Details != nil {
		t.Details = *upd.Details
	}

	if err := s.taches.Update(ctx, t); err != nil {
		return nil, apperr.Wrap("mise à jour de la tâche", err)
	}
	return t, nil
}

func (s *Service) DeleteTache(ctx context.Context, id uuid.UUID) error {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return err
	}
	if _, err := s.getOwned(ctx, caller, id); err != nil {
		return err
	}
	deleted, err := s.taches.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap("suppression de la tâche", err)
	}
	if !deleted {
		return apperr.NotFound("tâche non trouvée")
	}
	return nil
}

// ListByProfessionnel returns the caller professional's tasks, most recent
// first, each with its patient dossier.
func (s *Service) ListByProfessionnel(ctx context.Context, limit, offset int) ([]*TacheAvecPatient, int, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.taches.ListByProfessionnel(ctx, caller.ProfessionnelID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap("liste des tâches", err)
	}
	return items, total, nil
}

// ListByPatient returns a patient's tasks across all professionals. The
// visibility check runs first, so a particulier only reaches their own
// patient and a professional only a linked one.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TacheAvecProfessionnel, error) {
	_, policy, err := s.evaluator.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessPatient(ctx, patientID); err != nil {
		return nil, err
	}
	items, err := s.taches.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Wrap("liste des tâches du patient", err)
	}
	return items, nil
}
