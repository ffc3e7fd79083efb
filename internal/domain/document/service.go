package document

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/serein-sante/serein-server/internal/domain/access"
	"github.com/serein-sante/serein-server/internal/platform/apperr"
)

type Service struct {
	documents Repository
	evaluator *access.Evaluator
}

func NewService(documents Repository, evaluator *access.Evaluator) *Service {
	return &Service{documents: documents, evaluator: evaluator}
}

var validCategories = map[string]bool{
	"IDENTITE":      true,
	"MEDICAL":       true,
	"ADMINISTRATIF": true,
	"JURIDIQUE":     true,
	"LOGEMENT":      true,
	"EMPLOI":        true,
	"AUTRE":         true,
}

type CreateDocumentInput struct {
	PatientID     uuid.UUID `json:"patient_id"`
	Nom           string    `json:"nom"`
	Categorie     string    `json:"categorie"`
	CheminFichier string    `json:"chemin_fichier"`
	TypeMime      string    `json:"type_mime"`
	Taille        string    `json:"taille"`
	Description   *string   `json:"description"`
}

func (s *Service) CreateDocument(ctx context.Context, in *CreateDocumentInput) (*Document, error) {
	_, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessPatient(ctx, in.PatientID); err != nil {
		return nil, err
	}

	if in.Nom == "" || in.CheminFichier == "" || in.TypeMime == "" {
		return nil, apperr.Validation("nom, chemin_fichier et type_mime sont obligatoires")
	}
	if !validCategories[in.Categorie] {
		return nil, apperr.Validationf("categorie invalide: %s", in.Categorie)
	}

	d := &Document{
		PatientID:     in.PatientID,
		Nom:           in.Nom,
		Categorie:     in.Categorie,
		CheminFichier: in.CheminFichier,
		TypeMime:      in.TypeMime,
		Taille:        in.Taille,
		Description:   in.Description,
	}
	if err := s.documents.Create(ctx, d); err != nil {
		return nil, apperr.Wrap("création du document", err)
	}
	return d, nil
}

// get loads a document and runs the patient visibility check for the
// caller. Inaccessible documents read as not found.
func (s *Service) get(ctx context.Context, policy access.VisibilityPolicy, id uuid.UUID) (*Document, error) {
	d, err := s.documents.Get(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("document non trouvé")
	}
	if err != nil {
		return nil, apperr.Wrap("lecture du document", err)
	}
	if err := policy.CanAccessPatient(ctx, d.PatientID); err != nil {
		return nil, apperr.NotFound("document non trouvé")
	}
	return d, nil
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	_, policy, err := s.evaluator.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, policy, id)
}

// DocumentUpdate is a partial update: nil means leave unchanged.
type DocumentUpdate struct {
	Nom         *string `json:"nom"`
	Categorie   *string `json:"categorie"`
	Description *string `json:"description"`
}

func (s *Service) UpdateDocument(ctx context.Context, id uuid.UUID, upd *DocumentUpdate) (*Document, error) {
	_, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.get(ctx, policy, id)
	if err != nil {
		return nil, err
	}

	if upd.Nom != nil {
		if *upd.Nom == "" {
			return nil, apperr.Validation("nom ne peut pas être vide")
		}
		d.Nom = *upd.Nom
	}
	if upd.Categorie != nil {
		if !validCategories[*upd.Categorie] {
			return nil, apperr.Validationf("categorie invalide: %s", *upd.Categorie)
		}
		d.Categorie = *upd.Categorie
	}
	if upd.Description != nil {
		d.Description = upd.Description
	}

	if err := s.documents.Update(ctx, d); err != nil {
		return nil, apperr.Wrap("mise à jour du document", err)
	}
	return d, nil
}

func (s *Service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	_, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return err
	}
	if _, err := s.get(ctx, policy, id); err != nil {
		return err
	}
	deleted, err := s.documents.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap("suppression du document", err)
	}
	if !deleted {
		return apperr.NotFound("document non trouvé")
	}
	return nil
}

// ListByPatient returns a patient's documents, newest first, after the
// visibility check.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Document, error) {
	_, policy, err := s.evaluator.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessPatient(ctx, patientID); err != nil {
		return nil, err
	}
	items, err := s.documents.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Wrap("liste des documents", err)
	}
	return items, nil
}
