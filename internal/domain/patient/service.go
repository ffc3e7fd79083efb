package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/serein-sante/serein-server/internal/domain/access"
	"github.com/serein-sante/serein-server/internal/platform/apperr"
	"github.com/serein-sante/serein-server/internal/platform/db"
)

type Service struct {
	patients  Repository
	tasks     TaskStore
	notifier  Notifier
	evaluator *access.Evaluator

	// runInTx wraps multi-write operations in one transaction; overridable
	// in tests.
	runInTx func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewService(patients Repository, tasks TaskStore, notifier Notifier, evaluator *access.Evaluator) *Service {
	return &Service{
		patients:  patients,
		tasks:     tasks,
		notifier:  notifier,
		evaluator: evaluator,
		runInTx:   db.RunInTx,
	}
}

var validGenres = map[string]bool{
	"MASCULIN": true,
	"FEMININ":  true,
	"AUTRE":    true,
}

var validSituationsFamiliales = map[string]bool{
	"CELIBATAIRE": true,
	"MARIE":       true,
	"DIVORCE":     true,
	"VEUF":        true,
	"PACSE":       true,
	"CONCUBINAGE": true,
}

// dateFormat is the wire format for birth dates (ISO date, no time part).
const dateFormat = "2006-01-02"

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation. The pre-insert dossier number check is racy; the constraint is
// the authority.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IdentiteInput carries the civil-status fields of a creation request.
type IdentiteInput struct {
	NomUsage              string   `json:"nom_usage"`
	NomNaissance          string   `json:"nom_naissance"`
	Prenom                string   `json:"prenom"`
	AutresPrenoms         []string `json:"autres_prenoms"`
	Genre                 string   `json:"genre"`
	DateNaissance         string   `json:"date_naissance"`
	VilleNaissance        string   `json:"ville_naissance"`
	DepartementNaissance  string   `json:"departement_naissance"`
	PaysNaissance         string   `json:"pays_naissance"`
	Nationalites          []string `json:"nationalites"`
	NumeroSecuriteSociale string   `json:"numero_securite_sociale"`
	SituationFamiliale    string   `json:"situation_familiale"`
}

// CoordonneeInput carries the contact fields of a creation request.
type CoordonneeInput struct {
	Adresse                    string  `json:"adresse"`
	InformationComplementaires *string `json:"information_complementaires"`
	CodePostal                 string  `json:"code_postal"`
	Ville                      string  `json:"ville"`
	Departement                string  `json:"departement"`
	Pays                       string  `json:"pays"`
	NumeroTelephone            string  `json:"numero_telephone"`
	AdresseMail                string  `json:"adresse_mail"`
}

type CreatePatientInput struct {
	NumeroDossier string           `json:"numero_dossier"`
	Identite      IdentiteInput    `json:"information_identite"`
	Coordonnee    *CoordonneeInput `json:"information_coordonnee"`
}

func (in *IdentiteInput) validate() (*InformationIdentite, error) {
	if in.NomUsage == "" || in.NomNaissance == "" || in.Prenom == "" {
		return nil, apperr.Validation("nom_usage, nom_naissance et prenom sont obligatoires")
	}
	if !validGenres[in.Genre] {
		return nil, apperr.Validationf("genre invalide: %s", in.Genre)
	}
	if !validSituationsFamiliales[in.SituationFamiliale] {
		return nil, apperr.Validationf("situation_familiale invalide: %s", in.SituationFamiliale)
	}
	if in.VilleNaissance == "" || in.DepartementNaissance == "" || in.PaysNaissance == "" {
		return nil, apperr.Validation("lieu de naissance incomplet")
	}
	if in.NumeroSecuriteSociale == "" {
		return nil, apperr.Validation("numero_securite_sociale est obligatoire")
	}
	dateNaissance, err := time.Parse(dateFormat, in.DateNaissance)
	if err != nil {
		return nil, apperr.Validationf("date_naissance invalide: %s", in.DateNaissance)
	}

	return &InformationIdentite{
		NomUsage:              in.NomUsage,
		NomNaissance:          in.NomNaissance,
		Prenom:                in.Prenom,
		AutresPrenoms:         in.AutresPrenoms,
		Genre:                 in.Genre,
		DateNaissance:         dateNaissance,
		VilleNaissance:        in.VilleNaissance,
		DepartementNaissance:  in.DepartementNaissance,
		PaysNaissance:         in.PaysNaissance,
		Nationalites:          in.Nationalites,
		NumeroSecuriteSociale: in.NumeroSecuriteSociale,
		SituationFamiliale:    in.SituationFamiliale,
	}, nil
}

func (in *CoordonneeInput) validate() (*InformationCoordonnee, error) {
	if in.Adresse == "" || in.CodePostal == "" || in.Ville == "" ||
		in.Departement == "" || in.Pays == "" {
		return nil, apperr.Validation("adresse incomplète")
	}
	if in.NumeroTelephone == "" || in.AdresseMail == "" {
		return nil, apperr.Validation("numero_telephone et adresse_mail sont obligatoires")
	}
	return &InformationCoordonnee{
		Adresse:                    in.Adresse,
		InformationComplementaires: in.InformationComplementaires,
		CodePostal:                 in.CodePostal,
		Ville:                      in.Ville,
		Departement:                in.Departement,
		Pays:                       in.Pays,
		NumeroTelephone:            in.NumeroTelephone,
		AdresseMail:                in.AdresseMail,
	}, nil
}

// CreatePatient creates the identity record, the contact record, the patient
// and the link to the creating professional as one all-or-nothing unit.
func (s *Service) CreatePatient(ctx context.Context, in *CreatePatientInput) (*Dossier, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}

	if in.NumeroDossier == "" {
		return nil, apperr.Validation("numero_dossier est obligatoire")
	}
	identite, err := in.Identite.validate()
	if err != nil {
		return nil, err
	}
	var coordonnee *InformationCoordonnee
	if in.Coordonnee != nil {
		coordonnee, err = in.Coordonnee.validate()
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.patients.GetPatientByNumeroDossier(ctx, in.NumeroDossier); err == nil {
		return nil, apperr.Conflict("numéro de dossier déjà utilisé")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap("vérification du numéro de dossier", err)
	}

	p := &Patient{NumeroDossier: in.NumeroDossier}
	err = s.runInTx(ctx, func(ctx context.Context) error {
		if err := s.patients.CreateIdentite(ctx, identite); err != nil {
			return apperr.Wrap("création des informations d'identité", err)
		}
		p.InformationIdentiteID = identite.ID
		if coordonnee != nil {
			if err := s.patients.CreateCoordonnee(ctx, coordonnee); err != nil {
				return apperr.Wrap("création des coordonnées", err)
			}
			p.InformationCoordonneeID = &coordonnee.ID
		}
		if err := s.patients.CreatePatient(ctx, p); err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("numéro de dossier déjà utilisé")
			}
			return apperr.Wrap("création du patient", err)
		}
		if _, err := s.patients.CreateLink(ctx, p.ID, caller.ProfessionnelID); err != nil {
			return apperr.Wrap("création du lien patient-professionnel", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Dossier{
		Patient:               *p,
		InformationIdentite:   identite,
		InformationCoordonnee: coordonnee,
	}, nil
}

// IdentiteUpdate is a partial update: nil means leave unchanged, non-nil
// overwrites, including an explicit overwrite to the empty string.
type IdentiteUpdate struct {
	NomUsage              *string   `json:"nom_usage"`
	NomNaissance          *string   `json:"nom_naissance"`
	Prenom                *string   `json:"prenom"`
	AutresPrenoms         *[]string `json:"autres_prenoms"`
	Genre                 *string   `json:"genre"`
	DateNaissance         *string   `json:"date_naissance"`
	VilleNaissance        *string   `json:"ville_naissance"`
	DepartementNaissance  *string   `json:"departement_naissance"`
	PaysNaissance         *string   `json:"pays_naissance"`
	Nationalites          *[]string `json:"nationalites"`
	NumeroSecuriteSociale *string   `json:"numero_securite_sociale"`
	SituationFamiliale    *string   `json:"situation_familiale"`
}

type CoordonneeUpdate struct {
	Adresse                    *string `json:"adresse"`
	InformationComplementaires *string `json:"information_complementaires"`
	CodePostal                 *string `json:"code_postal"`
	Ville                      *string `json:"ville"`
	Departement                *string `json:"departement"`
	Pays                       *string `json:"pays"`
	NumeroTelephone            *string `json:"numero_telephone"`
	AdresseMail                *string `json:"adresse_mail"`
}

type PatientUpdate struct {
	NumeroDossier *string           `json:"numero_dossier"`
	Identite      *IdentiteUpdate   `json:"information_identite"`
	Coordonnee    *CoordonneeUpdate `json:"information_coordonnee"`
}

func (u *IdentiteUpdate) apply(i *InformationIdentite) error {
	if u.NomUsage != nil {
		i.NomUsage = *u.NomUsage
	}
	if u.NomNaissance != nil {
		i.NomNaissance = *u.NomNaissance
	}
	if u.Prenom != nil {
		i.Prenom = *u.Prenom
	}
	if u.AutresPrenoms != nil {
		i.AutresPrenoms = *u.AutresPrenoms
	}
	if u.Genre != nil {
		if !validGenres[*u.Genre] {
			return apperr.Validationf("genre invalide: %s", *u.Genre)
		}
		i.Genre = *u.Genre
	}
	if u.DateNaissance != nil {
		d, err := time.Parse(dateFormat, *u.DateNaissance)
		if err != nil {
			return apperr.Validationf("date_naissance invalide: %s", *u.DateNaissance)
		}
		i.DateNaissance = d
	}
	if u.VilleNaissance != nil {
		i.VilleNaissance = *u.VilleNaissance
	}
	if u.DepartementNaissance != nil {
		i.DepartementNaissance = *u.DepartementNaissance
	}
	if u.PaysNaissance != nil {
		i.PaysNaissance = *u.PaysNaissance
	}
	if u.Nationalites != nil {
		i.Nationalites = *u.Nationalites
	}
	if u.NumeroSecuriteSociale != nil {
		i.NumeroSecuriteSociale = *u.NumeroSecuriteSociale
	}
	if u.SituationFamiliale != nil {
		if !validSituationsFamiliales[*u.SituationFamiliale] {
			return apperr.Validationf("situation_familiale invalide: %s", *u.SituationFamiliale)
		}
		i.SituationFamiliale = *u.SituationFamiliale
	}
	return nil
}

func (u *CoordonneeUpdate) apply(co *InformationCoordonnee) {
	if u.Adresse != nil {
		co.Adresse = *u.Adresse
	}
	if u.InformationComplementaires != nil {
		co.InformationComplementaires = u.InformationComplementaires
	}
	if u.CodePostal != nil {
		co.CodePostal = *u.CodePostal
	}
	if u.Ville != nil {
		co.Ville = *u.Ville
	}
	if u.Departement != nil {
		co.Departement = *u.Departement
	}
	if u.Pays != nil {
		co.Pays = *u.Pays
	}
	if u.NumeroTelephone != nil {
		co.NumeroTelephone = *u.NumeroTelephone
	}
	if u.AdresseMail != nil {
		co.AdresseMail = *u.AdresseMail
	}
}

// UpdatePatient applies each field group independently; absent groups are
// no-ops.
func (s *Service) UpdatePatient(ctx context.Context, patientID uuid.UUID, upd *PatientUpdate) (*Dossier, error) {
	_, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessPatient(ctx, patientID); err != nil {
		return nil, err
	}

	p, err := s.patients.GetPatient(ctx, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient non trouvé")
	}
	if err != nil {
		return nil, apperr.Wrap("lecture du patient", err)
	}

	err = s.runInTx(ctx, func(ctx context.Context) error {
		if upd.NumeroDossier != nil && *upd.NumeroDossier != p.NumeroDossier {
			if *upd.NumeroDossier == "" {
				return apperr.Validation("numero_dossier ne peut pas être vide")
			}
			if _, err := s.patients.GetPatientByNumeroDossier(ctx, *upd.NumeroDossier); err == nil {
				return apperr.Conflict("numéro de dossier déjà utilisé")
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return apperr.Wrap("vérification du numéro de dossier", err)
			}
			p.NumeroDossier = *upd.NumeroDossier
			if err := s.patients.UpdatePatient(ctx, p); err != nil {
				if isUniqueViolation(err) {
					return apperr.Conflict("numéro de dossier déjà utilisé")
				}
				return apperr.Wrap("mise à jour du patient", err)
			}
		}

		if upd.Identite != nil {
			identite, err := s.patients.GetIdentite(ctx, p.InformationIdentiteID)
			if err != nil {
				return apperr.Wrap("lecture des informations d'identité", err)
			}
			if err := upd.Identite.apply(identite); err != nil {
				return err
			}
			if err := s.patients.UpdateIdentite(ctx, identite); err != nil {
				return apperr.Wrap("mise à jour des informations d'identité", err)
			}
		}

		if upd.Coordonnee != nil && p.InformationCoordonneeID != nil {
			coordonnee, err := s.patients.GetCoordonnee(ctx, *p.InformationCoordonneeID)
			if err != nil {
				return apperr.Wrap("lecture des coordonnées", err)
			}
			upd.Coordonnee.apply(coordonnee)
			if err := s.patients.UpdateCoordonnee(ctx, coordonnee); err != nil {
				return apperr.Wrap("mise à jour des coordonnées", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getDossier(ctx, patientID)
}

func (s *Service) getDossier(ctx context.Context, patientID uuid.UUID) (*Dossier, error) {
	d, err := s.patients.GetDossier(ctx, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient non trouvé")
	}
	if err != nil {
		return nil, apperr.Wrap("lecture du dossier", err)
	}
	return d, nil
}

// GetPatientByID returns the composite dossier after the visibility check.
func (s *Service) GetPatientByID(ctx context.Context, patientID uuid.UUID) (*Dossier, error) {
	_, policy, err := s.evaluator.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessPatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.getDossier(ctx, patientID)
}

// GetMyDossier returns the caller particulier's own dossier.
func (s *Service) GetMyDossier(ctx context.Context) (*Dossier, error) {
	caller, _, err := s.evaluator.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if caller.Role != access.RoleParticulier {
		return nil, apperr.Forbidden("réservé aux particuliers")
	}
	return s.getDossier(ctx, caller.PatientID)
}

// ListPatients returns the dossiers linked to the caller professional. An
// empty list is a normal result, not an error.
func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Dossier, int, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.patients.ListDossiersByProfessionnel(ctx, caller.ProfessionnelID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap("liste des patients", err)
	}
	return items, total, nil
}

// SearchCriteriaInput is the wire form of a search request.
type SearchCriteriaInput struct {
	Nom                   string `json:"nom"`
	Prenom                string `json:"prenom"`
	DateNaissance         string `json:"date_naissance"`
	NumeroSecuriteSociale string `json:"numero_securite_sociale"`
}

// SearchPatientByInfo locates patients by exact identity facts. No
// visibility filter applies: the search exists to find patients not yet
// linked to the caller, ahead of AddPatientToProfessionnel.
func (s *Service) SearchPatientByInfo(ctx context.Context, in *SearchCriteriaInput) ([]*Dossier, error) {
	if _, _, err := s.evaluator.ResolveProfessionnel(ctx); err != nil {
		return nil, err
	}
	if in.Nom == "" || in.Prenom == "" || in.NumeroSecuriteSociale == "" {
		return nil, apperr.Validation("nom, prenom et numero_securite_sociale sont obligatoires")
	}
	dateNaissance, err := time.Parse(dateFormat, in.DateNaissance)
	if err != nil {
		return nil, apperr.Validationf("date_naissance invalide: %s", in.DateNaissance)
	}

	items, err := s.patients.SearchByInfo(ctx, SearchCriteria{
		Nom:                   in.Nom,
		Prenom:                in.Prenom,
		DateNaissance:         dateNaissance,
		NumeroSecuriteSociale: in.NumeroSecuriteSociale,
	})
	if err != nil {
		return nil, apperr.Wrap("recherche de patient", err)
	}
	return items, nil
}

// AddPatientToProfessionnel links an existing patient, looked up by its
// dossier number, to the caller professional.
func (s *Service) AddPatientToProfessionnel(ctx context.Context, numeroDossier string) (*Lien, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	if numeroDossier == "" {
		return nil, apperr.Validation("numero_dossier est obligatoire")
	}

	p, err := s.patients.GetPatientByNumeroDossier(ctx, numeroDossier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient non trouvé")
	}
	if err != nil {
		return nil, apperr.Wrap("lecture du patient", err)
	}

	exists, err := s.patients.LinkExists(ctx, p.ID, caller.ProfessionnelID)
	if err != nil {
		return nil, apperr.Wrap("vérification du lien patient", err)
	}
	if exists {
		return nil, apperr.Conflict("ce patient est déjà dans votre liste")
	}

	lien, err := s.patients.CreateLink(ctx, p.ID, caller.ProfessionnelID)
	if err != nil {
		return nil, apperr.Wrap("création du lien patient-professionnel", err)
	}
	return lien, nil
}

// RemovePatientFromProfessionnel unlinks a patient from the caller
// professional. All of the caller's tasks for the patient are deleted, open
// ones are counted, and exactly one notification describing the removal is
// recorded. The link row is locked for the duration of the transaction so a
// concurrent removal cannot double-notify.
func (s *Service) RemovePatientFromProfessionnel(ctx context.Context, patientID uuid.UUID) (*RemovalResult, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}

	d, err := s.getDossier(ctx, patientID)
	if err != nil {
		return nil, err
	}

	result := &RemovalResult{}
	err = s.runInTx(ctx, func(ctx context.Context) error {
		locked, err := s.patients.LockLink(ctx, patientID, caller.ProfessionnelID)
		if err != nil {
			return apperr.Wrap("verrouillage du lien patient", err)
		}
		if !locked {
			return apperr.Forbidden("patient introuvable ou non autorisé")
		}

		open, err := s.tasks.CountOpenByPatientAndProfessionnel(ctx, patientID, caller.ProfessionnelID)
		if err != nil {
			return apperr.Wrap("comptage des tâches ouvertes", err)
		}
		if _, err := s.tasks.DeleteByPatientAndProfessionnel(ctx, patientID, caller.ProfessionnelID); err != nil {
			return apperr.Wrap("suppression des tâches", err)
		}

		deleted, err := s.patients.DeleteLink(ctx, patientID, caller.ProfessionnelID)
		if err != nil {
			return apperr.Wrap("suppression du lien patient", err)
		}
		if !deleted {
			return apperr.Forbidden("patient introuvable ou non autorisé")
		}

		typ := "INFO"
		message := fmt.Sprintf("Le patient %s a été retiré de votre liste.", d.DisplayName())
		if open > 0 {
			typ = "WARNING"
			message = fmt.Sprintf(
				"Le patient %s a été retiré de votre liste. %d tâche(s) à faire ou en cours ont été supprimée(s).",
				d.DisplayName(), open)
		}
		if err := s.notifier.NotifyProfessionnel(ctx, caller.ProfessionnelID, typ,
			"Patient retiré de votre liste", message, nil); err != nil {
			return apperr.Wrap("création de la notification", err)
		}

		result.Avertissement = open > 0
		result.NombreTachesSupprimees = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeletePatient removes a dossier entirely: children first, inside one
// transaction. Tasks and documents belonging to other professionals go too.
func (s *Service) DeletePatient(ctx context.Context, patientID uuid.UUID) error {
	_, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return err
	}
	if err := policy.CanAccessPatient(ctx, patientID); err != nil {
		return err
	}

	return s.runInTx(ctx, func(ctx context.Context) error {
		if err := s.patients.DeleteDossierCascade(ctx, patientID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("patient non trouvé")
			}
			return apperr.Wrap("suppression du dossier", err)
		}
		return nil
	})
}
