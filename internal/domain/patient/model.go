package patient

import (
	"time"

	"github.com/google/uuid"
)

// InformationIdentite maps to the information_identite table: the civil
// status facts of a patient, exactly one owning Patient.
type InformationIdentite struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	NomUsage              string    `db:"nom_usage" json:"nom_usage"`
	NomNaissance          string    `db:"nom_naissance" json:"nom_naissance"`
	Prenom                string    `db:"prenom" json:"prenom"`
	AutresPrenoms         []string  `db:"autres_prenoms" json:"autres_prenoms"`
	Genre                 string    `db:"genre" json:"genre"`
	DateNaissance         time.Time `db:"date_naissance" json:"date_naissance"`
	VilleNaissance        string    `db:"ville_naissance" json:"ville_naissance"`
	DepartementNaissance  string    `db:"departement_naissance" json:"departement_naissance"`
	PaysNaissance         string    `db:"pays_naissance" json:"pays_naissance"`
	Nationalites          []string  `db:"nationalites" json:"nationalites"`
	NumeroSecuriteSociale string    `db:"numero_securite_sociale" json:"numero_securite_sociale"`
	SituationFamiliale    string    `db:"situation_familiale" json:"situation_familiale"`
}

// InformationCoordonnee maps to the information_coordonnee table.
type InformationCoordonnee struct {
	ID                         uuid.UUID `db:"id" json:"id"`
	Adresse                    string    `db:"adresse" json:"adresse"`
	InformationComplementaires *string   `db:"information_complementaires" json:"information_complementaires,omitempty"`
	CodePostal                 string    `db:"code_postal" json:"code_postal"`
	Ville                      string    `db:"ville" json:"ville"`
	Departement                string    `db:"departement" json:"departement"`
	Pays                       string    `db:"pays" json:"pays"`
	NumeroTelephone            string    `db:"numero_telephone" json:"numero_telephone"`
	AdresseMail                string    `db:"adresse_mail" json:"adresse_mail"`
}

// Patient is the root case record. The numero de dossier is the
// externally-assigned business identifier, unique across the tenant.
type Patient struct {
	ID                      uuid.UUID  `db:"id" json:"id"`
	NumeroDossier           string     `db:"numero_dossier" json:"numero_dossier"`
	InformationIdentiteID   uuid.UUID  `db:"information_identite_id" json:"information_identite_id"`
	InformationCoordonneeID *uuid.UUID `db:"information_coordonnee_id" json:"information_coordonnee_id,omitempty"`
}

// Lien maps to the patient_professionnel association table.
type Lien struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	ProfessionnelID uuid.UUID `db:"professionnel_id" json:"professionnel_id"`
	DateAttribution time.Time `db:"date_attribution" json:"date_attribution"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Dossier is the composite read view: patient decorated with its identity
// and contact records.
type Dossier struct {
	Patient
	InformationIdentite   *InformationIdentite   `json:"information_identite"`
	InformationCoordonnee *InformationCoordonnee `json:"information_coordonnee,omitempty"`
}

// DisplayName is the name used in user-facing messages.
func (d *Dossier) DisplayName() string {
	if d.InformationIdentite == nil {
		return d.NumeroDossier
	}
	return d.InformationIdentite.Prenom + " " + d.InformationIdentite.NomUsage
}

// RemovalResult describes the outcome of removing a patient from a
// professional's list.
type RemovalResult struct {
	Avertissement          bool `json:"avertissement"`
	NombreTachesSupprimees int  `json:"nombre_taches_supprimees"`
}

// SearchCriteria is the exact-match probe used to locate a patient before
// linking. All fields are required; the name matches either the birth name
// or the usage name.
type SearchCriteria struct {
	Nom                   string
	Prenom                string
	DateNaissance         time.Time
	NumeroSecuriteSociale string
}
