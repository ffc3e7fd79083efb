package document

import (
	"time"

	"github.com/google/uuid"
)

// Document is a file reference attached to a patient. The file body lives
// outside the database; chemin_fichier points at it.
type Document struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Nom           string    `json:"nom"`
	Categorie     string    `json:"categorie"`
	CheminFichier string    `json:"chemin_fichier"`
	TypeMime      string    `json:"type_mime"`
	Taille        string    `json:"taille"`
	Description   *string   `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
