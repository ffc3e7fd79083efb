package account

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the app_user table. Accounts are provisioned by the
// authentication provider; only Type is mutated afterwards, once.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Type      *string   `db:"type" json:"type,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Professionnel maps to the professionnel table (1:1 with a User).
type Professionnel struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Nom       string    `db:"nom" json:"nom"`
	Prenom    string    `db:"prenom" json:"prenom"`
	Fonction  string    `db:"fonction" json:"fonction"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Particulier maps to the particulier table. The binding to its patient is
// permanent: both user_id and patient_id are unique.
type Particulier struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Me is the composite view returned to the authenticated caller.
type Me struct {
	User          *User          `json:"user"`
	Professionnel *Professionnel `json:"professionnel,omitempty"`
	Particulier   *Particulier   `json:"particulier,omitempty"`
}
