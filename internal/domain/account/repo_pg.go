package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serein-sante/serein-server/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) *accountRepoPG {
	return &accountRepoPG{pool: pool}
}

func (r *accountRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const userCols = `id, email, name, type, created_at, updated_at`

func (r *accountRepoPG) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Type, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *accountRepoPG) SetUserType(ctx context.Context, id string, typ string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE app_user SET type = $2, updated_at = NOW() WHERE id = $1`, id, typ)
	return err
}

const professionnelCols = `id, user_id, nom, prenom, fonction, created_at, updated_at`

func (r *accountRepoPG) scanProfessionnel(row pgx.Row) (*Professionnel, error) {
	var p Professionnel
	err := row.Scan(&p.ID, &p.UserID, &p.Nom, &p.Prenom, &p.Fonction, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *accountRepoPG) CreateProfessionnel(ctx context.Context, p *Professionnel) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO professionnel (id, user_id, nom, prenom, fonction)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Nom, p.Prenom, p.Fonction).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *accountRepoPG) GetProfessionnelByID(ctx context.Context, id uuid.UUID) (*Professionnel, error) {
	return r.scanProfessionnel(r.conn(ctx).QueryRow(ctx,
		`SELECT `+professionnelCols+` FROM professionnel WHERE id = $1`, id))
}

func (r *accountRepoPG) GetProfessionnelByUserID(ctx context.Context, userID string) (*Professionnel, error) {
	return r.scanProfessionnel(r.conn(ctx).QueryRow(ctx,
		`SELECT `+professionnelCols+` FROM professionnel WHERE user_id = $1`, userID))
}

const particulierCols = `id, user_id, patient_id, created_at, updated_at`

func (r *accountRepoPG) scanParticulier(row pgx.Row) (*Particulier, error) {
	var p Particulier
	err := row.Scan(&p.ID, &p.UserID, &p.PatientID, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *accountRepoPG) CreateParticulier(ctx context.Context, p *Particulier) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO particulier (id, user_id, patient_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.PatientID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *accountRepoPG) GetParticulierByUserID(ctx context.Context, userID string) (*Particulier, error) {
	return r.scanParticulier(r.conn(ctx).QueryRow(ctx,
		`SELECT `+particulierCols+` FROM particulier WHERE user_id = $1`, userID))
}

func (r *accountRepoPG) GetParticulierByPatientID(ctx context.Context, patientID uuid.UUID) (*Particulier, error) {
	return r.scanParticulier(r.conn(ctx).QueryRow(ctx,
		`SELECT `+particulierCols+` FROM particulier WHERE patient_id = $1`, patientID))
}

// -- access.Directory --

func (r *accountRepoPG) GetUserType(ctx context.Context, userID string) (string, bool, error) {
	var typ *string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT type FROM app_user WHERE id = $1`, userID).Scan(&typ)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if typ == nil {
		return "", true, nil
	}
	return *typ, true, nil
}

func (r *accountRepoPG) GetProfessionnelID(ctx context.Context, userID string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM professionnel WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (r *accountRepoPG) GetParticulier(ctx context.Context, userID string) (uuid.UUID, uuid.UUID, bool, error) {
	var id, patientID uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, patient_id FROM particulier WHERE user_id = $1`, userID).Scan(&id, &patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, uuid.Nil, false, err
	}
	return id, patientID, true, nil
}
