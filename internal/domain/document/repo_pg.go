package document

import (
	"context"

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

type documentRepoPG struct{ pool *pgxpool.Pool }

func NewDocumentRepoPG(pool *pgxpool.Pool) *documentRepoPG {
	return &documentRepoPG{pool: pool}
}

func (r *documentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const documentCols = `id, patient_id, nom, categorie, chemin_fichier, type_mime, taille, description, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.PatientID, &d.Nom, &d.Categorie, &d.CheminFichier,
		&d.TypeMime, &d.Taille, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepoPG) Create(ctx context.Context, d *Document) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO document (patient_id, nom, categorie, chemin_fichier, type_mime, taille, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		d.PatientID, d.Nom, d.Categorie, d.CheminFichier, d.TypeMime, d.Taille, d.Description).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *documentRepoPG) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return scanDocument(r.conn(ctx).QueryRow(ctx,
		`SELECT `+documentCols+` FROM document WHERE id = $1`, id))
}

func (r *documentRepoPG) Update(ctx context.Context, d *Document) error {
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE document
		SET nom = $2, categorie = $3, chemin_fichier = $4, type_mime = $5, taille = $6, description = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Nom, d.Categorie, d.CheminFichier, d.TypeMime, d.Taille, d.Description).
		Scan(&d.UpdatedAt)
}

func (r *documentRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM document WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *documentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+documentCols+` FROM document WHERE patient_id = $1 ORDER BY created_at DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
