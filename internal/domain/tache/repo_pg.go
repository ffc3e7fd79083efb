package tache

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serein-sante/serein-server/internal/domain/account"
	"github.com/serein-sante/serein-server/internal/domain/patient"
	"github.com/serein-sante/serein-server/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type tacheRepoPG struct{ pool *pgxpool.Pool }

func NewTacheRepoPG(pool *pgxpool.Pool) *tacheRepoPG {
	return &tacheRepoPG{pool: pool}
}

func (r *tacheRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const tacheCols = `t.id, t.patient_id, t.professionnel_id, t.type_demarche, t.etat, t.date, t.details, t.created_at, t.updated_at`

func scanTache(row pgx.Row) (*Tache, error) {
	var t Tache
	err := row.Scan(&t.ID, &t.PatientID, &t.ProfessionnelID, &t.TypeDemarche,
		&t.Etat, &t.Date, &t.Details, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tacheRepoPG) Create(ctx context.Context, t *Tache) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO tache (patient_id, professionnel_id, type_demarche, etat, date, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		t.PatientID, t.ProfessionnelID, t.TypeDemarche, t.Etat, t.Date, t.Details).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *tacheRepoPG) Get(ctx context.Context, id uuid.UUID) (*Tache, error) {
	return scanTache(r.conn(ctx).QueryRow(ctx,
		`SELECT `+tacheCols+` FROM tache t WHERE t.id = $1`, id))
}

func (r *tacheRepoPG) Update(ctx context.Context, t *Tache) error {
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE tache
		SET type_demarche = $2, etat = $3, date = $4, details = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		t.ID, t.TypeDemarche, t.Etat, t.Date, t.Details).
		Scan(&t.UpdatedAt)
}

func (r *tacheRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM tache WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const identiteCols = `ii.id, ii.nom_usage, ii.nom_naissance, ii.prenom, ii.autres_prenoms, ii.genre, ii.date_naissance,
	ii.ville_naissance, ii.departement_naissance, ii.pays_naissance, ii.nationalites, ii.numero_securite_sociale, ii.situation_familiale`

func (r *tacheRepoPG) ListByProfessionnel(ctx context.Context, professionnelID uuid.UUID, limit, offset int) ([]*TacheAvecPatient, int, error) {
	q := r.conn(ctx)

	var total int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM tache t WHERE t.professionnel_id = $1`, professionnelID).
		Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+tacheCols+`,
		       p.id, p.numero_dossier, p.information_identite_id, p.information_coordonnee_id,
		       `+identiteCols+`
		FROM tache t
		JOIN patient p ON p.id = t.patient_id
		JOIN information_identite ii ON ii.id = p.information_identite_id
		WHERE t.professionnel_id = $1
		ORDER BY t.date DESC
		LIMIT $2 OFFSET $3`,
		professionnelID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*TacheAvecPatient, 0)
	for rows.Next() {
		var (
			t  Tache
			d  patient.Dossier
			ii patient.InformationIdentite
		)
		err := rows.Scan(
			&t.ID, &t.PatientID, &t.ProfessionnelID, &t.TypeDemarche,
			&t.Etat, &t.Date, &t.Details, &t.CreatedAt, &t.UpdatedAt,
			&d.ID, &d.NumeroDossier, &d.InformationIdentiteID, &d.InformationCoordonneeID,
			&ii.ID, &ii.NomUsage, &ii.NomNaissance, &ii.Prenom, &ii.AutresPrenoms,
			&ii.Genre, &ii.DateNaissance, &ii.VilleNaissance, &ii.DepartementNaissance,
			&ii.PaysNaissance, &ii.Nationalites, &ii.NumeroSecuriteSociale, &ii.SituationFamiliale,
		)
		if err != nil {
			return nil, 0, err
		}
		d.InformationIdentite = &ii
		items = append(items, &TacheAvecPatient{Tache: t, Patient: &d})
	}
	return items, total, rows.Err()
}

func (r *tacheRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TacheAvecProfessionnel, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+tacheCols+`,
		       pr.id, pr.user_id, pr.nom, pr.prenom, pr.fonction, pr.created_at, pr.updated_at
		FROM tache t
		JOIN professionnel pr ON pr.id = t.professionnel_id
		WHERE t.patient_id = $1
		ORDER BY t.date DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*TacheAvecProfessionnel, 0)
	for rows.Next() {
		var (
			t  Tache
			pr account.Professionnel
		)
		err := rows.Scan(
			&t.ID, &t.PatientID, &t.ProfessionnelID, &t.TypeDemarche,
			&t.Etat, &t.Date, &t.Details, &t.CreatedAt, &t.UpdatedAt,
			&pr.ID, &pr.UserID, &pr.Nom, &pr.Prenom, &pr.Fonction, &pr.CreatedAt, &pr.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &TacheAvecProfessionnel{Tache: t, Professionnel: &pr})
	}
	return items, rows.Err()
}

func (r *tacheRepoPG) CountOpenByPatientAndProfessionnel(ctx context.Context, patientID, professionnelID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM tache
		WHERE patient_id = $1 AND professionnel_id = $2 AND etat IN ('A_FAIRE', 'EN_COURS')`,
		patientID, professionnelID).Scan(&n)
	return n, err
}

func (r *tacheRepoPG) DeleteByPatientAndProfessionnel(ctx context.Context, patientID, professionnelID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM tache WHERE patient_id = $1 AND professionnel_id = $2`,
		patientID, professionnelID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
