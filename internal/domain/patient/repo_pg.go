package patient

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

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) *patientRepoPG {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

// -- information_identite --

const identiteCols = `id, nom_usage, nom_naissance, prenom, autres_prenoms, genre,
	date_naissance, ville_naissance, departement_naissance, pays_naissance,
	nationalites, numero_securite_sociale, situation_familiale`

func scanIdentite(row pgx.Row) (*InformationIdentite, error) {
	var i InformationIdentite
	err := row.Scan(&i.ID, &i.NomUsage, &i.NomNaissance, &i.Prenom, &i.AutresPrenoms, &i.Genre,
		&i.DateNaissance, &i.VilleNaissance, &i.DepartementNaissance, &i.PaysNaissance,
		&i.Nationalites, &i.NumeroSecuriteSociale, &i.SituationFamiliale)
	return &i, err
}

func (r *patientRepoPG) CreateIdentite(ctx context.Context, i *InformationIdentite) error {
	i.ID = uuid.New()
	if i.AutresPrenoms == nil {
		i.AutresPrenoms = []string{}
	}
	if i.Nationalites == nil {
		i.Nationalites = []string{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO information_identite (id, nom_usage, nom_naissance, prenom, autres_prenoms,
			genre, date_naissance, ville_naissance, departement_naissance, pays_naissance,
			nationalites, numero_securite_sociale, situation_familiale)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		i.ID, i.NomUsage, i.NomNaissance, i.Prenom, i.AutresPrenoms,
		i.Genre, i.DateNaissance, i.VilleNaissance, i.DepartementNaissance, i.PaysNaissance,
		i.Nationalites, i.NumeroSecuriteSociale, i.SituationFamiliale)
	return err
}

func (r *patientRepoPG) GetIdentite(ctx context.Context, id uuid.UUID) (*InformationIdentite, error) {
	return scanIdentite(r.conn(ctx).QueryRow(ctx,
		`SELECT `+identiteCols+` FROM information_identite WHERE id = $1`, id))
}

func (r *patientRepoPG) UpdateIdentite(ctx context.Context, i *InformationIdentite) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE information_identite SET nom_usage=$2, nom_naissance=$3, prenom=$4,
			autres_prenoms=$5, genre=$6, date_naissance=$7, ville_naissance=$8,
			departement_naissance=$9, pays_naissance=$10, nationalites=$11,
			numero_securite_sociale=$12, situation_familiale=$13
		WHERE id = $1`,
		i.ID, i.NomUsage, i.NomNaissance, i.Prenom,
		i.AutresPrenoms, i.Genre, i.DateNaissance, i.VilleNaissance,
		i.DepartementNaissance, i.PaysNaissance, i.Nationalites,
		i.NumeroSecuriteSociale, i.SituationFamiliale)
	return err
}

// -- information_coordonnee --

const coordonneeCols = `id, adresse, information_complementaires, code_postal, ville,
	departement, pays, numero_telephone, adresse_mail`

func scanCoordonnee(row pgx.Row) (*InformationCoordonnee, error) {
	var co InformationCoordonnee
	err := row.Scan(&co.ID, &co.Adresse, &co.InformationComplementaires, &co.CodePostal, &co.Ville,
		&co.Departement, &co.Pays, &co.NumeroTelephone, &co.AdresseMail)
	return &co, err
}

func (r *patientRepoPG) CreateCoordonnee(ctx context.Context, co *InformationCoordonnee) error {
	co.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO information_coordonnee (id, adresse, information_complementaires,
			code_postal, ville, departement, pays, numero_telephone, adresse_mail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		co.ID, co.Adresse, co.InformationComplementaires,
		co.CodePostal, co.Ville, co.Departement, co.Pays, co.NumeroTelephone, co.AdresseMail)
	return err
}

func (r *patientRepoPG) GetCoordonnee(ctx context.Context, id uuid.UUID) (*InformationCoordonnee, error) {
	return scanCoordonnee(r.conn(ctx).QueryRow(ctx,
		`SELECT `+coordonneeCols+` FROM information_coordonnee WHERE id = $1`, id))
}

func (r *patientRepoPG) UpdateCoordonnee(ctx context.Context, co *InformationCoordonnee) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE information_coordonnee SET adresse=$2, information_complementaires=$3,
			code_postal=$4, ville=$5, departement=$6, pays=$7,
			numero_telephone=$8, adresse_mail=$9
		WHERE id = $1`,
		co.ID, co.Adresse, co.InformationComplementaires,
		co.CodePostal, co.Ville, co.Departement, co.Pays,
		co.NumeroTelephone, co.AdresseMail)
	return err
}

// -- patient --

const patientCols = `id, numero_dossier, information_identite_id, information_coordonnee_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.NumeroDossier, &p.InformationIdentiteID, &p.InformationCoordonneeID)
	return &p, err
}

func (r *patientRepoPG) CreatePatient(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, numero_dossier, information_identite_id, information_coordonnee_id)
		VALUES ($1,$2,$3,$4)`,
		p.ID, p.NumeroDossier, p.InformationIdentiteID, p.InformationCoordonneeID)
	return err
}

func (r *patientRepoPG) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetPatientByNumeroDossier(ctx context.Context, numero string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE numero_dossier = $1`, numero))
}

func (r *patientRepoPG) UpdatePatient(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET numero_dossier=$2, information_coordonnee_id=$3 WHERE id = $1`,
		p.ID, p.NumeroDossier, p.InformationCoordonneeID)
	return err
}

// -- dossier (composite view) --

const dossierCols = `p.id, p.numero_dossier, p.information_identite_id, p.information_coordonnee_id,
	i.id, i.nom_usage, i.nom_naissance, i.prenom, i.autres_prenoms, i.genre,
	i.date_naissance, i.ville_naissance, i.departement_naissance, i.pays_naissance,
	i.nationalites, i.numero_securite_sociale, i.situation_familiale,
	co.id, co.adresse, co.information_complementaires, co.code_postal, co.ville,
	co.departement, co.pays, co.numero_telephone, co.adresse_mail`

const dossierFrom = ` FROM patient p
	JOIN information_identite i ON i.id = p.information_identite_id
	LEFT JOIN information_coordonnee co ON co.id = p.information_coordonnee_id`

func scanDossier(row pgx.Row) (*Dossier, error) {
	var d Dossier
	var i InformationIdentite
	var coID *uuid.UUID
	var coAdresse, coCodePostal, coVille, coDepartement, coPays, coTel, coMail, coComplement *string

	err := row.Scan(&d.ID, &d.NumeroDossier, &d.InformationIdentiteID, &d.InformationCoordonneeID,
		&i.ID, &i.NomUsage, &i.NomNaissance, &i.Prenom, &i.AutresPrenoms, &i.Genre,
		&i.DateNaissance, &i.VilleNaissance, &i.DepartementNaissance, &i.PaysNaissance,
		&i.Nationalites, &i.NumeroSecuriteSociale, &i.SituationFamiliale,
		&coID, &coAdresse, &coComplement, &coCodePostal, &coVille,
		&coDepartement, &coPays, &coTel, &coMail)
	if err != nil {
		return nil, err
	}

	d.InformationIdentite = &i
	if coID != nil {
		d.InformationCoordonnee = &InformationCoordonnee{
			ID:                         *coID,
			Adresse:                    deref(coAdresse),
			InformationComplementaires: coComplement,
			CodePostal:                 deref(coCodePostal),
			Ville:                      deref(coVille),
			Departement:                deref(coDepartement),
			Pays:                       deref(coPays),
			NumeroTelephone:            deref(coTel),
			AdresseMail:                deref(coMail),
		}
	}
	return &d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *patientRepoPG) GetDossier(ctx context.Context, id uuid.UUID) (*Dossier, error) {
	return scanDossier(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dossierCols+dossierFrom+` WHERE p.id = $1`, id))
}

func (r *patientRepoPG) ListDossiersByProfessionnel(ctx context.Context, professionnelID uuid.UUID, limit, offset int) ([]*Dossier, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_professionnel WHERE professionnel_id = $1`,
		professionnelID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+dossierCols+dossierFrom+`
		JOIN patient_professionnel pp ON pp.patient_id = p.id
		WHERE pp.professionnel_id = $1
		ORDER BY pp.date_attribution DESC
		LIMIT $2 OFFSET $3`,
		professionnelID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Dossier, 0)
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) SearchByInfo(ctx context.Context, crit SearchCriteria) ([]*Dossier, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+dossierCols+dossierFrom+`
		WHERE i.date_naissance = $1
		  AND i.prenom = $2
		  AND i.numero_securite_sociale = $3
		  AND (i.nom_naissance = $4 OR i.nom_usage = $4)`,
		crit.DateNaissance, crit.Prenom, crit.NumeroSecuriteSociale, crit.Nom)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Dossier, 0)
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// -- patient_professionnel links --

func (r *patientRepoPG) CreateLink(ctx context.Context, patientID, professionnelID uuid.UUID) (*Lien, error) {
	l := &Lien{ID: uuid.New(), PatientID: patientID, ProfessionnelID: professionnelID}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_professionnel (id, patient_id, professionnel_id)
		VALUES ($1, $2, $3)
		RETURNING date_attribution, created_at`,
		l.ID, patientID, professionnelID).
		Scan(&l.DateAttribution, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *patientRepoPG) LinkExists(ctx context.Context, patientID, professionnelID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patient_professionnel
			WHERE patient_id = $1 AND professionnel_id = $2
		)`, patientID, professionnelID).Scan(&exists)
	return exists, err
}

func (r *patientRepoPG) LockLink(ctx context.Context, patientID, professionnelID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id FROM patient_professionnel
		WHERE patient_id = $1 AND professionnel_id = $2
		FOR UPDATE`, patientID, professionnelID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *patientRepoPG) DeleteLink(ctx context.Context, patientID, professionnelID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM patient_professionnel
		WHERE patient_id = $1 AND professionnel_id = $2`,
		patientID, professionnelID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteDossierCascade removes the patient row and everything referencing
// it, children before parents. The identite/coordonnee rows come last since
// patient references them with ON DELETE RESTRICT.
func (r *patientRepoPG) DeleteDossierCascade(ctx context.Context, patientID uuid.UUID) error {
	p, err := r.GetPatient(ctx, patientID)
	if err != nil {
		return err
	}

	conn := r.conn(ctx)
	steps := []string{
		`DELETE FROM notification WHERE patient_id = $1`,
		`DELETE FROM document WHERE patient_id = $1`,
		`DELETE FROM tache WHERE patient_id = $1`,
		`DELETE FROM patient_professionnel WHERE patient_id = $1`,
		`DELETE FROM particulier WHERE patient_id = $1`,
		`DELETE FROM patient WHERE id = $1`,
	}
	for _, q := range steps {
		if _, err := conn.Exec(ctx, q, patientID); err != nil {
			return err
		}
	}

	if _, err := conn.Exec(ctx, `DELETE FROM information_identite WHERE id = $1`, p.InformationIdentiteID); err != nil {
		return err
	}
	if p.InformationCoordonneeID != nil {
		if _, err := conn.Exec(ctx, `DELETE FROM information_coordonnee WHERE id = $1`, *p.InformationCoordonneeID); err != nil {
			return err
		}
	}
	return nil
}
