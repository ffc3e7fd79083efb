package notification

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

type notificationRepoPG struct{ pool *pgxpool.Pool }

func NewNotificationRepoPG(pool *pgxpool.Pool) *notificationRepoPG {
	return &notificationRepoPG{pool: pool}
}

func (r *notificationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const notificationCols = `id, professionnel_id, patient_id, type, titre, message, lue, lien, created_at, updated_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.ProfessionnelID, &n.PatientID, &n.Type, &n.Titre,
		&n.Message, &n.Lue, &n.Lien, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepoPG) Create(ctx context.Context, n *Notification) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notification (professionnel_id, patient_id, type, titre, message, lue, lien)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		n.ProfessionnelID, n.PatientID, n.Type, n.Titre, n.Message, n.Lue, n.Lien).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

func (r *notificationRepoPG) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return scanNotification(r.conn(ctx).QueryRow(ctx,
		`SELECT `+notificationCols+` FROM notification WHERE id = $1`, id))
}

func (r *notificationRepoPG) ListByProfessionnel(ctx context.Context, professionnelID uuid.UUID) ([]*Notification, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+notificationCols+` FROM notification WHERE professionnel_id = $1 ORDER BY created_at DESC`,
		professionnelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *notificationRepoPG) MarkAsRead(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notification SET lue = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *notificationRepoPG) MarkAllAsRead(ctx context.Context, professionnelID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notification SET lue = TRUE, updated_at = NOW() WHERE professionnel_id = $1 AND lue = FALSE`,
		professionnelID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *notificationRepoPG) CountUnread(ctx context.Context, professionnelID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM notification WHERE professionnel_id = $1 AND lue = FALSE`,
		professionnelID).Scan(&n)
	return n, err
}
