package notification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	// ListByProfessionnel returns the professional's notifications ordered
	// by descending creation time only; callers layer any further ordering
	// on top.
	ListByProfessionnel(ctx context.Context, professionnelID uuid.UUID) ([]*Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) (bool, error)
	MarkAllAsRead(ctx context.Context, professionnelID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, professionnelID uuid.UUID) (int, error)
}
