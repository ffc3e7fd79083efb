package notification

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/serein-sante/serein-server/internal/domain/access"
	"github.com/serein-sante/serein-server/internal/platform/apperr"
)

type Service struct {
	notifications Repository
	evaluator     *access.Evaluator
}

func NewService(notifications Repository, evaluator *access.Evaluator) *Service {
	return &Service{notifications: notifications, evaluator: evaluator}
}

var validTypes = map[string]bool{
	"INFO":    true,
	"WARNING": true,
	"ERROR":   true,
	"SUCCESS": true,
}

type CreateNotificationInput struct {
	ProfessionnelID *uuid.UUID `json:"professionnel_id"`
	PatientID       *uuid.UUID `json:"patient_id"`
	Type            string     `json:"type"`
	Titre           string     `json:"titre"`
	Message         string     `json:"message"`
	Lien            *string    `json:"lien"`
}

// CreateNotification records a notification. An addressee professional
// must be the caller; an addressee patient must be visible to the caller.
func (s *Service) CreateNotification(ctx context.Context, in *CreateNotificationInput) (*Notification, error) {
	caller, policy, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}

	if !validTypes[in.Type] {
		return nil, apperr.Validationf("type invalide: %s", in.Type)
	}
	if in.Titre == "" || in.Message == "" {
		return nil, apperr.Validation("titre et message sont obligatoires")
	}
	if in.ProfessionnelID == nil && in.PatientID == nil {
		return nil, apperr.Validation("professionnel_id ou patient_id est obligatoire")
	}
	if in.ProfessionnelID != nil && *in.ProfessionnelID != caller.ProfessionnelID {
		return nil, apperr.Forbidden("notification réservée à votre propre compte")
	}
	if in.PatientID != nil {
		if err := policy.CanAccessPatient(ctx, *in.PatientID); err != nil {
			return nil, err
		}
	}

	n := &Notification{
		ProfessionnelID: in.ProfessionnelID,
		PatientID:       in.PatientID,
		Type:            in.Type,
		Titre:           in.Titre,
		Message:         in.Message,
		Lien:            in.Lien,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, apperr.Wrap("création de la notification", err)
	}
	return n, nil
}

// ListMine returns the caller professional's notifications, newest first,
// then re-sorted stably so unread ones come before read ones.
func (s *Service) ListMine(ctx context.Context) ([]*Notification, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.notifications.ListByProfessionnel(ctx, caller.ProfessionnelID)
	if err != nil {
		return nil, apperr.Wrap("liste des notifications", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return !items[i].Lue && items[j].Lue
	})
	return items, nil
}

// MarkAsRead marks one of the caller's notifications as read. Marking an
// already-read notification is a no-op.
func (s *Service) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return err
	}

	n, err := s.notifications.Get(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("notification non trouvée")
	}
	if err != nil {
		return apperr.Wrap("lecture de la notification", err)
	}
	if n.ProfessionnelID == nil || *n.ProfessionnelID != caller.ProfessionnelID {
		return apperr.NotFound("notification non trouvée")
	}

	if _, err := s.notifications.MarkAsRead(ctx, id); err != nil {
		return apperr.Wrap("marquage de la notification", err)
	}
	return nil
}

// MarkAllAsRead marks every unread notification of the caller as read and
// returns how many changed. Calling it again immediately returns zero.
func (s *Service) MarkAllAsRead(ctx context.Context) (int, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.MarkAllAsRead(ctx, caller.ProfessionnelID)
	if err != nil {
		return 0, apperr.Wrap("marquage des notifications", err)
	}
	return n, nil
}

// CountUnread returns the caller professional's unread count, for badges.
func (s *Service) CountUnread(ctx context.Context) (int, error) {
	caller, _, err := s.evaluator.ResolveProfessionnel(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.CountUnread(ctx, caller.ProfessionnelID)
	if err != nil {
		return 0, apperr.Wrap("comptage des notifications", err)
	}
	return n, nil
}

// ProfessionnelNotifier adapts the service's repository into the narrow
// notifier surface other domains depend on.
type ProfessionnelNotifier struct {
	Notifications Repository
}

func (a *ProfessionnelNotifier) NotifyProfessionnel(ctx context.Context, professionnelID uuid.UUID, typ, titre, message string, lien *string) error {
	return a.Notifications.Create(ctx, &Notification{
		ProfessionnelID: &professionnelID,
		Type:            typ,
		Titre:           titre,
		Message:         message,
		Lien:            lien,
	})
}
