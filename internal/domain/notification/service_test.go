package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/serein-sante/serein-server/internal/domain/access"
	"github.com/serein-sante/serein-server/internal/platform/apperr"
	"github.com/serein-sante/serein-server/internal/platform/auth"
)

// -- Mock repository --

type mockNotificationRepo struct {
	notifications map[uuid.UUID]*Notification
	order         []uuid.UUID // insertion order, newest appended last
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[uuid.UUID]*Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	m.notifications[n.ID] = n
	m.order = append(m.order, n.ID)
	return nil
}

func (m *mockNotificationRepo) Get(_ context.Context, id uuid.UUID) (*Notification, error) {
	n, ok := m.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *n
	return &cp, nil
}

func (m *mockNotificationRepo) ListByProfessionnel(_ context.Context, professionnelID uuid.UUID) ([]*Notification, error) {
	items := make([]*Notification, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		n := m.notifications[m.order[i]]
		if n.ProfessionnelID != nil && *n.ProfessionnelID == professionnelID {
			cp := *n
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockNotificationRepo) MarkAsRead(_ context.Context, id uuid.UUID) (bool, error) {
	n, ok := m.notifications[id]
	if !ok {
		return false, nil
	}
	n.Lue = true
	return true, nil
}

func (m *mockNotificationRepo) MarkAllAsRead(_ context.Context, professionnelID uuid.UUID) (int, error) {
	changed := 0
	for _, n := range m.notifications {
		if n.ProfessionnelID != nil && *n.ProfessionnelID == professionnelID && !n.Lue {
			n.Lue = true
			changed++
		}
	}
	return changed, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, professionnelID uuid.UUID) (int, error) {
	n := 0
	for _, notif := range m.notifications {
		if notif.ProfessionnelID != nil && *notif.ProfessionnelID == professionnelID && !notif.Lue {
			n++
		}
	}
	return n, nil
}

// -- Access stubs --

type stubDirectory struct {
	proID uuid.UUID
}

func (d *stubDirectory) GetUserType(_ context.Context, userID string) (string, bool, error) {
	if userID == "pro1" {
		return "PROFESSIONNEL", true, nil
	}
	return "", false, nil
}

func (d *stubDirectory) GetProfessionnelID(_ context.Context, userID string) (uuid.UUID, bool, error) {
	if userID == "pro1" {
		return d.proID, true, nil
	}
	return uuid.Nil, false, nil
}

func (d *stubDirectory) GetParticulier(context.Context, string) (uuid.UUID, uuid.UUID, bool, error) {
	return uuid.Nil, uuid.Nil, false, nil
}

type stubLinks struct {
	linked map[uuid.UUID]bool
}

func (s *stubLinks) LinkExists(_ context.Context, patientID, _ uuid.UUID) (bool, error) {
	return s.linked[patientID], nil
}

type fixture struct {
	svc   *Service
	repo  *mockNotificationRepo
	links *stubLinks
	proID uuid.UUID
	ctx   context.Context
}

func newFixture() *fixture {
	repo := newMockNotificationRepo()
	proID := uuid.New()
	links := &stubLinks{linked: make(map[uuid.UUID]bool)}
	svc := NewService(repo, access.NewEvaluator(&stubDirectory{proID: proID}, links))
	return &fixture{
		svc:   svc,
		repo:  repo,
		links: links,
		proID: proID,
		ctx:   auth.WithUserID(context.Background(), "pro1"),
	}
}

func (f *fixture) seed(lue bool) *Notification {
	n := &Notification{ProfessionnelID: &f.proID, Type: "INFO", Titre: "t", Message: "m", Lue: lue}
	if err := f.repo.Create(context.Background(), n); err != nil {
		panic(err)
	}
	return n
}

// -- Tests --

func TestCreateNotificationForSelf(t *testing.T) {
	f := newFixture()

	n, err := f.svc.CreateNotification(f.ctx, &CreateNotificationInput{
		ProfessionnelID: &f.proID,
		Type:            "SUCCESS",
		Titre:           "Dossier mis à jour",
		Message:         "Le dossier a été mis à jour.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Lue {
		t.Errorf("expected new notification unread")
	}
}

func TestCreateNotificationForAnotherProfessionnel(t *testing.T) {
	f := newFixture()
	other := uuid.New()

	_, err := f.svc.CreateNotification(f.ctx, &CreateNotificationInput{
		ProfessionnelID: &other,
		Type:            "INFO",
		Titre:           "t",
		Message:         "m",
	})
	if !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestCreateNotificationForUnlinkedPatient(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	_, err := f.svc.CreateNotification(f.ctx, &CreateNotificationInput{
		PatientID: &patientID,
		Type:      "INFO",
		Titre:     "t",
		Message:   "m",
	})
	if !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestCreateNotificationRequiresAddressee(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateNotification(f.ctx, &CreateNotificationInput{
		Type:    "INFO",
		Titre:   "t",
		Message: "m",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestListMineUnreadFirst(t *testing.T) {
	f := newFixture()
	// Oldest first: read, unread, read, unread.
	f.seed(true)
	f.seed(false)
	f.seed(true)
	f.seed(false)

	items, err := f.svc.ListMine(f.ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(items))
	}
	if items[0].Lue || items[1].Lue {
		t.Errorf("expected unread notifications first")
	}
	if !items[2].Lue || !items[3].Lue {
		t.Errorf("expected read notifications last")
	}
	// Within each group the newest-first order is preserved.
	if items[0].CreatedAt.Before(items[1].CreatedAt) {
		t.Errorf("unread group not ordered newest first")
	}
	if items[2].CreatedAt.Before(items[3].CreatedAt) {
		t.Errorf("read group not ordered newest first")
	}
}

func TestMarkAsReadOwnership(t *testing.T) {
	f := newFixture()
	mine := f.seed(false)

	other := uuid.New()
	foreign := &Notification{ProfessionnelID: &other, Type: "INFO", Titre: "t", Message: "m"}
	if err := f.repo.Create(context.Background(), foreign); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.MarkAsRead(f.ctx, mine.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.MarkAsRead(f.ctx, foreign.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for foreign notification, got %v", err)
	}
}

func TestMarkAsReadIdempotent(t *testing.T) {
	f := newFixture()
	n := f.seed(false)

	if err := f.svc.MarkAsRead(f.ctx, n.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.MarkAsRead(f.ctx, n.ID); err != nil {
		t.Errorf("expected second mark to be a no-op, got %v", err)
	}
}

func TestMarkAllAsReadIdempotent(t *testing.T) {
	f := newFixture()
	f.seed(false)
	f.seed(false)
	f.seed(true)

	changed, err := f.svc.MarkAllAsRead(f.ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 2 {
		t.Errorf("expected 2 notifications marked, got %d", changed)
	}

	changed, err = f.svc.MarkAllAsRead(f.ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 0 {
		t.Errorf("expected second call to change nothing, got %d", changed)
	}

	unread, err := f.svc.CountUnread(f.ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread != 0 {
		t.Errorf("expected zero unread, got %d", unread)
	}
}

func TestProfessionnelNotifierRecordsNotification(t *testing.T) {
	repo := newMockNotificationRepo()
	notifier := &ProfessionnelNotifier{Notifications: repo}
	proID := uuid.New()

	err := notifier.NotifyProfessionnel(context.Background(), proID, "WARNING", "titre", "message", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, _ := repo.ListByProfessionnel(context.Background(), proID)
	if len(items) != 1 || items[0].Type != "WARNING" {
		t.Fatalf("expected one WARNING notification")
	}
}
