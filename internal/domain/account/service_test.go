package account

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

type mockAccountRepo struct {
	users          map[string]*User
	professionnels map[uuid.UUID]*Professionnel
	particuliers   map[uuid.UUID]*Particulier
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		users:          make(map[string]*User),
		professionnels: make(map[uuid.UUID]*Professionnel),
		particuliers:   make(map[uuid.UUID]*Particulier),
	}
}

func (m *mockAccountRepo) addUser(id string, typ *string) {
	m.users[id] = &User{ID: id, Email: id + "@example.org", Name: id, Type: typ, CreatedAt: time.Now(), UpdatedAt: time.Now()}
}

func (m *mockAccountRepo) GetUser(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAccountRepo) SetUserType(_ context.Context, id, typ string) error {
	m.users[id].Type = &typ
	return nil
}

func (m *mockAccountRepo) CreateProfessionnel(_ context.Context, p *Professionnel) error {
	p.ID = uuid.New()
	m.professionnels[p.ID] = p
	return nil
}

func (m *mockAccountRepo) GetProfessionnelByID(_ context.Context, id uuid.UUID) (*Professionnel, error) {
	p, ok := m.professionnels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockAccountRepo) GetProfessionnelByUserID(_ context.Context, userID string) (*Professionnel, error) {
	for _, p := range m.professionnels {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockAccountRepo) CreateParticulier(_ context.Context, p *Particulier) error {
	p.ID = uuid.New()
	m.particuliers[p.ID] = p
	return nil
}

func (m *mockAccountRepo) GetParticulierByUserID(_ context.Context, userID string) (*Particulier, error) {
	for _, p := range m.particuliers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockAccountRepo) GetParticulierByPatientID(_ context.Context, patientID uuid.UUID) (*Particulier, error) {
	for _, p := range m.particuliers {
		if p.PatientID == patientID {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// access.Directory

func (m *mockAccountRepo) GetUserType(_ context.Context, userID string) (string, bool, error) {
	u, ok := m.users[userID]
	if !ok || u.Type == nil {
		return "", false, nil
	}
	return *u.Type, true, nil
}

func (m *mockAccountRepo) GetProfessionnelID(ctx context.Context, userID string) (uuid.UUID, bool, error) {
	p, err := m.GetProfessionnelByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return p.ID, true, nil
}

func (m *mockAccountRepo) GetParticulier(ctx context.Context, userID string) (uuid.UUID, uuid.UUID, bool, error) {
	p, err := m.GetParticulierByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false, nil
	}
	return p.ID, p.PatientID, true, nil
}

type allowAllLinks struct{}

func (allowAllLinks) LinkExists(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func strptr(s string) *string { return &s }

func newTestService(repo *mockAccountRepo) *Service {
	return NewService(repo, access.NewEvaluator(repo, allowAllLinks{}))
}

func ctxWithUser(userID string) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

// -- Tests --

func TestGetMeBeforeTypeIsSet(t *testing.T) {
	repo := newMockAccountRepo()
	repo.addUser("u1", nil)
	svc := newTestService(repo)

	me, err := svc.GetMe(ctxWithUser("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.User == nil || me.User.ID != "u1" {
		t.Errorf("expected user u1")
	}
	if me.Professionnel != nil || me.Particulier != nil {
		t.Errorf("expected no profile before type is set")
	}
}

func TestGetMeWithProfessionnelProfile(t *testing.T) {
	repo := newMockAccountRepo()
	repo.addUser("u1", strptr("PROFESSIONNEL"))
	svc := newTestService(repo)

	if err := svc.CreateProfessionnel(ctxWithUser("u1"), &Professionnel{Nom: "Durand", Prenom: "Claire", Fonction: "Assistante sociale"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	me, err := svc.GetMe(ctxWithUser("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.Professionnel == nil || me.Professionnel.Nom != "Durand" {
		t.Errorf("expected professionnel profile in response")
	}
}

func TestSetUserTypeOnce(t *testing.T) {
	repo := newMockAccountRepo()
	repo.addUser("u1", nil)
	svc := newTestService(repo)

	if err := svc.SetUserType(ctxWithUser("u1"), "PROFESSIONNEL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.SetUserType(ctxWithUser("u1"), "PARTICULIER")
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict on second set, got %v", err)
	}
}

func TestSetUserTypeInvalid(t *testing.T) {
	repo := newMockAccountRepo()
	repo.addUser("u1", nil)
	svc := newTestService(repo)

	err := svc.SetUserType(ctxWithUser("u1"), "ADMIN")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateProfessionnelRequiresType(t *testing.T) {
	repo := newMockAccountRepo()
	repo.addUser("u1", nil)
	svc := newTestService(repo)

	err := svc.CreateProfessionnel(ctxWithUser("u1"), &Professionnel{Nom: "Durand", Prenom: "Claire", Fonction: "CESF"})
	if !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden without type, got %v", err)
	}
}

func TestCreateProfessionnelTwice(t *testing.T) {
	repo := newMockAccountRepo()
	repo.addUser("u1", strptr("PROFESSIONNEL"))
	svc := newTestService(repo)

	p := &Professionnel{Nom: "Durand", Prenom: "Claire", Fonction: "CESF"}
	if err := svc.CreateProfessionnel(ctxWithUser("u1"), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.CreateProfessionnel(ctxWithUser("u1"), &Professionnel{Nom: "Durand", Prenom: "Claire", Fonction: "CESF"})
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func setupProfessionnel(t *testing.T, repo *mockAccountRepo, userID string) *Professionnel {
	t.Helper()
	repo.addUser(userID, strptr("PROFESSIONNEL"))
	p := &Professionnel{UserID: userID, Nom: "Durand", Prenom: "Claire", Fonction: "CESF"}
	p.ID = uuid.New()
	repo.professionnels[p.ID] = p
	return p
}

func TestCreateParticulierBindsUserAndPatient(t *testing.T) {
	repo := newMockAccountRepo()
	setupProfessionnel(t, repo, "pro1")
	repo.addUser("u2", nil)
	svc := newTestService(repo)

	patientID := uuid.New()
	p, err := svc.CreateParticulier(ctxWithUser("pro1"), "u2", patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PatientID != patientID {
		t.Errorf("wrong patient binding")
	}
	if typ := repo.users["u2"].Type; typ == nil || *typ != "PARTICULIER" {
		t.Errorf("expected user type set to PARTICULIER")
	}
}

func TestCreateParticulierRejectsReboundUser(t *testing.T) {
	repo := newMockAccountRepo()
	setupProfessionnel(t, repo, "pro1")
	repo.addUser("u2", nil)
	svc := newTestService(repo)

	if _, err := svc.CreateParticulier(ctxWithUser("pro1"), "u2", uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.CreateParticulier(ctxWithUser("pro1"), "u2", uuid.New())
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict for already-bound user, got %v", err)
	}
}

func TestCreateParticulierRejectsReboundPatient(t *testing.T) {
	repo := newMockAccountRepo()
	setupProfessionnel(t, repo, "pro1")
	repo.addUser("u2", nil)
	repo.addUser("u3", nil)
	svc := newTestService(repo)

	patientID := uuid.New()
	if _, err := svc.CreateParticulier(ctxWithUser("pro1"), "u2", patientID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.CreateParticulier(ctxWithUser("pro1"), "u3", patientID)
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict for already-bound patient, got %v", err)
	}
}

func TestCreateParticulierRequiresProfessionnel(t *testing.T) {
	repo := newMockAccountRepo()
	repo.addUser("u1", nil)
	svc := newTestService(repo)

	_, err := svc.CreateParticulier(ctxWithUser("u1"), "u2", uuid.New())
	if !apperr.IsKind(err, apperr.KindUnauthenticated) && !apperr.IsForbidden(err) {
		t.Errorf("expected auth failure, got %v", err)
	}
}
