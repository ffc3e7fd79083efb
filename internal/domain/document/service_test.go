package document

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

type mockDocumentRepo struct {
	documents map[uuid.UUID]*Document
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{documents: make(map[uuid.UUID]*Document)}
}

func (m *mockDocumentRepo) Create(_ context.Context, d *Document) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	m.documents[d.ID] = d
	return nil
}

func (m *mockDocumentRepo) Get(_ context.Context, id uuid.UUID) (*Document, error) {
	d, ok := m.documents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (m *mockDocumentRepo) Update(_ context.Context, d *Document) error {
	m.documents[d.ID] = d
	return nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.documents[id]
	delete(m.documents, id)
	return ok, nil
}

func (m *mockDocumentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Document, error) {
	items := make([]*Document, 0)
	for _, d := range m.documents {
		if d.PatientID == patientID {
			items = append(items, d)
		}
	}
	return items, nil
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
	svc       *Service
	repo      *mockDocumentRepo
	patientID uuid.UUID
	ctx       context.Context
}

func newFixture() *fixture {
	repo := newMockDocumentRepo()
	patientID := uuid.New()
	links := &stubLinks{linked: map[uuid.UUID]bool{patientID: true}}
	svc := NewService(repo, access.NewEvaluator(&stubDirectory{proID: uuid.New()}, links))
	return &fixture{
		svc:       svc,
		repo:      repo,
		patientID: patientID,
		ctx:       auth.WithUserID(context.Background(), "pro1"),
	}
}

func validInput(patientID uuid.UUID) *CreateDocumentInput {
	return &CreateDocumentInput{
		PatientID:     patientID,
		Nom:           "carte-identite.pdf",
		Categorie:     "IDENTITE",
		CheminFichier: "/documents/carte-identite.pdf",
		TypeMime:      "application/pdf",
		Taille:        "84213",
	}
}

// -- Tests --

func TestCreateDocument(t *testing.T) {
	f := newFixture()

	d, err := f.svc.CreateDocument(f.ctx, validInput(f.patientID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Errorf("expected document id to be set")
	}
}

func TestCreateDocumentInvalidCategorie(t *testing.T) {
	f := newFixture()
	in := validInput(f.patientID)
	in.Categorie = "FISCAL"

	_, err := f.svc.CreateDocument(f.ctx, in)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateDocumentUnlinkedPatient(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateDocument(f.ctx, validInput(uuid.New()))
	if !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestGetDocumentHiddenReadsAsNotFound(t *testing.T) {
	f := newFixture()
	hidden := &Document{PatientID: uuid.New(), Nom: "x", Categorie: "AUTRE", CheminFichier: "/x", TypeMime: "text/plain"}
	if err := f.repo.Create(context.Background(), hidden); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.GetDocument(f.ctx, hidden.ID)
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found for inaccessible document, got %v", err)
	}
}

func TestUpdateDocumentPartial(t *testing.T) {
	f := newFixture()
	d, err := f.svc.CreateDocument(f.ctx, validInput(f.patientID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nom := "piece-identite.pdf"
	updated, err := f.svc.UpdateDocument(f.ctx, d.ID, &DocumentUpdate{Nom: &nom})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Nom != "piece-identite.pdf" {
		t.Errorf("expected updated nom")
	}
	if updated.Categorie != "IDENTITE" {
		t.Errorf("untouched field changed")
	}
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture()
	d, err := f.svc.CreateDocument(f.ctx, validInput(f.patientID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.DeleteDocument(f.ctx, d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.DeleteDocument(f.ctx, d.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestListByPatientRunsPolicyCheck(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.CreateDocument(f.ctx, validInput(f.patientID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := f.svc.ListByPatient(f.ctx, f.patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 document, got %d", len(items))
	}

	if _, err := f.svc.ListByPatient(f.ctx, uuid.New()); !apperr.IsForbidden(err) {
		t.Errorf("expected forbidden for unlinked patient, got %v", err)
	}
}
