package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"alpwiki/internal/domain"
	"alpwiki/internal/domain/models"
	"alpwiki/internal/domain/repositories"
	"alpwiki/internal/domain/services"
	"alpwiki/internal/kinds"
)

// fakeTxManager runs the function directly; the fakes have no transactions
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fakeDocumentRepo struct {
	docs         map[int64]*models.Document
	nextDocID    int64
	nextLocaleID int64
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[int64]*models.Document)}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	r.nextDocID++
	doc.DocumentID = r.nextDocID
	for _, l := range doc.Locales {
		r.nextLocaleID++
		l.ID = r.nextLocaleID
		l.DocumentID = doc.DocumentID
	}
	r.docs[doc.DocumentID] = doc.Clone()
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (r *fakeDocumentRepo) GetForUpdate(ctx context.Context, id int64) (*models.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDocumentRepo) Save(ctx context.Context, doc *models.Document, expectedToken string, changedLocaleTokens map[int64]string) error {
	stored, ok := r.docs[doc.DocumentID]
	if !ok || stored.VersionToken != expectedToken {
		return &domain.StaleWriteError{Message: "document token mismatch", ResourceType: "document"}
	}
	for id, expected := range changedLocaleTokens {
		for _, l := range stored.Locales {
			if l.ID == id && l.VersionToken != expected {
				return &domain.StaleWriteError{Message: "locale token mismatch", ResourceType: "locale", Lang: l.Lang}
			}
		}
	}
	for _, l := range doc.Locales {
		if l.ID == 0 {
			r.nextLocaleID++
			l.ID = r.nextLocaleID
			l.DocumentID = doc.DocumentID
		}
	}
	r.docs[doc.DocumentID] = doc.Clone()
	return nil
}

func (r *fakeDocumentRepo) List(ctx context.Context, kind models.Kind) ([]*models.Document, error) {
	var docs []*models.Document
	for _, d := range r.docs {
		if d.Kind == kind {
			docs = append(docs, d.Clone())
		}
	}
	return docs, nil
}

type fakeHistoryRepo struct {
	archives []*models.ArchiveDocument
	locales  []*models.ArchiveDocumentLocale
	metas    []*models.HistoryMetadata
	entries  []*models.DocumentVersion
	nextID   int64
}

func (r *fakeHistoryRepo) InsertEditRecords(ctx context.Context, archive *models.ArchiveDocument, locales []*models.ArchiveDocumentLocale, meta *models.HistoryMetadata, entries []*models.DocumentVersion) error {
	r.nextID++
	archive.ID = r.nextID
	r.archives = append(r.archives, archive)
	for _, l := range locales {
		r.nextID++
		l.ID = r.nextID
		r.locales = append(r.locales, l)
	}
	r.nextID++
	meta.ID = r.nextID
	r.metas = append(r.metas, meta)
	for _, e := range entries {
		e.ArchiveID = e.Archive.ID
		e.ArchiveLocaleID = e.ArchiveLocale.ID
		e.MetadataID = e.Metadata.ID
		r.nextID++
		e.ID = r.nextID
		r.entries = append(r.entries, e)
	}
	return nil
}

func (r *fakeHistoryRepo) ListVersions(ctx context.Context, documentID int64, lang string) ([]*models.DocumentVersion, error) {
	var out []*models.DocumentVersion
	for _, e := range r.entries {
		if e.DocumentID == documentID && (lang == "" || e.Lang == lang) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	svc     services.DocumentService
	docRepo *fakeDocumentRepo
	history *fakeHistoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := kinds.NewRegistry()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	docRepo := newFakeDocumentRepo()
	history := &fakeHistoryRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:     NewDocumentService(docRepo, history, fakeTxManager{}, registry, logger),
		docRepo: docRepo,
		history: history,
	}
}

func createWaypointReq(locales ...services.LocaleInput) *services.CreateDocumentRequest {
	return &services.CreateDocumentRequest{
		Kind:         models.KindWaypoint,
		WaypointType: "summit",
		Elevation:    intPtr(2203),
		Locales:      locales,
	}
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestCreateProducesFirstRevision(t *testing.T) {
	f := newFixture(t)

	req := createWaypointReq(
		services.LocaleInput{Lang: "en", Title: "Mont Pourri", Access: strPtr("y")},
	)
	req.UserID = "user-1"
	doc, versions, err := f.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if doc.DocumentID == 0 || doc.Revision != 1 || doc.VersionToken == "" {
		t.Errorf("doc = id %d rev %d token %q, want assigned id, revision 1, token set", doc.DocumentID, doc.Revision, doc.VersionToken)
	}
	if len(versions) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(versions))
	}
	v := versions[0]
	if v.Lang != "en" || v.Version != 1 || v.Nature != models.NatureFullText {
		t.Errorf("entry = %+v, want en/1/ft", v)
	}
	if v.Metadata.Comment != "creation" || v.Metadata.WrittenAt.IsZero() {
		t.Errorf("metadata = %+v, want comment creation with server timestamp", v.Metadata)
	}
	if v.Metadata.UserID != "user-1" {
		t.Errorf("metadata user = %q, want the requesting editor", v.Metadata.UserID)
	}
	if v.Archive.DocumentID != doc.DocumentID || v.Archive.Version != 1 {
		t.Errorf("archive = %+v, want snapshot of revision 1", v.Archive)
	}
	if v.ArchiveLocale.Lang != "en" || v.ArchiveLocale.Version != 1 {
		t.Errorf("locale archive = %+v, want en at version 1", v.ArchiveLocale)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *services.CreateDocumentRequest
	}{
		{"no locales", createWaypointReq()},
		{"missing title", createWaypointReq(services.LocaleInput{Lang: "en"})},
		{"unknown lang", createWaypointReq(services.LocaleInput{Lang: "xx", Title: "A"})},
		{"duplicate langs", createWaypointReq(
			services.LocaleInput{Lang: "en", Title: "A"},
			services.LocaleInput{Lang: "en", Title: "B"},
		)},
		{"unknown waypoint type", &services.CreateDocumentRequest{
			Kind:         models.KindWaypoint,
			WaypointType: "volcano",
			Locales:      []services.LocaleInput{{Lang: "en", Title: "A"}},
		}},
		{"missing waypoint type", &services.CreateDocumentRequest{
			Kind:    models.KindWaypoint,
			Locales: []services.LocaleInput{{Lang: "en", Title: "A"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Create(ctx, tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation failure", err)
			}
		})
	}
	if len(f.history.entries) != 0 {
		t.Error("rejected creations left ledger rows behind")
	}
}

// figures-only edit on a two-locale document: every locale gets a ledger row
// sharing the new revision, the metadata and the archive snapshot, while the
// untouched locales keep their own version counters in their snapshots.
func TestUpdateFiguresOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, _, err := f.svc.Create(ctx, createWaypointReq(
		services.LocaleInput{Lang: "en", Title: "Mont Granier", Access: strPtr("yep")},
		services.LocaleInput{Lang: "fr", Title: "Mont Granier", Access: strPtr("ouai")},
	))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, versions, err := f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: doc.VersionToken,
		WaypointType: "summit",
		Elevation:    intPtr(1234),
		Locales: []services.LocaleInput{
			{Lang: "en", Title: "Mont Granier", Access: strPtr("yep"), VersionToken: doc.GetLocale("en").VersionToken},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Revision != 2 {
		t.Errorf("revision = %d, want 2", updated.Revision)
	}
	if updated.VersionToken == doc.VersionToken {
		t.Error("document token did not rotate on a figures change")
	}
	if got := updated.GetLocale("en").VersionToken; got != doc.GetLocale("en").VersionToken {
		t.Error("unchanged locale token rotated")
	}

	if len(versions) != 2 {
		t.Fatalf("got %d ledger entries, want one per locale", len(versions))
	}
	en, fr := versions[0], versions[1]
	if en.Version != 2 || fr.Version != 2 {
		t.Errorf("entry versions = %d/%d, want both 2", en.Version, fr.Version)
	}
	if en.Metadata != fr.Metadata {
		t.Error("entries do not share the edit metadata")
	}
	if en.Metadata.Comment != "update" {
		t.Errorf("comment = %q, want update", en.Metadata.Comment)
	}
	if en.Archive != fr.Archive {
		t.Error("entries do not share the archive snapshot")
	}
	if en.ArchiveLocale == fr.ArchiveLocale {
		t.Error("entries share a locale snapshot")
	}
	if *en.Archive.Waypoint.Elevation != 1234 {
		t.Errorf("archive elevation = %d, want post-merge 1234", *en.Archive.Waypoint.Elevation)
	}
	// both locales were untouched, their snapshots keep the pre-edit counter
	if en.ArchiveLocale.Version != 1 || fr.ArchiveLocale.Version != 1 {
		t.Errorf("locale snapshot versions = %d/%d, want 1/1", en.ArchiveLocale.Version, fr.ArchiveLocale.Version)
	}
}

func TestUpdateNewLang(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, _, err := f.svc.Create(ctx, createWaypointReq(
		services.LocaleInput{Lang: "en", Title: "A"},
	))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, versions, err := f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: doc.VersionToken,
		WaypointType: "summit",
		Elevation:    intPtr(2203),
		Locales: []services.LocaleInput{
			{Lang: "es", Title: "D", Description: strPtr("efg")},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	es := updated.GetLocale("es")
	if es == nil || es.ID == 0 || es.Version != 1 || es.VersionToken == "" {
		t.Fatalf("es locale = %+v, want appended with identity, version 1 and token", es)
	}
	// lang-only edit: the document token must not rotate
	if updated.VersionToken != doc.VersionToken {
		t.Error("document token rotated on a lang-only edit")
	}
	if len(versions) != 2 {
		t.Fatalf("got %d ledger entries, want 2", len(versions))
	}
	if versions[1].Lang != "es" || versions[1].ArchiveLocale.Version != 1 {
		t.Errorf("es entry = %+v", versions[1])
	}
}

func TestUpdateStaleDocumentToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, _, err := f.svc.Create(ctx, createWaypointReq(
		services.LocaleInput{Lang: "en", Title: "A"},
	))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	staleToken := doc.VersionToken

	// first editor wins and rotates the document token
	if _, _, err := f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: staleToken,
		WaypointType: "summit",
		Elevation:    intPtr(999),
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	rowsAfterFirst := len(f.history.entries)

	_, _, err = f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: staleToken,
		WaypointType: "summit",
		Elevation:    intPtr(555),
	})
	if !errors.Is(err, domain.ErrStaleWrite) {
		t.Fatalf("err = %v, want stale write", err)
	}

	if len(f.history.entries) != rowsAfterFirst {
		t.Error("rejected edit left ledger rows behind")
	}
	stored, _ := f.docRepo.GetByID(ctx, doc.DocumentID)
	if *stored.Waypoint.Elevation != 999 {
		t.Errorf("stored elevation = %d, want the first commit's 999", *stored.Waypoint.Elevation)
	}
}

func TestUpdateStaleLocaleToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, _, err := f.svc.Create(ctx, createWaypointReq(
		services.LocaleInput{Lang: "en", Title: "A"},
	))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	staleLocaleToken := doc.GetLocale("en").VersionToken

	updated, _, err := f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: doc.VersionToken,
		WaypointType: "summit",
		Elevation:    intPtr(2203),
		Locales: []services.LocaleInput{
			{Lang: "en", Title: "A2", VersionToken: staleLocaleToken},
		},
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	_, _, err = f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: updated.VersionToken,
		WaypointType: "summit",
		Elevation:    intPtr(2203),
		Locales: []services.LocaleInput{
			{Lang: "en", Title: "A3", VersionToken: staleLocaleToken},
		},
	})
	var stale *domain.StaleWriteError
	if !errors.As(err, &stale) || stale.Lang != "en" {
		t.Fatalf("err = %v, want locale-level stale write for en", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Update(context.Background(), 9999, &services.UpdateDocumentRequest{
		VersionToken: "whatever",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

// an edit that changes nothing still snapshots: classification is
// informational, not a gate on persistence
func TestUpdateNoneStillWritesLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, _, err := f.svc.Create(ctx, createWaypointReq(
		services.LocaleInput{Lang: "en", Title: "A", Description: strPtr("abc")},
	))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, versions, err := f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: doc.VersionToken,
		WaypointType: "summit",
		Elevation:    intPtr(2203),
		Locales: []services.LocaleInput{
			{Lang: "en", Title: "A", Description: strPtr("abc"), VersionToken: doc.GetLocale("en").VersionToken},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Revision != 2 {
		t.Errorf("revision = %d, want 2 even for a no-op edit", updated.Revision)
	}
	if updated.VersionToken != doc.VersionToken {
		t.Error("document token rotated though nothing changed")
	}
	if len(versions) != 1 || versions[0].Version != 2 {
		t.Errorf("entries = %+v, want one row at revision 2", versions)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, _, err := f.svc.Create(ctx, createWaypointReq(
		services.LocaleInput{Lang: "en", Title: "A"},
	))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := f.svc.Update(ctx, doc.DocumentID, &services.UpdateDocumentRequest{
		VersionToken: doc.VersionToken,
		WaypointType: "summit",
		Elevation:    intPtr(42),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	versions, err := f.svc.History(ctx, doc.DocumentID, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d history rows, want 2", len(versions))
	}

	if _, err := f.svc.History(ctx, 9999, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("history of unknown document: err = %v, want not found", err)
	}
}
