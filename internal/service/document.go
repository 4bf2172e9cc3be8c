package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"alpwiki/internal/domain"
	"alpwiki/internal/domain/models"
	"alpwiki/internal/domain/repositories"
	"alpwiki/internal/domain/services"
	"alpwiki/internal/kinds"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo     repositories.DocumentRepository
	historyRepo repositories.HistoryRepository
	txManager   repositories.TransactionManager
	registry    *kinds.Registry
	logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	historyRepo repositories.HistoryRepository,
	txManager repositories.TransactionManager,
	registry *kinds.Registry,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		registry:    registry,
		logger:      logger,
	}
}

// Create persists a new document and writes its revision-1 ledger batch.
// The aggregate insert, the snapshots and the ledger rows commit as one unit.
func (s *documentService) Create(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, []*models.DocumentVersion, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, nil, err
	}

	doc := &models.Document{
		Kind:         req.Kind,
		Quality:      qualityOrDefault(req.Quality),
		Revision:     1,
		VersionToken: uuid.NewString(),
	}
	if req.Kind == models.KindWaypoint {
		doc.Waypoint = &models.WaypointFields{
			WaypointType: req.WaypointType,
			Elevation:    req.Elevation,
		}
	}
	for _, in := range req.Locales {
		doc.Locales = append(doc.Locales, &models.DocumentLocale{
			Lang:         in.Lang,
			Title:        in.Title,
			Description:  in.Description,
			Access:       in.Access,
			Version:      1,
			VersionToken: uuid.NewString(),
		})
	}

	var entries []*models.DocumentVersion
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return err
		}

		meta := s.newMetadata(req.UserID, req.Comment, "creation", req.IsMinor)
		archive := doc.ToArchive()
		archiveLocales := doc.ArchiveLocales()
		entries = buildLedger(doc, archive, archiveLocales, meta)
		return s.historyRepo.InsertEditRecords(txCtx, archive, archiveLocales, meta, entries)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("document created",
		"document_id", doc.DocumentID,
		"kind", doc.Kind,
		"locales", len(doc.Locales),
	)
	return doc, entries, nil
}

// Update runs one full edit: token check, merge, classification, counter and
// token advancement, aggregate save and ledger batch, all inside one
// transaction. Any failure leaves the persisted state untouched.
func (s *documentService) Update(ctx context.Context, documentID int64, req *services.UpdateDocumentRequest) (*models.Document, []*models.DocumentVersion, error) {
	if err := s.validateUpdate(req); err != nil {
		return nil, nil, err
	}

	var doc *models.Document
	var entries []*models.DocumentVersion
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		current, err := s.docRepo.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		before := current.Clone()

		// Concurrency guard: document token first, then the token of every
		// existing locale the caller is editing. Untouched locales are not
		// checked; a new language has no token yet.
		if req.VersionToken != current.VersionToken {
			return &domain.StaleWriteError{
				Message:      fmt.Sprintf("document %d was modified by another editor", documentID),
				ResourceType: "document",
			}
		}
		for _, in := range req.Locales {
			existing := current.GetLocale(in.Lang)
			if existing == nil {
				continue
			}
			if in.VersionToken != existing.VersionToken {
				return &domain.StaleWriteError{
					Message:      fmt.Sprintf("locale %q of document %d was modified by another editor", in.Lang, documentID),
					ResourceType: "locale",
					Lang:         in.Lang,
				}
			}
		}

		current.ApplyUpdate(incomingDocument(current, req))

		updateType, changedLangs := models.ClassifyUpdate(before, current)

		// Every committed edit advances the revision, even a None edit:
		// classification is informational, not a gate on persistence.
		current.Revision++
		if updateType == models.UpdateFiguresOnly || updateType == models.UpdateAll {
			current.VersionToken = uuid.NewString()
		}

		changed := make(map[string]struct{}, len(changedLangs))
		for _, lang := range changedLangs {
			changed[lang] = struct{}{}
		}
		changedLocaleTokens := make(map[int64]string)
		for _, l := range current.Locales {
			if _, ok := changed[l.Lang]; !ok {
				continue
			}
			if l.ID == 0 {
				// appended by the merge, identity assigned on save
				l.Version = 1
				l.VersionToken = uuid.NewString()
				continue
			}
			changedLocaleTokens[l.ID] = l.VersionToken
			l.Version++
			l.VersionToken = uuid.NewString()
		}

		if err := s.docRepo.Save(txCtx, current, before.VersionToken, changedLocaleTokens); err != nil {
			return err
		}

		meta := s.newMetadata(req.UserID, req.Comment, "update", req.IsMinor)
		archive := current.ToArchive()
		archiveLocales := current.ArchiveLocales()
		entries = buildLedger(current, archive, archiveLocales, meta)
		if err := s.historyRepo.InsertEditRecords(txCtx, archive, archiveLocales, meta, entries); err != nil {
			return err
		}

		s.logger.Info("document updated",
			"document_id", documentID,
			"revision", current.Revision,
			"update_type", updateType,
			"changed_langs", changedLangs,
		)
		doc = current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, entries, nil
}

// Get retrieves a document, optionally restricted to one language
func (s *documentService) Get(ctx context.Context, documentID int64, lang string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if lang != "" {
		filtered := make([]*models.DocumentLocale, 0, 1)
		for _, l := range doc.Locales {
			if l.Lang == lang {
				filtered = append(filtered, l)
			}
		}
		doc.Locales = filtered
	}
	return doc, nil
}

// List retrieves all documents of one kind
func (s *documentService) List(ctx context.Context, kind models.Kind) ([]*models.Document, error) {
	return s.docRepo.List(ctx, kind)
}

// History lists the revision ledger of a document newest first
func (s *documentService) History(ctx context.Context, documentID int64, lang string) ([]*models.DocumentVersion, error) {
	// surface NotFound before an empty ledger listing
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.historyRepo.ListVersions(ctx, documentID, lang)
}

// newMetadata builds the edit metadata shared by every ledger row of one edit
func (s *documentService) newMetadata(userID, comment, fallback string, isMinor bool) *models.HistoryMetadata {
	if comment == "" {
		comment = fallback
	}
	return &models.HistoryMetadata{
		UserID:    userID,
		Comment:   comment,
		IsMinor:   isMinor,
		WrittenAt: time.Now().UTC(),
	}
}

// buildLedger creates one ledger row per current locale. All rows share the
// edit's revision number, the archive snapshot and the metadata; each row
// points to the locale's own snapshot.
func buildLedger(doc *models.Document, archive *models.ArchiveDocument, archiveLocales []*models.ArchiveDocumentLocale, meta *models.HistoryMetadata) []*models.DocumentVersion {
	entries := make([]*models.DocumentVersion, 0, len(doc.Locales))
	for i, l := range doc.Locales {
		entries = append(entries, &models.DocumentVersion{
			DocumentID:    doc.DocumentID,
			Lang:          l.Lang,
			Version:       doc.Revision,
			Nature:        models.NatureFullText,
			Archive:       archive,
			ArchiveLocale: archiveLocales[i],
			Metadata:      meta,
		})
	}
	return entries
}

// incomingDocument converts a request into the caller-writable slice of a
// document for the merge. Fields the caller may not set (identity, kind,
// protected, redirects_to, revision, tokens) never appear here.
func incomingDocument(current *models.Document, req *services.UpdateDocumentRequest) *models.Document {
	incoming := &models.Document{
		Quality: req.Quality,
	}
	if incoming.Quality == "" {
		incoming.Quality = current.Quality
	}
	if current.Kind == models.KindWaypoint {
		incoming.Waypoint = &models.WaypointFields{
			WaypointType: req.WaypointType,
			Elevation:    req.Elevation,
		}
		if incoming.Waypoint.WaypointType == "" && current.Waypoint != nil {
			incoming.Waypoint.WaypointType = current.Waypoint.WaypointType
		}
	}
	for _, in := range req.Locales {
		incoming.Locales = append(incoming.Locales, &models.DocumentLocale{
			Lang:        in.Lang,
			Title:       in.Title,
			Description: in.Description,
			Access:      in.Access,
		})
	}
	return incoming
}

func qualityOrDefault(q models.Quality) models.Quality {
	if q == "" {
		return models.QualityStub
	}
	return q
}

func (s *documentService) validateCreate(req *services.CreateDocumentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Kind, validation.Required, validation.By(s.kindRule)),
		validation.Field(&req.Quality, validation.By(s.qualityRule)),
		validation.Field(&req.Locales, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Kind == models.KindWaypoint {
		if req.WaypointType == "" {
			return fmt.Errorf("%w: waypoint_type is missing", domain.ErrValidation)
		}
		if !s.registry.IsWaypointType(string(req.Kind), req.WaypointType) {
			return fmt.Errorf("%w: unknown waypoint_type %q", domain.ErrValidation, req.WaypointType)
		}
	}
	return s.validateLocales(req.Locales)
}

func (s *documentService) validateUpdate(req *services.UpdateDocumentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.VersionToken, validation.Required),
		validation.Field(&req.Quality, validation.By(s.qualityRule)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.WaypointType != "" && !s.registry.IsWaypointType(string(models.KindWaypoint), req.WaypointType) {
		return fmt.Errorf("%w: unknown waypoint_type %q", domain.ErrValidation, req.WaypointType)
	}
	return s.validateLocales(req.Locales)
}

// validateLocales rejects malformed locale submissions before any mutation:
// unknown languages, missing titles and duplicate language codes within one
// submission.
func (s *documentService) validateLocales(locales []services.LocaleInput) error {
	seen := make(map[string]struct{}, len(locales))
	for _, l := range locales {
		if len(l.Lang) != 2 || !s.registry.IsLang(l.Lang) {
			return fmt.Errorf("%w: unsupported lang %q", domain.ErrValidation, l.Lang)
		}
		if l.Title == "" {
			return fmt.Errorf("%w: locale %q: title is required", domain.ErrValidation, l.Lang)
		}
		if _, dup := seen[l.Lang]; dup {
			return fmt.Errorf("%w: duplicate lang %q in submission", domain.ErrValidation, l.Lang)
		}
		seen[l.Lang] = struct{}{}
	}
	return nil
}

func (s *documentService) kindRule(value interface{}) error {
	kind, _ := value.(models.Kind)
	if !s.registry.IsKind(string(kind)) {
		return fmt.Errorf("unknown document kind %q", kind)
	}
	return nil
}

func (s *documentService) qualityRule(value interface{}) error {
	quality, _ := value.(models.Quality)
	if quality == "" {
		return nil
	}
	if !s.registry.IsQuality(string(quality)) {
		return fmt.Errorf("unknown quality %q", quality)
	}
	return nil
}
