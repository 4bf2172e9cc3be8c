package repositories

import (
	"context"

	"alpwiki/internal/domain/models"
)

// DocumentRepository defines data access operations for documents and their
// locales. Identity allocation for new rows is the repository's job; the
// service never assigns ids.
type DocumentRepository interface {
	// Create inserts a new document with its locales, assigning identities
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document with all its locales
	GetByID(ctx context.Context, id int64) (*models.Document, error)

	// GetForUpdate retrieves a document with all its locales while taking a
	// write lock on the document row for the remainder of the transaction.
	// Must be called inside a transaction; it is the single-writer section
	// that keeps concurrent edits of the same document serialized.
	GetForUpdate(ctx context.Context, id int64) (*models.Document, error)

	// Save persists the post-merge aggregate state. The document update
	// carries a compare-and-swap predicate on expectedToken and fails with a
	// StaleWriteError when the persisted token no longer matches. Existing
	// locales listed in changedLocaleTokens (locale id -> expected token)
	// are updated under the same predicate; locales without an identity are
	// inserted and receive one. Untouched locales are not written.
	Save(ctx context.Context, doc *models.Document, expectedToken string, changedLocaleTokens map[int64]string) error

	// List retrieves all documents of one kind, locales included
	List(ctx context.Context, kind models.Kind) ([]*models.Document, error)
}

// HistoryRepository defines data access operations for the revision ledger
type HistoryRepository interface {
	// InsertEditRecords persists the full output of one edit: the shared
	// archive snapshot, one locale snapshot per locale, the shared edit
	// metadata, and one ledger row per locale. Foreign-key fields on the
	// entries are filled from the assigned identities. Must be called inside
	// the same transaction as the aggregate save; a failure aborts the batch.
	InsertEditRecords(ctx context.Context, archive *models.ArchiveDocument, locales []*models.ArchiveDocumentLocale, meta *models.HistoryMetadata, entries []*models.DocumentVersion) error

	// ListVersions returns the ledger rows of a document newest first,
	// optionally filtered by language code, each with its metadata loaded
	ListVersions(ctx context.Context, documentID int64, lang string) ([]*models.DocumentVersion, error)
}
