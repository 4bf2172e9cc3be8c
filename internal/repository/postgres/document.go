package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"alpwiki/internal/domain"
	"alpwiki/internal/domain/models"
	"alpwiki/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document with its locales, assigning identities
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (kind, protected, redirects_to, quality, revision, version_token, waypoint_type, elevation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING document_id
	`, r.tables.Documents)

	waypointType, elevation := waypointColumns(doc)
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Kind,
		doc.Protected,
		doc.RedirectsTo,
		doc.Quality,
		doc.Revision,
		doc.VersionToken,
		waypointType,
		elevation,
	).Scan(&doc.DocumentID)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	for _, l := range doc.Locales {
		l.DocumentID = doc.DocumentID
		if err := r.insertLocale(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a document with all its locales
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves a document while write-locking its row. Must run
// inside a transaction; the lock serializes concurrent edits per document
// while leaving edits of other documents fully parallel.
func (r *PostgresDocumentRepository) GetForUpdate(ctx context.Context, id int64) (*models.Document, error) {
	return r.get(ctx, id, true)
}

func (r *PostgresDocumentRepository) get(ctx context.Context, id int64, forUpdate bool) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT document_id, kind, protected, redirects_to, quality, revision, version_token, waypoint_type, elevation
		FROM %s
		WHERE document_id = $1
	`, r.tables.Documents)
	if forUpdate {
		query += " FOR UPDATE"
	}

	executor := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	if err := r.loadLocales(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save persists the post-merge aggregate. The document row update and every
// changed-locale update carry a compare-and-swap predicate on the version
// token read before the merge; zero affected rows means another editor won.
func (r *PostgresDocumentRepository) Save(ctx context.Context, doc *models.Document, expectedToken string, changedLocaleTokens map[int64]string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET quality = $1, revision = $2, version_token = $3, waypoint_type = $4, elevation = $5
		WHERE document_id = $6 AND version_token = $7
	`, r.tables.Documents)

	waypointType, elevation := waypointColumns(doc)
	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		doc.Quality,
		doc.Revision,
		doc.VersionToken,
		waypointType,
		elevation,
		doc.DocumentID,
		expectedToken,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.StaleWriteError{
			Message:      fmt.Sprintf("document %d was modified by another editor", doc.DocumentID),
			ResourceType: "document",
		}
	}

	for _, l := range doc.Locales {
		if l.ID == 0 {
			l.DocumentID = doc.DocumentID
			if err := r.insertLocale(ctx, l); err != nil {
				return err
			}
			continue
		}
		prevToken, changed := changedLocaleTokens[l.ID]
		if !changed {
			continue
		}
		if err := r.updateLocale(ctx, l, prevToken); err != nil {
			return err
		}
	}
	return nil
}

// List retrieves all documents of one kind, locales included
func (r *PostgresDocumentRepository) List(ctx context.Context, kind models.Kind) ([]*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT document_id, kind, protected, redirects_to, quality, revision, version_token, waypoint_type, elevation
		FROM %s
		WHERE kind = $1
		ORDER BY document_id
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	for _, doc := range docs {
		if err := r.loadLocales(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (r *PostgresDocumentRepository) insertLocale(ctx context.Context, l *models.DocumentLocale) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, lang, title, description, access, version, version_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.tables.DocumentLocales)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		l.DocumentID,
		l.Lang,
		l.Title,
		l.Description,
		l.Access,
		l.Version,
		l.VersionToken,
	).Scan(&l.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("locale %q already exists on document %d: %w", l.Lang, l.DocumentID, domain.ErrValidation)
		}
		return fmt.Errorf("insert locale: %w", err)
	}
	return nil
}

func (r *PostgresDocumentRepository) updateLocale(ctx context.Context, l *models.DocumentLocale, expectedToken string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, access = $3, version = $4, version_token = $5
		WHERE id = $6 AND version_token = $7
	`, r.tables.DocumentLocales)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		l.Title,
		l.Description,
		l.Access,
		l.Version,
		l.VersionToken,
		l.ID,
		expectedToken,
	)
	if err != nil {
		return fmt.Errorf("update locale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.StaleWriteError{
			Message:      fmt.Sprintf("locale %q of document %d was modified by another editor", l.Lang, l.DocumentID),
			ResourceType: "locale",
			Lang:         l.Lang,
		}
	}
	return nil
}

func (r *PostgresDocumentRepository) loadLocales(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		SELECT id, document_id, lang, title, description, access, version, version_token
		FROM %s
		WHERE document_id = $1
		ORDER BY id
	`, r.tables.DocumentLocales)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, doc.DocumentID)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.DocumentLocale
		if err := rows.Scan(
			&l.ID,
			&l.DocumentID,
			&l.Lang,
			&l.Title,
			&l.Description,
			&l.Access,
			&l.Version,
			&l.VersionToken,
		); err != nil {
			return fmt.Errorf("load locales: %w", err)
		}
		doc.Locales = append(doc.Locales, &l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	return nil
}

// rowScanner is implemented by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var waypointType *string
	var elevation *int
	if err := row.Scan(
		&doc.DocumentID,
		&doc.Kind,
		&doc.Protected,
		&doc.RedirectsTo,
		&doc.Quality,
		&doc.Revision,
		&doc.VersionToken,
		&waypointType,
		&elevation,
	); err != nil {
		return nil, err
	}
	if doc.Kind == models.KindWaypoint {
		doc.Waypoint = &models.WaypointFields{Elevation: elevation}
		if waypointType != nil {
			doc.Waypoint.WaypointType = *waypointType
		}
	}
	return &doc, nil
}

func waypointColumns(doc *models.Document) (*string, *int) {
	if doc.Waypoint == nil {
		return nil, nil
	}
	return &doc.Waypoint.WaypointType, doc.Waypoint.Elevation
}
