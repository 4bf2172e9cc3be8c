package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"alpwiki/internal/domain/models"
	"alpwiki/internal/domain/repositories"
)

// PostgresHistoryRepository implements the HistoryRepository interface
type PostgresHistoryRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(config *RepositoryConfig) repositories.HistoryRepository {
	return &PostgresHistoryRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// InsertEditRecords persists one edit's snapshots, metadata and ledger rows.
// The archive and metadata rows are written once and referenced by id from
// every ledger row, so shared instances stay shared in the database.
// Runs inside the caller's transaction; any error aborts the whole batch.
func (r *PostgresHistoryRepository) InsertEditRecords(
	ctx context.Context,
	archive *models.ArchiveDocument,
	locales []*models.ArchiveDocumentLocale,
	meta *models.HistoryMetadata,
	entries []*models.DocumentVersion,
) error {
	executor := GetExecutor(ctx, r.pool)

	archiveQuery := fmt.Sprintf(`
		INSERT INTO %s (document_id, kind, protected, redirects_to, quality, version, waypoint_type, elevation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, r.tables.DocumentArchives)

	var waypointType *string
	var elevation *int
	if archive.Waypoint != nil {
		waypointType = &archive.Waypoint.WaypointType
		elevation = archive.Waypoint.Elevation
	}
	err := executor.QueryRow(ctx, archiveQuery,
		archive.DocumentID,
		archive.Kind,
		archive.Protected,
		archive.RedirectsTo,
		archive.Quality,
		archive.Version,
		waypointType,
		elevation,
	).Scan(&archive.ID)
	if err != nil {
		return fmt.Errorf("insert document archive: %w", err)
	}

	localeQuery := fmt.Sprintf(`
		INSERT INTO %s (document_id, lang, title, description, access, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.tables.DocumentLocaleArchives)
	for _, l := range locales {
		err := executor.QueryRow(ctx, localeQuery,
			l.DocumentID,
			l.Lang,
			l.Title,
			l.Description,
			l.Access,
			l.Version,
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert locale archive: %w", err)
		}
	}

	metaQuery := fmt.Sprintf(`
		INSERT INTO %s (user_id, comment, is_minor, written_at)
		VALUES (NULLIF($1, ''), $2, $3, $4)
		RETURNING id
	`, r.tables.HistoryMetadata)
	if err := executor.QueryRow(ctx, metaQuery, meta.UserID, meta.Comment, meta.IsMinor, meta.WrittenAt).Scan(&meta.ID); err != nil {
		return fmt.Errorf("insert history metadata: %w", err)
	}

	versionQuery := fmt.Sprintf(`
		INSERT INTO %s (document_id, lang, version, nature, archive_id, archive_locale_id, metadata_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.tables.DocumentVersions)
	for _, entry := range entries {
		entry.ArchiveID = entry.Archive.ID
		entry.ArchiveLocaleID = entry.ArchiveLocale.ID
		entry.MetadataID = entry.Metadata.ID
		err := executor.QueryRow(ctx, versionQuery,
			entry.DocumentID,
			entry.Lang,
			entry.Version,
			entry.Nature,
			entry.ArchiveID,
			entry.ArchiveLocaleID,
			entry.MetadataID,
		).Scan(&entry.ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("ledger entry for %q references a missing snapshot: %w", entry.Lang, err)
			}
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}

	return nil
}

// ListVersions returns the ledger rows of a document newest first, with
// their shared metadata loaded
func (r *PostgresHistoryRepository) ListVersions(ctx context.Context, documentID int64, lang string) ([]*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT v.id, v.document_id, v.lang, v.version, v.nature,
		       v.archive_id, v.archive_locale_id, v.metadata_id,
		       COALESCE(m.user_id, ''), m.comment, m.is_minor, m.written_at
		FROM %s v
		JOIN %s m ON m.id = v.metadata_id
		WHERE v.document_id = $1
	`, r.tables.DocumentVersions, r.tables.HistoryMetadata)

	args := []interface{}{documentID}
	if lang != "" {
		query += " AND v.lang = $2"
		args = append(args, lang)
	}
	query += " ORDER BY v.version DESC, v.lang"

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.DocumentVersion
	for rows.Next() {
		var v models.DocumentVersion
		var m models.HistoryMetadata
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.Lang,
			&v.Version,
			&v.Nature,
			&v.ArchiveID,
			&v.ArchiveLocaleID,
			&v.MetadataID,
			&m.UserID,
			&m.Comment,
			&m.IsMinor,
			&m.WrittenAt,
		); err != nil {
			return nil, fmt.Errorf("list versions: %w", err)
		}
		m.ID = v.MetadataID
		v.Metadata = &m
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}
