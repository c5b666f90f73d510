package corpstorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// PostgresConfig configures the preferred persistent backend (§4.8).
type PostgresConfig struct {
	ConnectionString string
	MaxConnections   int32
	ConnectTimeout   time.Duration
	MigrationsPath   string
}

// PostgresBackend is the persistent structured store backend; it presents
// the same Backend interface as MemoryBackend so the rest of the pipeline
// never branches on which one is wired in.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	config *PostgresConfig
}

// NewPostgresBackend opens a pool, verifies connectivity, and applies
// pending migrations before returning.
func NewPostgresBackend(ctx context.Context, config *PostgresConfig) (*PostgresBackend, error) {
	if config == nil || config.ConnectionString == "" {
		return nil, fmt.Errorf("postgres connection string is required")
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	if config.MigrationsPath == "" {
		config.MigrationsPath = "file://internal/corpstorage/migrations"
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = config.MaxConnections
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	timeoutCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(timeoutCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(timeoutCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	be := &PostgresBackend{pool: pool, config: config}
	if err := be.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return be, nil
}

func (be *PostgresBackend) migrate(ctx context.Context) error {
	conn, err := be.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	migrationDB, err := sql.Open("pgx", be.config.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer migrationDB.Close()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(be.config.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (be *PostgresBackend) Close(ctx context.Context) error {
	be.pool.Close()
	return nil
}

func (be *PostgresBackend) PutAct(ctx context.Context, act *domain.ActRecord) error {
	record, err := json.Marshal(act)
	if err != nil {
		return &StorageError{Code: ErrCodeIntegrity, Op: "PutAct", ActID: act.InternalID, Cause: err}
	}

	_, err = be.pool.Exec(ctx, `
		INSERT INTO acts (internal_id, title_raw, title_normalized, content_raw, content_normalized,
			content_corrected, content_raw_sha256, url, volume_number, content_language, record, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (internal_id) DO UPDATE SET
			title_raw = EXCLUDED.title_raw, title_normalized = EXCLUDED.title_normalized,
			content_raw = EXCLUDED.content_raw, content_normalized = EXCLUDED.content_normalized,
			content_corrected = EXCLUDED.content_corrected, content_raw_sha256 = EXCLUDED.content_raw_sha256,
			url = EXCLUDED.url, volume_number = EXCLUDED.volume_number, content_language = EXCLUDED.content_language,
			record = EXCLUDED.record, captured_at = EXCLUDED.captured_at`,
		act.InternalID, act.TitleRaw, act.TitleNormalized, act.ContentRaw, act.ContentNormalized,
		act.ContentCorrected, act.ContentRawSHA256, act.URL, act.VolumeNumber, string(act.ContentLanguage),
		record, act.CapturedAt)
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "PutAct", ActID: act.InternalID, Cause: err}
	}
	return nil
}

func (be *PostgresBackend) GetAct(ctx context.Context, actID string) (*domain.ActRecord, error) {
	var record []byte
	err := be.pool.QueryRow(ctx, `SELECT record FROM acts WHERE internal_id = $1`, actID).Scan(&record)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &StorageError{Code: ErrCodeNotFound, Op: "GetAct", ActID: actID}
		}
		return nil, &StorageError{Code: ErrCodeConnection, Op: "GetAct", ActID: actID, Cause: err}
	}
	var act domain.ActRecord
	if err := json.Unmarshal(record, &act); err != nil {
		return nil, &StorageError{Code: ErrCodeIntegrity, Op: "GetAct", ActID: actID, Cause: err}
	}
	return &act, nil
}

func (be *PostgresBackend) ListActs(ctx context.Context) ([]*domain.ActRecord, error) {
	rows, err := be.pool.Query(ctx, `SELECT record FROM acts ORDER BY internal_id`)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeConnection, Op: "ListActs", Cause: err}
	}
	defer rows.Close()

	var out []*domain.ActRecord
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, &StorageError{Code: ErrCodeIntegrity, Op: "ListActs", Cause: err}
		}
		var act domain.ActRecord
		if err := json.Unmarshal(record, &act); err != nil {
			return nil, &StorageError{Code: ErrCodeIntegrity, Op: "ListActs", Cause: err}
		}
		out = append(out, &act)
	}
	return out, rows.Err()
}

func (be *PostgresBackend) ArchiveAct(ctx context.Context, actID string) error {
	tx, err := be.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "ArchiveAct", ActID: actID, Cause: err}
	}
	defer tx.Rollback(ctx)

	var record []byte
	var hash string
	err = tx.QueryRow(ctx, `SELECT record, content_raw_sha256 FROM acts WHERE internal_id = $1`, actID).Scan(&record, &hash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &StorageError{Code: ErrCodeNotFound, Op: "ArchiveAct", ActID: actID}
		}
		return &StorageError{Code: ErrCodeConnection, Op: "ArchiveAct", ActID: actID, Cause: err}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO archived_acts (internal_id, content_raw_sha256, record) VALUES ($1, $2, $3)`, actID, hash, record); err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "ArchiveAct", ActID: actID, Cause: err}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM acts WHERE internal_id = $1`, actID); err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "ArchiveAct", ActID: actID, Cause: err}
	}
	return tx.Commit(ctx)
}

func (be *PostgresBackend) PutFailedExtraction(ctx context.Context, f *domain.FailedExtraction) error {
	record, err := json.Marshal(f)
	if err != nil {
		return &StorageError{Code: ErrCodeIntegrity, Op: "PutFailedExtraction", ActID: f.InternalID, Cause: err}
	}
	_, err = be.pool.Exec(ctx, `
		INSERT INTO failed_extractions (internal_id, act_id, url, title, failure_reason, retry_count, max_retries, failed_at, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (internal_id) DO UPDATE SET
			act_id = EXCLUDED.act_id, failure_reason = EXCLUDED.failure_reason,
			retry_count = EXCLUDED.retry_count, max_retries = EXCLUDED.max_retries,
			failed_at = EXCLUDED.failed_at, record = EXCLUDED.record`,
		f.InternalID, f.ActID, f.URL, f.Title, string(f.FailureReason), f.RetryCount, f.MaxRetries, f.FailedAt, record)
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "PutFailedExtraction", ActID: f.InternalID, Cause: err}
	}
	return nil
}

func (be *PostgresBackend) GetFailedExtraction(ctx context.Context, actID string) (*domain.FailedExtraction, error) {
	var record []byte
	err := be.pool.QueryRow(ctx, `SELECT record FROM failed_extractions WHERE internal_id = $1`, actID).Scan(&record)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &StorageError{Code: ErrCodeNotFound, Op: "GetFailedExtraction", ActID: actID}
		}
		return nil, &StorageError{Code: ErrCodeConnection, Op: "GetFailedExtraction", ActID: actID, Cause: err}
	}
	var f domain.FailedExtraction
	if err := json.Unmarshal(record, &f); err != nil {
		return nil, &StorageError{Code: ErrCodeIntegrity, Op: "GetFailedExtraction", ActID: actID, Cause: err}
	}
	return &f, nil
}

func (be *PostgresBackend) ListFailedExtractions(ctx context.Context) ([]*domain.FailedExtraction, error) {
	rows, err := be.pool.Query(ctx, `SELECT record FROM failed_extractions ORDER BY internal_id`)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeConnection, Op: "ListFailedExtractions", Cause: err}
	}
	defer rows.Close()

	var out []*domain.FailedExtraction
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, &StorageError{Code: ErrCodeIntegrity, Op: "ListFailedExtractions", Cause: err}
		}
		var f domain.FailedExtraction
		if err := json.Unmarshal(record, &f); err != nil {
			return nil, &StorageError{Code: ErrCodeIntegrity, Op: "ListFailedExtractions", Cause: err}
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (be *PostgresBackend) RemoveFailedExtraction(ctx context.Context, actID string) error {
	_, err := be.pool.Exec(ctx, `DELETE FROM failed_extractions WHERE internal_id = $1`, actID)
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "RemoveFailedExtraction", ActID: actID, Cause: err}
	}
	return nil
}

func (be *PostgresBackend) EnqueueItem(ctx context.Context, item *domain.QueueItem) error {
	_, err := be.pool.Exec(ctx, `
		INSERT INTO queue_items (id, internal_id, title, url, volume_number, status, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.InternalID, item.Title, item.URL, item.VolumeNumber, string(item.Status), item.AddedAt)
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "EnqueueItem", ActID: item.ID, Cause: err}
	}
	return nil
}

func (be *PostgresBackend) DequeueNextPending(ctx context.Context) (*domain.QueueItem, error) {
	row := be.pool.QueryRow(ctx, `
		SELECT id, internal_id, title, url, volume_number, status, added_at
		FROM queue_items WHERE status = $1 ORDER BY added_at ASC LIMIT 1`, string(domain.StatusPending))

	var item domain.QueueItem
	var status string
	err := row.Scan(&item.ID, &item.InternalID, &item.Title, &item.URL, &item.VolumeNumber, &status, &item.AddedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, &StorageError{Code: ErrCodeConnection, Op: "DequeueNextPending", Cause: err}
	}
	item.Status = domain.QueueStatus(status)
	return &item, nil
}

func (be *PostgresBackend) UpdateQueueItem(ctx context.Context, item *domain.QueueItem) error {
	tag, err := be.pool.Exec(ctx, `
		UPDATE queue_items SET internal_id = $2, title = $3, url = $4, volume_number = $5, status = $6, added_at = $7
		WHERE id = $1`, item.ID, item.InternalID, item.Title, item.URL, item.VolumeNumber, string(item.Status), item.AddedAt)
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "UpdateQueueItem", ActID: item.ID, Cause: err}
	}
	if tag.RowsAffected() == 0 {
		return &StorageError{Code: ErrCodeNotFound, Op: "UpdateQueueItem", ActID: item.ID}
	}
	return nil
}

func (be *PostgresBackend) ListQueueItems(ctx context.Context) ([]*domain.QueueItem, error) {
	rows, err := be.pool.Query(ctx, `
		SELECT id, internal_id, title, url, volume_number, status, added_at
		FROM queue_items ORDER BY added_at ASC`)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeConnection, Op: "ListQueueItems", Cause: err}
	}
	defer rows.Close()

	var out []*domain.QueueItem
	for rows.Next() {
		var item domain.QueueItem
		var status string
		if err := rows.Scan(&item.ID, &item.InternalID, &item.Title, &item.URL, &item.VolumeNumber, &status, &item.AddedAt); err != nil {
			return nil, &StorageError{Code: ErrCodeIntegrity, Op: "ListQueueItems", Cause: err}
		}
		item.Status = domain.QueueStatus(status)
		out = append(out, &item)
	}
	return out, rows.Err()
}

func (be *PostgresBackend) WriteIntent(ctx context.Context, actID, sessionID string) error {
	_, err := be.pool.Exec(ctx, `
		INSERT INTO wal_entries (entry_id, session_id, act_id, entry_type, created_at)
		VALUES (gen_random_uuid()::text, $1, $2, $3, NOW())`, sessionID, actID, string(WALIntent))
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "WriteIntent", ActID: actID, Cause: err}
	}
	return nil
}

func (be *PostgresBackend) WriteComplete(ctx context.Context, actID, sessionID, contentHash string) error {
	tx, err := be.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "WriteComplete", ActID: actID, Cause: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO wal_entries (entry_id, session_id, act_id, entry_type, content_hash, created_at)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, NOW())`, sessionID, actID, string(WALComplete), contentHash); err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "WriteComplete", ActID: actID, Cause: err}
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO extraction_receipts (act_id, session_id, content_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (act_id, session_id) DO UPDATE SET content_hash = EXCLUDED.content_hash`,
		actID, sessionID, contentHash); err != nil {
		return &StorageError{Code: ErrCodeConnection, Op: "WriteComplete", ActID: actID, Cause: err}
	}
	return tx.Commit(ctx)
}

func (be *PostgresBackend) GetIncompleteExtractions(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := be.pool.Query(ctx, `
		SELECT i.act_id FROM wal_entries i
		WHERE i.session_id = $1 AND i.entry_type = $2 AND i.pruned = FALSE
		AND NOT EXISTS (
			SELECT 1 FROM wal_entries c
			WHERE c.session_id = i.session_id AND c.act_id = i.act_id AND c.entry_type = $3 AND c.pruned = FALSE
		)
		ORDER BY i.act_id`, sessionID, string(WALIntent), string(WALComplete))
	if err != nil {
		return nil, &StorageError{Code: ErrCodeConnection, Op: "GetIncompleteExtractions", Cause: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var actID string
		if err := rows.Scan(&actID); err != nil {
			return nil, &StorageError{Code: ErrCodeIntegrity, Op: "GetIncompleteExtractions", Cause: err}
		}
		out = append(out, actID)
	}
	return out, rows.Err()
}

func (be *PostgresBackend) ListReceipts(ctx context.Context) ([]ExtractionReceipt, error) {
	rows, err := be.pool.Query(ctx, `SELECT act_id, session_id, content_hash, created_at FROM extraction_receipts ORDER BY created_at`)
	if err != nil {
		return nil, &StorageError{Code: ErrCodeConnection, Op: "ListReceipts", Cause: err}
	}
	defer rows.Close()

	var out []ExtractionReceipt
	for rows.Next() {
		var r ExtractionReceipt
		if err := rows.Scan(&r.ActID, &r.SessionID, &r.ContentHash, &r.Timestamp); err != nil {
			return nil, &StorageError{Code: ErrCodeIntegrity, Op: "ListReceipts", Cause: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (be *PostgresBackend) RecordPersistedCount(ctx context.Context, n int) (int, error) {
	var total int
	err := be.pool.QueryRow(ctx, `
		UPDATE checkpoint_state SET persisted_since_checkpoint = persisted_since_checkpoint + $1
		WHERE id = 1 RETURNING persisted_since_checkpoint`, n).Scan(&total)
	if err != nil {
		return 0, &StorageError{Code: ErrCodeConnection, Op: "RecordPersistedCount", Cause: err}
	}
	return total, nil
}

func (be *PostgresBackend) ResetCheckpointCounter(ctx context.Context) {
	be.pool.Exec(ctx, `UPDATE checkpoint_state SET persisted_since_checkpoint = 0 WHERE id = 1`)
}
