package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const compilationColumns = `id, request_id, block_type, schema_hash, action_id, outcome, values_json, payload_json, violations_json, error_text, created_at`

// ReadCompilation retrieves a single compilation record by content id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCompilation(ctx context.Context, id string) (CompilationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+compilationColumns+`
		FROM compilations
		WHERE id = ?
	`, id)

	rec, err := scanCompilation(row)
	if err == sql.ErrNoRows {
		return CompilationRecord{}, err
	}
	if err != nil {
		return CompilationRecord{}, fmt.Errorf("read compilation: %w", err)
	}
	return rec, nil
}

// ListCompilations returns the most recent compilation records for a block
// type, newest first. A blockType of "" lists across all block types.
// Limit <= 0 means no limit.
//
// Ordering is deterministic: created_at DESC then id COLLATE BINARY ASC,
// so records written in the same second still list in a stable order.
func (s *Store) ListCompilations(ctx context.Context, blockType string, limit int) ([]CompilationRecord, error) {
	query := `
		SELECT ` + compilationColumns + `
		FROM compilations
	`
	var args []any
	if blockType != "" {
		query += ` WHERE block_type = ?`
		args = append(args, blockType)
	}
	query += ` ORDER BY created_at DESC, id COLLATE BINARY ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	var records []CompilationRecord
	for rows.Next() {
		rec, err := scanCompilation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compilation: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}

	// Return empty slice instead of nil
	if records == nil {
		records = []CompilationRecord{}
	}

	return records, nil
}

// ReadSchemaDocument retrieves a stored schema document by content hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSchemaDocument(ctx context.Context, hash string) (blockType string, doc []byte, err error) {
	var body string
	err = s.db.QueryRowContext(ctx, `
		SELECT block_type, doc
		FROM schema_documents
		WHERE hash = ?
	`, hash).Scan(&blockType, &body)
	if err == sql.ErrNoRows {
		return "", nil, err
	}
	if err != nil {
		return "", nil, fmt.Errorf("read schema document: %w", err)
	}
	return blockType, []byte(body), nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(sc scanner) (CompilationRecord, error) {
	var (
		rec        CompilationRecord
		schemaHash sql.NullString
		actionID   sql.NullString
		values     string
		payload    sql.NullString
		violations sql.NullString
		errorText  sql.NullString
		createdAt  string
	)

	err := sc.Scan(
		&rec.ID,
		&rec.RequestID,
		&rec.BlockType,
		&schemaHash,
		&actionID,
		&rec.Outcome,
		&values,
		&payload,
		&violations,
		&errorText,
		&createdAt,
	)
	if err != nil {
		return CompilationRecord{}, err
	}

	rec.SchemaHash = schemaHash.String
	rec.ActionID = actionID.String
	rec.ErrorText = errorText.String

	rec.Values, err = unmarshalValues(values)
	if err != nil {
		return CompilationRecord{}, err
	}
	rec.Payload, err = unmarshalPayload(payload.String)
	if err != nil {
		return CompilationRecord{}, err
	}
	rec.Violations, err = unmarshalViolations(violations.String)
	if err != nil {
		return CompilationRecord{}, err
	}

	// SQLite datetime('now') produces "2006-01-02 15:04:05" in UTC.
	rec.CreatedAt, err = time.ParseInLocation("2006-01-02 15:04:05", createdAt, time.UTC)
	if err != nil {
		return CompilationRecord{}, fmt.Errorf("parse created_at: %w", err)
	}

	return rec, nil
}
