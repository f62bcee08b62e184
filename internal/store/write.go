package store

import (
	"context"
	"fmt"
)

// WriteCompilation inserts a compilation record into the ledger.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - the id is a content hash
// of (blockType, values, action, payload), so replaying the same request
// against the same schema is a silent no-op.
//
// Values and payload are serialized to canonical JSON per RFC 8785 so the
// stored TEXT is byte-identical across replays.
func (s *Store) WriteCompilation(ctx context.Context, rec CompilationRecord) error {
	valuesJSON, err := marshalValues(rec.Values)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}

	payloadJSON, err := marshalPayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}

	violationsJSON, err := marshalViolations(rec.Violations)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO compilations
		(id, request_id, block_type, schema_hash, action_id, outcome, values_json, payload_json, violations_json, error_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RequestID,
		rec.BlockType,
		nullable(rec.SchemaHash),
		nullable(rec.ActionID),
		rec.Outcome,
		valuesJSON,
		nullable(payloadJSON),
		nullable(violationsJSON),
		nullable(rec.ErrorText),
	)
	if err != nil {
		return fmt.Errorf("write compilation: %w", err)
	}

	return nil
}

// WriteSchemaDocument inserts a loaded schema document keyed by its content
// hash. Uses ON CONFLICT(hash) DO NOTHING - reloading an unchanged document
// is a no-op, a changed document gets a new row under its new hash.
func (s *Store) WriteSchemaDocument(ctx context.Context, hash, blockType string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schema_documents
		(hash, block_type, doc)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash,
		blockType,
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("write schema document: %w", err)
	}
	return nil
}

// nullable maps "" to NULL so empty optional columns stay NULL in the ledger.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
