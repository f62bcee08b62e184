package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/formwell/formwell/internal/engine"
	"github.com/formwell/formwell/internal/schema"
)

// Outcome classifies a compilation record.
const (
	// OutcomeValid records a successful compilation with a payload.
	OutcomeValid = "valid"

	// OutcomeInvalid records an aggregated validation failure.
	OutcomeInvalid = "invalid"

	// OutcomeRejected records an unknown-operation rejection.
	OutcomeRejected = "rejected"
)

// CompilationRecord is one ledger entry: the raw values a request carried
// and what the engine decided.
type CompilationRecord struct {
	// ID is the content-addressed record id (schema.CompilationID).
	// Identical requests against the same schema are stored once.
	ID string `json:"id"`

	// RequestID is the per-request UUID; unlike ID it differs across
	// replays of the same inputs.
	RequestID string `json:"request_id"`

	BlockType  string             `json:"block_type"`
	SchemaHash string             `json:"schema_hash,omitempty"`
	ActionID   string             `json:"action_id,omitempty"`
	Outcome    string             `json:"outcome"`
	Values     map[string]string  `json:"values"`
	Payload    map[string]any     `json:"payload,omitempty"`
	Violations []engine.Violation `json:"violations,omitempty"`
	ErrorText  string             `json:"error_text,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewRequestID mints a time-ordered request id.
func NewRequestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RecordResult builds a ledger record from a compile outcome. The record id
// is content-addressed over (blockType, values, action, payload), so a
// replayed request writes idempotently.
func RecordResult(blockType, schemaHash string, values engine.Values, result *engine.Result, compileErr error) (CompilationRecord, error) {
	rec := CompilationRecord{
		RequestID:  NewRequestID(),
		BlockType:  blockType,
		SchemaHash: schemaHash,
		Values:     values,
	}

	switch {
	case compileErr == nil:
		rec.Outcome = OutcomeValid
		rec.ActionID = result.ActionID
		rec.Payload = result.Payload
	case engine.IsValidationError(compileErr):
		rec.Outcome = OutcomeInvalid
		var ve *engine.ValidationError
		if errors.As(compileErr, &ve) {
			rec.ActionID = ve.ActionID
			rec.Violations = ve.Violations
		}
		rec.ErrorText = compileErr.Error()
	default:
		rec.Outcome = OutcomeRejected
		rec.ErrorText = compileErr.Error()
	}

	var payload map[string]any
	if rec.Payload != nil {
		payload = rec.Payload
	}
	id, err := schema.CompilationID(blockType, values, rec.ActionID, payload)
	if err != nil {
		return CompilationRecord{}, err
	}
	rec.ID = id
	return rec, nil
}
