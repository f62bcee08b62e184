package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old records.
const (
	DomainDocument    = "formwell/document/v1"
	DomainCompilation = "formwell/compilation/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes a content-addressed id for a raw schema document.
// The ledger uses it to tie compilation records to the exact schema revision
// they were compiled against.
func DocumentHash(raw []byte) string {
	return hashWithDomain(DomainDocument, raw)
}

// CompilationID computes a content-addressed id for one compilation outcome.
// Identical (blockType, values, action, payload) always produce the same id,
// so replayed requests are stored idempotently.
func CompilationID(blockType string, values map[string]string, actionID string, payload map[string]any) (string, error) {
	obj := map[string]any{
		"block_type": blockType,
		"values":     values,
		"action_id":  actionID,
	}
	if payload != nil {
		obj["payload"] = payload
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CompilationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCompilation, canonical), nil
}

// MustCompilationID is like CompilationID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCompilationID(blockType string, values map[string]string, actionID string, payload map[string]any) string {
	id, err := CompilationID(blockType, values, actionID, payload)
	if err != nil {
		panic(err)
	}
	return id
}
