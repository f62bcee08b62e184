package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/formwell/formwell/internal/engine"
	"github.com/formwell/formwell/internal/store"
)

// apiError is the JSON error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// resolveRequest is the body for fields and compile endpoints.
type resolveRequest struct {
	Values engine.Values `json:"values"`
}

// fieldState mirrors the CLI fields output for one field.
type fieldState struct {
	ID             string   `json:"id"`
	CanonicalParam string   `json:"canonicalParam"`
	Mode           string   `json:"mode"`
	Visible        bool     `json:"visible"`
	Ready          bool     `json:"ready"`
	WaitingOn      []string `json:"waitingOn,omitempty"`
}

// schemaView is the read model returned by GET /schemas/{blockType}.
type schemaView struct {
	BlockType string            `json:"blockType"`
	Hash      string            `json:"hash"`
	Fields    []fieldView       `json:"fields"`
	Groups    map[string][]string `json:"groups"`
	Operation operationView     `json:"operation"`
	Actions   []actionView      `json:"actions"`
}

type fieldView struct {
	ID             string   `json:"id"`
	CanonicalParam string   `json:"canonicalParam"`
	Mode           string   `json:"mode"`
	Kind           string   `json:"kind"`
	Required       bool     `json:"required"`
	DependsOn      []string `json:"dependsOn,omitempty"`
	Conditional    bool     `json:"conditional"`
}

type operationView struct {
	Discriminator string            `json:"discriminator"`
	Mapping       map[string]string `json:"mapping"`
	Default       string            `json:"default,omitempty"`
	UnknownPolicy string            `json:"unknownValuePolicy"`
}

type actionView struct {
	ID          string            `json:"id"`
	Params      []string          `json:"params"`
	Requires    []string          `json:"requires,omitempty"`
	RequiresAny [][]string        `json:"requiresAny,omitempty"`
	Defaults    map[string]string `json:"defaults,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	type item struct {
		BlockType string `json:"blockType"`
		Hash      string `json:"hash"`
	}
	items := []item{}
	for _, bt := range s.registry.BlockTypes() {
		entry, _ := s.registry.Get(bt)
		items = append(items, item{BlockType: bt, Hash: entry.Hash})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"schemas": items})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSchema(w, r)
	if !ok {
		return
	}

	view := schemaView{
		BlockType: entry.BlockType,
		Hash:      entry.Hash,
		Groups:    entry.Schema.Groups,
		Operation: operationView{
			Discriminator: entry.Schema.Operation.Discriminator,
			Mapping:       entry.Schema.Operation.Mapping,
			Default:       entry.Schema.Operation.Default,
			UnknownPolicy: entry.Schema.Operation.Policy(),
		},
	}
	for _, id := range entry.Schema.FieldOrder {
		f := entry.Schema.Field(id)
		view.Fields = append(view.Fields, fieldView{
			ID:             f.ID,
			CanonicalParam: f.Canonical(),
			Mode:           string(f.Mode),
			Kind:           string(f.Kind),
			Required:       f.Required,
			DependsOn:      f.DependsOn,
			Conditional:    f.Condition != nil,
		})
	}
	for i := range entry.Schema.Actions {
		a := entry.Schema.Actions[i]
		view.Actions = append(view.Actions, actionView{
			ID:          a.ID,
			Params:      a.Params,
			Requires:    a.Requires,
			RequiresAny: a.RequiresAny,
			Defaults:    a.Defaults,
		})
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResolveFields(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSchema(w, r)
	if !ok {
		return
	}
	values, ok := s.decodeValues(w, r)
	if !ok {
		return
	}

	sch := entry.Schema
	visible := engine.VisibleFields(sch, values)

	states := []fieldState{}
	for _, id := range sch.FieldOrder {
		f := sch.Field(id)
		_, isVisible := visible[id]
		state := fieldState{
			ID:             id,
			CanonicalParam: f.Canonical(),
			Mode:           string(f.Mode),
			Visible:        isVisible,
			Ready:          true,
		}
		if err := engine.CheckReady(sch, id, values); err != nil {
			state.Ready = false
			var notReady *engine.DependencyNotReadyError
			if errors.As(err, &notReady) {
				state.WaitingOn = notReady.Missing
			}
		}
		states = append(states, state)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"blockType": entry.BlockType,
		"fields":    states,
		"effective": engine.EffectiveValues(sch, values),
	})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupSchema(w, r)
	if !ok {
		return
	}
	values, ok := s.decodeValues(w, r)
	if !ok {
		return
	}

	result, compileErr := engine.Compile(entry.Schema, values)

	if s.store != nil {
		rec, err := store.RecordResult(entry.BlockType, entry.Hash, values, result, compileErr)
		if err != nil {
			s.logger.Error("building ledger record", zap.Error(err))
		} else if err := s.store.WriteCompilation(r.Context(), rec); err != nil {
			s.logger.Error("recording compilation", zap.Error(err))
		}
	}

	if compileErr != nil {
		var ve *engine.ValidationError
		if errors.As(compileErr, &ve) {
			s.writeError(w, http.StatusUnprocessableEntity, apiError{
				Code:    ve.Violations[0].Code,
				Message: "compilation failed",
				Details: ve,
			})
			return
		}
		var uo *engine.UnknownOperationError
		if errors.As(compileErr, &uo) {
			s.writeError(w, http.StatusUnprocessableEntity, apiError{
				Code:    engine.CodeUnknownOperation,
				Message: uo.Error(),
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, apiError{Code: "E001", Message: compileErr.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"blockType": entry.BlockType,
		"actionId":  result.ActionID,
		"payload":   result.Payload,
	})
}

func (s *Server) handleListCompilations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, apiError{Code: "E005", Message: "no compilation ledger configured"})
		return
	}

	blockType := r.URL.Query().Get("block")
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, apiError{Code: "E001", Message: "invalid limit"})
			return
		}
		limit = n
	}

	records, err := s.store.ListCompilations(r.Context(), blockType, limit)
	if err != nil {
		s.logger.Error("listing compilations", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, apiError{Code: "E001", Message: "listing compilations failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"compilations": records})
}

// lookupSchema resolves the {blockType} path variable against the registry.
func (s *Server) lookupSchema(w http.ResponseWriter, r *http.Request) (Entry, bool) {
	blockType := mux.Vars(r)["blockType"]
	entry, ok := s.registry.Get(blockType)
	if !ok {
		s.writeError(w, http.StatusNotFound, apiError{
			Code:    "E005",
			Message: "unknown block type: " + blockType,
		})
		return Entry{}, false
	}
	return entry, true
}

// decodeValues parses the request body. Values arrive as a flat map of
// strings per the wire contract; anything else is a 400.
func (s *Server) decodeValues(w http.ResponseWriter, r *http.Request) (engine.Values, bool) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apiError{
			Code:    "E007",
			Message: "invalid request body: " + err.Error(),
		})
		return nil, false
	}
	if req.Values == nil {
		req.Values = engine.Values{}
	}
	return req.Values, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, e apiError) {
	s.writeJSON(w, status, map[string]any{"error": e})
}
