// Package server exposes the character service over a small JSON HTTP
// API. It is a thin transport: every rule decision lives in the engine,
// every persistence decision in the service.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/effects"
	sheeterr "github.com/KirkDiggler/pf2e-sheet/internal/errors"
	charactersvc "github.com/KirkDiggler/pf2e-sheet/internal/services/character"
)

// Server routes HTTP requests to the character service.
type Server struct {
	svc charactersvc.Service
	log *zap.Logger
	mux *http.ServeMux
}

// Config holds the server dependencies.
type Config struct {
	Service charactersvc.Service // Required
	Logger  *zap.Logger          // Optional
}

// New creates the HTTP server and registers its routes.
func New(cfg *Config) *Server {
	if cfg.Service == nil {
		panic("service is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{svc: cfg.Service, log: log, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /characters", s.handleCreate)
	s.mux.HandleFunc("GET /characters/{id}", s.handleGet)
	s.mux.HandleFunc("DELETE /characters/{id}", s.handleDelete)
	s.mux.HandleFunc("PUT /characters/{id}/level", s.handleSetLevel)
	s.mux.HandleFunc("POST /characters/{id}/feats", s.handleAddFeat)
	s.mux.HandleFunc("DELETE /characters/{id}/feats/{featID}", s.handleRemoveFeat)
	s.mux.HandleFunc("GET /characters/{id}/feats/{featID}/choices", s.handlePendingChoices)
	s.mux.HandleFunc("PUT /characters/{id}/feats/{featID}/choices", s.handleSetChoice)
	s.mux.HandleFunc("POST /characters/{id}/conditions", s.handleAddCondition)
	s.mux.HandleFunc("DELETE /characters/{id}/conditions/{conditionID}", s.handleRemoveCondition)
	s.mux.HandleFunc("POST /characters/{id}/buffs", s.handleAddBuff)
	s.mux.HandleFunc("DELETE /characters/{id}/buffs/{buffID}", s.handleRemoveBuff)
	s.mux.HandleFunc("POST /characters/{id}/tick", s.handleTickRound)
	s.mux.HandleFunc("GET /characters/{id}/export", s.handleExport)
	s.mux.HandleFunc("POST /characters/import", s.handleImport)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input charactersvc.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "invalid request body"))
		return
	}
	chr, err := s.svc.Create(r.Context(), &input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, chr)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	chr, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "invalid request body"))
		return
	}
	chr, err := s.svc.SetLevel(r.Context(), r.PathValue("id"), body.Level)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleAddFeat(w http.ResponseWriter, r *http.Request) {
	var sel character.FeatSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		s.writeError(w, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "invalid request body"))
		return
	}
	chr, err := s.svc.AddFeat(r.Context(), r.PathValue("id"), sel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleRemoveFeat(w http.ResponseWriter, r *http.Request) {
	chr, err := s.svc.RemoveFeat(r.Context(), r.PathValue("id"), r.PathValue("featID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handlePendingChoices(w http.ResponseWriter, r *http.Request) {
	choices, err := s.svc.PendingChoices(r.Context(), r.PathValue("id"), r.PathValue("featID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, choices)
}

func (s *Server) handleSetChoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Flag  string `json:"flag"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "invalid request body"))
		return
	}
	chr, err := s.svc.SetChoice(r.Context(), r.PathValue("id"), r.PathValue("featID"), body.Flag, body.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	var cond effects.Condition
	if err := json.NewDecoder(r.Body).Decode(&cond); err != nil {
		s.writeError(w, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "invalid request body"))
		return
	}
	chr, err := s.svc.AddCondition(r.Context(), r.PathValue("id"), cond)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	chr, err := s.svc.RemoveCondition(r.Context(), r.PathValue("id"), r.PathValue("conditionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleAddBuff(w http.ResponseWriter, r *http.Request) {
	var buff effects.Buff
	if err := json.NewDecoder(r.Body).Decode(&buff); err != nil {
		s.writeError(w, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "invalid request body"))
		return
	}
	chr, err := s.svc.AddBuff(r.Context(), r.PathValue("id"), buff)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleRemoveBuff(w http.ResponseWriter, r *http.Request) {
	chr, err := s.svc.RemoveBuff(r.Context(), r.PathValue("id"), r.PathValue("buffID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleTickRound(w http.ResponseWriter, r *http.Request) {
	chr, err := s.svc.TickRound(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chr)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	encoded, err := s.svc.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"export": encoded})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OwnerID string `json:"owner_id"`
		Export  string `json:"export"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "invalid request body"))
		return
	}
	chr, err := s.svc.Import(r.Context(), body.OwnerID, body.Export)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, chr)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var coded *sheeterr.Error
	if errors.As(err, &coded) {
		switch coded.Code {
		case sheeterr.CodeNotFound:
			status = http.StatusNotFound
		case sheeterr.CodeInvalidArgument, sheeterr.CodeValidation:
			status = http.StatusBadRequest
		case sheeterr.CodeAlreadyExists:
			status = http.StatusConflict
		}
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
