// Package server exposes the game service over HTTP. Session operations are
// plain JSON endpoints; /ws/watch streams the engine's candidate evaluations
// to websocket clients while it thinks.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmelim/matebot/internal/engine"
	"github.com/dmelim/matebot/internal/service/game"
	"github.com/dmelim/matebot/pkg/botdto"
	"go.uber.org/zap"
)

type Server struct {
	svc    *game.Service
	hub    *WatchHub
	logger *zap.Logger
	http   *http.Server
}

func New(addr string, svc *game.Service, hub *WatchHub, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("game service is required")
	}
	if hub == nil {
		hub = NewWatchHub()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, hub: hub, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("POST /api/game/start", s.handleStart)
	mux.HandleFunc("GET /api/game/status", s.handleStatus)
	mux.HandleFunc("POST /api/game/move", s.handleMove)
	mux.HandleFunc("POST /api/game/undo", s.handleUndo)
	mux.HandleFunc("POST /api/game/resign", s.handleResign)
	mux.HandleFunc("GET /api/game/history", s.handleHistory)
	mux.HandleFunc("GET /api/game/record", s.handleRecord)
	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.HandleFunc("POST /api/profile/preset", s.handleUpdatePreset)
	mux.HandleFunc("GET /ws/watch", s.handleWatch)
	return s.logRequests(mux)
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	resp := botdto.PresetsResponse{}
	for _, name := range engine.PresetNames() {
		preset, err := engine.GetPreset(name)
		if err != nil {
			continue
		}
		resp.Presets = append(resp.Presets, botdto.PresetInfo{
			Name:   preset.Name,
			Depth:  preset.Depth,
			Rating: preset.Rating,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req botdto.StartSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	meta := game.PlayerMeta{PlayerID: req.PlayerID, DisplayName: req.DisplayName}
	state, err := s.svc.StartSession(r.Context(), meta, req.Preset)
	if errors.Is(err, game.ErrSessionInProgress) {
		writeJSON(w, http.StatusOK, botdto.StartSessionResponse{State: toSessionState(state), Resumed: true})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, botdto.StartSessionResponse{State: toSessionState(state)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Status(r.Context(), metaFromQuery(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botdto.StatusResponse{State: toSessionState(state)})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req botdto.PlayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	summary, err := s.svc.Play(r.Context(), game.PlayerMeta{PlayerID: req.PlayerID}, req.Move)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botdto.PlayResponse{Summary: toMoveSummary(summary)})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req botdto.UndoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	state, err := s.svc.Undo(r.Context(), game.PlayerMeta{PlayerID: req.PlayerID})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botdto.UndoResponse{State: toSessionState(state)})
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	var req botdto.ResignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	state, err := s.svc.Resign(r.Context(), game.PlayerMeta{PlayerID: req.PlayerID})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botdto.ResignResponse{State: toSessionState(state)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	records, err := s.svc.History(r.Context(), metaFromQuery(r), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := botdto.HistoryResponse{Games: make([]*botdto.GameRecord, 0, len(records))}
	for _, record := range records {
		resp.Games = append(resp.Games, toGameRecord(record))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, badRequest("game id is required"))
		return
	}
	record, err := s.svc.Game(r.Context(), metaFromQuery(r), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botdto.GameResponse{Game: toGameRecord(record)})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profile(r.Context(), metaFromQuery(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botdto.ProfileResponse{Profile: toProfile(profile)})
}

func (s *Server) handleUpdatePreset(w http.ResponseWriter, r *http.Request) {
	var req botdto.UpdatePresetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	profile, err := s.svc.UpdatePreferredPreset(r.Context(), game.PlayerMeta{PlayerID: req.PlayerID}, req.Preset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, botdto.UpdatePresetResponse{Profile: toProfile(profile)})
}

func metaFromQuery(r *http.Request) game.PlayerMeta {
	return game.PlayerMeta{PlayerID: strings.TrimSpace(r.URL.Query().Get("player_id"))}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, botdto.DomainError{Code: "bad_request", Message: "invalid request body"})
		return false
	}
	return true
}

type httpError struct {
	status int
	body   botdto.DomainError
}

func (e httpError) Error() string { return e.body.Error() }

func badRequest(msg string) error {
	return httpError{status: http.StatusBadRequest, body: botdto.DomainError{Code: "bad_request", Message: msg}}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var he httpError
	if errors.As(err, &he) {
		writeJSON(w, he.status, he.body)
		return
	}

	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, game.ErrPlayerRequired), errors.Is(err, game.ErrInvalidMove):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, game.ErrProfileNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrUndoNotAvailable),
		errors.Is(err, game.ErrGameFinished),
		errors.Is(err, game.ErrConcurrentMove):
		status, code = http.StatusConflict, "conflict"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, botdto.DomainError{Code: code, Message: "internal error", Retryable: true})
		return
	}
	writeJSON(w, status, botdto.DomainError{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
