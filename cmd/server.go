package cmd

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mdobak/go-xerrors"
	"github.com/rs/cors"

	"notehero/db"
	"notehero/models"
	"notehero/utils"
)

type scoreServer struct {
	store  db.DBClient
	logger *slog.Logger
}

// newRouter exposes the score store over HTTP.
func newRouter(store db.DBClient, origins []string) http.Handler {
	s := &scoreServer{store: store, logger: utils.GetLogger()}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/scores", s.handleListScores).Methods(http.MethodGet)
	router.HandleFunc("/scores", s.handleCreateScore).Methods(http.MethodPost)
	router.HandleFunc("/scores/{id}", s.handleGetScore).Methods(http.MethodGet)
	router.HandleFunc("/scores/{id}", s.handleDeleteScore).Methods(http.MethodDelete)

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}).Handler(router)
}

func (s *scoreServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", slog.Any("error", err))
	}
}

func (s *scoreServer) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", xerrors.New(err)))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *scoreServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.TotalRuns(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "runs": total})
}

func (s *scoreServer) handleListScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.RunFilter{Song: q.Get("song"), Player: q.Get("player")}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.fail(w, r, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *scoreServer) handleCreateScore(w http.ResponseWriter, r *http.Request) {
	var run models.RunRecord
	if err := json.NewDecoder(r.Body).Decode(&run); err != nil {
		s.fail(w, r, http.StatusBadRequest, errors.New("could not parse run: "+err.Error()))
		return
	}
	if run.Song == "" || run.FinishedAt.IsZero() {
		s.fail(w, r, http.StatusBadRequest, errors.New("song and finished_at are required"))
		return
	}
	if run.ID == "" {
		run.ID = newRunID()
	}
	if err := s.store.SaveRuns(r.Context(), run); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, run)
}

func (s *scoreServer) handleGetScore(w http.ResponseWriter, r *http.Request) {
	run, ok, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	switch {
	case err != nil:
		s.fail(w, r, http.StatusInternalServerError, err)
	case !ok:
		s.fail(w, r, http.StatusNotFound, db.ErrRunNotFound)
	default:
		s.writeJSON(w, http.StatusOK, run)
	}
}

func (s *scoreServer) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteRun(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, db.ErrRunNotFound):
		s.fail(w, r, http.StatusNotFound, err)
	case err != nil:
		s.fail(w, r, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
