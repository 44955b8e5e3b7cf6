// Package web exposes the study core over a JSON API. Rendering lives in a
// separate client; this layer only translates HTTP to core calls.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ogunacik/kartbox/internal/config"
	"github.com/ogunacik/kartbox/internal/domain"
	"github.com/ogunacik/kartbox/internal/importer"
	"github.com/ogunacik/kartbox/internal/progress"
	"github.com/ogunacik/kartbox/internal/session"
	"github.com/ogunacik/kartbox/internal/srs"
	"github.com/ogunacik/kartbox/internal/storage"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db       *storage.DB
	tracker  *progress.Tracker
	importer *importer.Importer
	decks    []config.DeckSource
	router   *http.ServeMux
	validate *validator.Validate
	now      func() time.Time

	// The app is single-user; one session at a time.
	session *session.Session
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, tracker *progress.Tracker, imp *importer.Importer, decks []config.DeckSource, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{
		db:       db,
		tracker:  tracker,
		importer: imp,
		decks:    decks,
		router:   http.NewServeMux(),
		validate: validator.New(),
		now:      now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /api/cards", s.handleListCards())
	s.router.HandleFunc("POST /api/cards", s.handleCreateCard())
	s.router.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard())

	s.router.HandleFunc("GET /api/tags", s.handleListTags())
	s.router.HandleFunc("GET /api/stats", s.handleStats())

	s.router.HandleFunc("GET /api/packs", s.handleListPacks())
	s.router.HandleFunc("POST /api/packs", s.handleCreatePack())
	s.router.HandleFunc("DELETE /api/packs/{id}", s.handleDeletePack())

	s.router.HandleFunc("GET /api/settings", s.handleGetSettings())
	s.router.HandleFunc("PUT /api/settings", s.handlePutSettings())

	s.router.HandleFunc("POST /api/session", s.handleStartSession())
	s.router.HandleFunc("GET /api/session", s.handleGetSession())
	s.router.HandleFunc("POST /api/session/rate", s.handleRate())
	s.router.HandleFunc("POST /api/session/undo", s.handleUndo())
	s.router.HandleFunc("POST /api/session/edit", s.handleEdit())

	s.router.HandleFunc("POST /api/import", s.handleImport())

	s.router.HandleFunc("GET /api/achievements", s.handleListAchievements())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.db.GetCards()
		if err != nil {
			slog.Error("failed to list cards", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list cards")
			return
		}
		out := make([]cardJSON, 0, len(cards))
		for _, c := range cards {
			out = append(out, toCardJSON(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	type request struct {
		Front string `json:"front" validate:"required"`
		Back  string `json:"back" validate:"required"`
		Tag   string `json:"tag"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		card, err := srs.NewCard(req.Front, req.Back, req.Tag, s.now())
		if err != nil {
			slog.Error("failed to create card", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create card")
			return
		}
		if err := s.db.InsertCard(card); err != nil {
			slog.Error("failed to insert card", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save card")
			return
		}
		writeJSON(w, http.StatusCreated, toCardJSON(card))
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.DeleteCard(r.PathValue("id")); err != nil {
			slog.Error("failed to delete card", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete card")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := s.db.Tags()
		if err != nil {
			slog.Error("failed to list tags", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list tags")
			return
		}
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	type response struct {
		Total     int     `json:"total"`
		Due       int     `json:"due"`
		New       int     `json:"new"`
		Mastered  int     `json:"mastered"`
		Streak    int     `json:"streak"`
		XP        int     `json:"xp"`
		Retention float64 `json:"retention"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.db.DeckStats(s.now())
		if err != nil {
			slog.Error("failed to compute stats", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}
		prog, err := s.db.GetProgress()
		if err != nil {
			slog.Error("failed to load progress", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load progress")
			return
		}
		writeJSON(w, http.StatusOK, response{
			Total:     stats.Total,
			Due:       stats.Due,
			New:       stats.New,
			Mastered:  stats.Mastered,
			Streak:    prog.CurrentStreak,
			XP:        stats.XP,
			Retention: progress.Retention(prog.History),
		})
	}
}

func (s *Server) handleListPacks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packs, err := s.db.GetPacks()
		if err != nil {
			slog.Error("failed to list packs", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list packs")
			return
		}
		out := make([]packJSON, 0, len(packs))
		for _, p := range packs {
			out = append(out, toPackJSON(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleCreatePack() http.HandlerFunc {
	type request struct {
		Name string `json:"name" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		id, err := gonanoid.New()
		if err != nil {
			slog.Error("failed to generate pack id", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create pack")
			return
		}
		pack := domain.Pack{ID: id, Name: req.Name, CreatedAt: s.now()}
		if err := s.db.InsertPack(pack); err != nil {
			slog.Error("failed to insert pack", "error", err)
			writeError(w, http.StatusConflict, "failed to save pack")
			return
		}
		writeJSON(w, http.StatusCreated, toPackJSON(pack))
	}
}

func (s *Server) handleDeletePack() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.DeletePack(r.PathValue("id")); err != nil {
			slog.Error("failed to delete pack", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete pack")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleGetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.db.GetSettings()
		if err != nil {
			slog.Error("failed to load settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		writeJSON(w, http.StatusOK, toSettingsJSON(settings))
	}
}

func (s *Server) handlePutSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsJSON
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.db.SaveSettings(req.toDomain()); err != nil {
			slog.Error("failed to save settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func (s *Server) handleStartSession() http.HandlerFunc {
	type request struct {
		Mode    string   `json:"mode" validate:"required,oneof=standard cram"`
		Tags    []string `json:"tags"`
		CardIDs []string `json:"cardIds"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		settings, err := s.db.GetSettings()
		if err != nil {
			slog.Error("failed to load settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		opts := session.Options{
			Tags:  req.Tags,
			Limit: settings.SessionSize,
			Srs:   srsConfig(settings),
			Now:   s.now,
		}

		if req.Mode == "cram" {
			cards := make([]domain.Card, 0, len(req.CardIDs))
			for _, id := range req.CardIDs {
				card, err := s.db.FindCard(id)
				if errors.Is(err, domain.ErrNotFound) {
					continue // deleted since the caller listed it
				}
				if err != nil {
					slog.Error("failed to load cram card", "id", id, "error", err)
					writeError(w, http.StatusInternalServerError, "failed to load cards")
					return
				}
				cards = append(cards, card)
			}
			s.session = session.NewCram(s.db, cards, opts)
		} else {
			sess, err := session.NewStandard(s.db, opts)
			if err != nil {
				slog.Error("failed to start session", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to start session")
				return
			}
			s.session = sess
		}
		writeJSON(w, http.StatusCreated, s.sessionState())
	}
}

func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session == nil {
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		writeJSON(w, http.StatusOK, s.sessionState())
	}
}

func (s *Server) handleRate() http.HandlerFunc {
	type request struct {
		Rating          int `json:"rating" validate:"required"`
		DurationSeconds int `json:"durationSeconds" validate:"gte=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session == nil {
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		var req request
		if !s.decode(w, r, &req) {
			return
		}

		rating := domain.Rating(req.Rating)
		res, err := s.session.Rate(rating)
		switch {
		case errors.Is(err, srs.ErrInvalidRating):
			writeError(w, http.StatusBadRequest, "rating must be 1-4")
			return
		case errors.Is(err, session.ErrComplete):
			writeError(w, http.StatusConflict, "session already complete")
			return
		case err != nil:
			slog.Error("failed to apply rating", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save review")
			return
		}

		state := s.sessionState()
		state.Rate = &rateJSON{
			Requeued:     res.Requeued,
			NextInterval: res.NextInterval,
			Correct:      res.Correct,
			StoreMiss:    res.StoreMiss,
		}

		// Cram reviews are throwaway practice and stay out of the
		// long-term progress aggregate.
		if s.session.Mode() == session.Standard {
			tracked, err := s.tracker.Track(rating, time.Duration(req.DurationSeconds)*time.Second)
			if err != nil {
				slog.Error("failed to track review", "error", err)
			} else {
				state.Rate.ReviewsToday = tracked.ReviewsToday
				state.Rate.Streak = tracked.Streak
				if tracked.Achievement != nil {
					state.Rate.Achievement = toAchievementJSON(*tracked.Achievement)
				}
				if settings, err := s.db.GetSettings(); err == nil {
					state.Rate.GoalReached = tracked.ReviewsToday == settings.DailyGoal
				}
			}
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handleUndo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session == nil {
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		undone, err := s.session.Undo()
		if err != nil {
			slog.Error("failed to undo", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to undo")
			return
		}
		state := s.sessionState()
		state.Undone = &undone
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handleEdit() http.HandlerFunc {
	type request struct {
		Front string `json:"front" validate:"required"`
		Back  string `json:"back" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session == nil {
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.session.EditCurrentCard(req.Front, req.Back); err != nil {
			if errors.Is(err, session.ErrComplete) {
				writeError(w, http.StatusConflict, "session already complete")
				return
			}
			slog.Error("failed to edit card", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save edit")
			return
		}
		writeJSON(w, http.StatusOK, s.sessionState())
	}
}

func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := s.importer.Run(s.decks)
		errs := make([]string, 0, len(report.Errors))
		for _, e := range report.Errors {
			errs = append(errs, e.Error())
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sources":  report.Sources,
			"parsed":   report.Parsed,
			"inserted": report.Inserted,
			"skipped":  report.Skipped,
			"errors":   errs,
		})
	}
}

func (s *Server) handleListAchievements() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prog, err := s.db.GetProgress()
		if err != nil {
			slog.Error("failed to load progress", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load progress")
			return
		}
		type achievement struct {
			achievementJSON
			Unlocked bool `json:"unlocked"`
		}
		all := progress.Achievements()
		out := make([]achievement, 0, len(all))
		for _, a := range all {
			out = append(out, achievement{
				achievementJSON: *toAchievementJSON(a),
				Unlocked:        prog.Unlocked(a.ID),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func srsConfig(s domain.Settings) srs.Config {
	cfg := srs.Config{
		EasyBonus:   s.EasyBonus,
		HardPenalty: s.HardPenalty,
		MaxInterval: s.MaxInterval,
	}
	if s.Fuzz {
		cfg.Fuzz = true
		cfg.Rand = newFuzzRand()
	}
	return cfg
}
