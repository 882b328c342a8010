package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/editor"
	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/themes"
)

// POST /themes  { "id": "...", "name": "...", "description": "..." }
func CreateThemeHandler(ed *editor.Editor, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		t, err := ed.CreateTheme(r.Context(), req.ID, req.Name, req.Description)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, themes.Summarize(t))
	}
}

// POST /themes/{themeID}/questions  editor.Draft
func AddQuestionHandler(ed *editor.Editor, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d editor.Draft
		if err := decode(r, &d); err != nil {
			writeError(w, r, log, err)
			return
		}
		q, err := ed.AddQuestion(r.Context(), chi.URLParam(r, "themeID"), d)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		raw, err := quiz.EncodeQuestion(q)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(raw)
	}
}

// DELETE /themes/{themeID}/questions/{questionID}
func DeleteQuestionHandler(ed *editor.Editor, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qid, err := strconv.Atoi(chi.URLParam(r, "questionID"))
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		if err := ed.DeleteQuestion(r.Context(), chi.URLParam(r, "themeID"), qid); err != nil {
			writeError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
