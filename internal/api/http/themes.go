package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/themes"
)

// GET /themes
func ListThemesHandler(store themes.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListThemes(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		if list == nil {
			list = []themes.Summary{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /themes/{themeID}
func GetThemeHandler(store themes.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.LoadTheme(r.Context(), chi.URLParam(r, "themeID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, themes.Summarize(t))
	}
}
