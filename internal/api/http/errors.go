package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/fapquiz/internal/attempts"
	"github.com/mind-engage/fapquiz/internal/editor"
	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/selector"
	"github.com/mind-engage/fapquiz/internal/session"
	"github.com/mind-engage/fapquiz/internal/themes"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		ve *quiz.ValidationError
		te *quiz.TypeMismatchError
	)
	switch {
	case errors.Is(err, attempts.ErrNotFound),
		errors.Is(err, themes.ErrNotFound),
		errors.Is(err, editor.ErrQuestionNotFound),
		errors.Is(err, session.ErrUnknownAnswerKey):
		return http.StatusNotFound
	case errors.Is(err, attempts.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &te),
		errors.Is(err, errBadJSON),
		errors.Is(err, session.ErrBadDirection),
		errors.Is(err, selector.ErrInvalidCount),
		errors.Is(err, themes.ErrInvalidID):
		return http.StatusBadRequest
	case errors.As(err, &ve),
		errors.Is(err, selector.ErrNoQuestions),
		errors.Is(err, session.ErrNoQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrNotInProgress),
		errors.Is(err, session.ErrNotFinished),
		errors.Is(err, session.ErrSessionFinished),
		errors.Is(err, session.ErrLocked),
		errors.Is(err, session.ErrAlreadyChecked),
		errors.Is(err, session.ErrNoAnswerSubmitted),
		errors.Is(err, editor.ErrThemeExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError answers with the status of err. Unexpected errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}

var errBadJSON = errors.New("bad json")
