package session

import "errors"

var (
	ErrNoQuestions       = errors.New("no questions")
	ErrAlreadyStarted    = errors.New("session already started")
	ErrNotInProgress     = errors.New("session not in progress")
	ErrNotFinished       = errors.New("session not finished")
	ErrSessionFinished   = errors.New("session finished")
	ErrUnknownAnswerKey  = errors.New("unknown answer key")
	ErrLocked            = errors.New("answer locked")
	ErrAlreadyChecked    = errors.New("answer already checked")
	ErrNoAnswerSubmitted = errors.New("no answer submitted")
	ErrBadDirection      = errors.New("unknown direction")
)
