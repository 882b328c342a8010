package quiz

import "fmt"

// ValidationError reports a malformed question definition.
type ValidationError struct {
	QuestionID int
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %d: invalid %s: %s", e.QuestionID, e.Field, e.Reason)
}

// TypeMismatchError reports an answer whose shape does not fit the question
// type. It is a caller bug, not a wrong answer.
type TypeMismatchError struct {
	QuestionID int
	Variant    Variant
	Want       Shape
	Got        Shape
	Err        error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("question %d (%s): answer shape %s, want %s", e.QuestionID, e.Variant, e.Got, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }
