package http

import (
	"time"

	"github.com/mind-engage/fapquiz/internal/attempts"
	"github.com/mind-engage/fapquiz/internal/protocol"
	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/report"
)

type SubquestionView struct {
	Key     string   `json:"key"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// QuestionView is a question as shown to the testee. It carries no answer
// data until the question is checked.
type QuestionView struct {
	Key      string       `json:"key"`
	ID       int          `json:"id"`
	Type     quiz.Variant `json:"type"`
	Question string       `json:"question"`
	Category string       `json:"category,omitempty"`

	Options      []string          `json:"options,omitempty"`
	LeftColumn   []string          `json:"left_column,omitempty"`
	RightColumn  []string          `json:"right_column,omitempty"`
	Subquestions []SubquestionView `json:"subquestions,omitempty"`
	Items        []string          `json:"items,omitempty"`

	Answer      quiz.Answer `json:"answer,omitempty"`
	Checked     bool        `json:"checked"`
	Score       *float64    `json:"score,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
	ElapsedMS   int64       `json:"elapsed_ms"`
}

type SessionView struct {
	ID              string         `json:"id"`
	State           string         `json:"state"`
	ThemeID         string         `json:"theme_id"`
	ThemeName       string         `json:"theme_name"`
	Category        string         `json:"category,omitempty"`
	Index           int            `json:"index"`
	Total           int            `json:"total"`
	CumulativeScore float64        `json:"cumulative_score"`
	StartedAt       time.Time      `json:"started_at"`
	Questions       []QuestionView `json:"questions"`
}

func questionView(q quiz.Question, key string, order []string) QuestionView {
	h := q.Head()
	v := QuestionView{Key: key, ID: h.ID, Type: q.Variant(), Question: h.Question, Category: h.Category}
	switch t := q.(type) {
	case quiz.SingleChoice:
		v.Options = t.Options
	case quiz.Dropdown:
		v.Options = t.Options
	case quiz.MultipleChoice:
		v.Options = t.Options
	case quiz.Matching:
		v.LeftColumn = t.LeftColumn
		v.RightColumn = t.RightColumn
		if order != nil {
			v.RightColumn = order
		}
	case quiz.DoubleDropdown:
		for _, sq := range t.Subquestions {
			v.Subquestions = append(v.Subquestions, SubquestionView{Key: sq.Key, Text: sq.Text, Options: sq.Options})
		}
	case quiz.Ordering:
		v.Items = t.Items
		if order != nil {
			v.Items = order
		}
	}
	return v
}

// sessionView must be called with the attempt locked.
func sessionView(a *attempts.Attempt) SessionView {
	s := a.Session
	out := SessionView{
		ID:              a.ID,
		State:           s.State().String(),
		ThemeID:         a.Meta.ThemeID,
		ThemeName:       a.Meta.ThemeName,
		Category:        a.Meta.Category,
		Index:           s.Index(),
		Total:           s.Len(),
		CumulativeScore: s.CumulativeScore(),
		StartedAt:       s.StartedAt(),
	}
	for _, r := range s.Results() {
		v := questionView(r.Question, r.Key, a.Orders[r.Key])
		v.Answer = r.Answer
		v.Checked = r.Checked
		v.ElapsedMS = r.Elapsed.Milliseconds()
		if r.Checked {
			score := r.Score
			v.Score = &score
			v.Explanation = r.Question.Head().Explanation
		}
		out.Questions = append(out.Questions, v)
	}
	return out
}

type ReportView struct {
	report.Summary
	Protocols *protocol.Files `json:"protocols,omitempty"`
	Links     *ProtocolLinks  `json:"links,omitempty"`
}

// ProtocolLinks are direct download URLs from the blob store.
type ProtocolLinks struct {
	Main     string `json:"main"`
	Detailed string `json:"detailed"`
}
