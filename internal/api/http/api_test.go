package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/fapquiz/internal/attempts"
	auth "github.com/mind-engage/fapquiz/internal/auth/middleware"
	"github.com/mind-engage/fapquiz/internal/editor"
	"github.com/mind-engage/fapquiz/internal/protocol"
	"github.com/mind-engage/fapquiz/internal/quiz"
	"github.com/mind-engage/fapquiz/internal/selector"
	"github.com/mind-engage/fapquiz/internal/storage"
	"github.com/mind-engage/fapquiz/internal/themes"
)

type testServer struct {
	t     *testing.T
	h     http.Handler
	clock time.Time
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	store := themes.NewFileStore(fsys, "themes", nil)
	_, err := editor.Seed(ctx, store)
	require.NoError(t, err)

	blobs, err := storage.NewFSStore(fsys, "protocols")
	require.NoError(t, err)
	sel := selector.New(rand.NewSource(1))
	hash, err := bcrypt.GenerateFromPassword([]byte("editor"), bcrypt.MinCost)
	require.NoError(t, err)

	ts := &testServer{t: t, clock: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	ts.h = NewRouter(Deps{
		Auth:     auth.NewAuthService("test", "editor", hash),
		Themes:   store,
		Editor:   editor.New(store, nil, nil),
		Attempts: attempts.NewManager(attempts.WithSelector(sel), attempts.WithPublisher(protocol.NewSink(blobs, nil))),
		Selector: sel,
		Blobs:    blobs,
		Now: func() time.Time {
			ts.clock = ts.clock.Add(10 * time.Second)
			return ts.clock
		},
		DefaultCount: 10,
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(ts.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, r)
	return rec
}

func (ts *testServer) login(body string) string {
	rec := ts.do(http.MethodPost, "/auth/login", "", body)
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	var out auth.LoginResponse
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.AccessToken
}

func (ts *testServer) testee() string {
	return ts.login(`{"last_name":"Иванов","first_name":"Петр","position":"Техник"}`)
}

func TestThemesRequireToken(t *testing.T) {
	ts := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/themes", "", nil).Code)

	rec := ts.do(http.MethodGet, "/themes", ts.testee(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []themes.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "fap297", list[0].ID)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/themes/nope", ts.testee(), nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/readyz", "", nil).Code)
}

func TestSessionFlow(t *testing.T) {
	ts := newServer(t)
	tok := ts.testee()

	rec := ts.do(http.MethodPost, "/sessions", tok, map[string]any{"theme_id": "fap297"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "explanation", "no answer data before a check")
	var view SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Questions, 1)
	assert.Equal(t, "in_progress", view.State)
	key := view.Questions[0].Key
	base := "/sessions/" + view.ID

	rec = ts.do(http.MethodPut, base+"/answers/"+key, tok, `["1000 метров"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "shape mismatch")

	rec = ts.do(http.MethodPut, base+"/answers/"+key, tok, `"1000 метров"`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, base+"/answers/"+key+"/check", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chk checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chk))
	assert.Equal(t, 1.0, chk.Score)
	assert.Equal(t, 1.0, chk.CumulativeScore)
	assert.NotEmpty(t, chk.Explanation)

	rec = ts.do(http.MethodPut, base+"/answers/"+key, tok, `"300 метров"`)
	assert.Equal(t, http.StatusConflict, rec.Code, "checked answers are locked")

	rec = ts.do(http.MethodPost, base+"/navigate", tok, `{"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusConflict, ts.do(http.MethodGet, base+"/report", tok, nil).Code)

	other := ts.login(`{"last_name":"Петров","first_name":"Иван","position":"Техник"}`)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, base, other, nil).Code)

	rec = ts.do(http.MethodPost, base+"/finish", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rep ReportView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 100.0, rep.Percentage)
	assert.Equal(t, "Иванов", rep.Identity.LastName)
	require.NotNil(t, rep.Protocols)
	assert.Contains(t, rep.Protocols.Folder, rep.Meta.AttemptID[:8])
	require.NotNil(t, rep.Links)
	assert.True(t, strings.HasPrefix(rep.Links.Main, "file:"), rep.Links.Main)
	assert.NotEqual(t, rep.Links.Main, rep.Links.Detailed)

	rec = ts.do(http.MethodGet, base+"/protocols/main", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ПРОТОКОЛ ТЕСТИРОВАНИЯ")

	rec = ts.do(http.MethodPost, base+"/restart", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var again SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, key, again.Questions[0].Key)
	assert.Nil(t, again.Questions[0].Answer)
	assert.Equal(t, "in_progress", again.State)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/sessions/missing", tok, nil).Code)
}

func TestSessionErrors(t *testing.T) {
	ts := newServer(t)
	tok := ts.testee()
	assert.Equal(t, http.StatusNotFound,
		ts.do(http.MethodPost, "/sessions", tok, map[string]any{"theme_id": "nope"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		ts.do(http.MethodPost, "/sessions", tok, map[string]any{"theme_id": "fap297", "category": "Метео"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPost, "/sessions", tok, map[string]any{"theme_id": "fap297", "count": -1}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/sessions", tok, "{").Code)
}

func TestEditorRoutes(t *testing.T) {
	ts := newServer(t)
	testee := ts.testee()
	assert.Equal(t, http.StatusForbidden,
		ts.do(http.MethodPost, "/themes", testee, map[string]string{"id": "fap128", "name": "ФАП 128"}).Code)

	ed := ts.login(`{"role":"editor","username":"editor","password":"editor"}`)
	rec := ts.do(http.MethodPost, "/themes", ed, map[string]string{"id": "fap128", "name": "ФАП 128"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusConflict,
		ts.do(http.MethodPost, "/themes", ed, map[string]string{"id": "fap128", "name": "ФАП 128"}).Code)

	draft := editor.Draft{
		Type: quiz.VariantOrdering, Question: "Порядок", Category: "Полеты", Explanation: "п. 3",
		Items: []string{"взлет", "набор", "крейсер"},
	}
	rec = ts.do(http.MethodPost, "/themes/fap128/questions", ed, draft)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	q, err := quiz.DecodeQuestion(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, q.Head().ID)

	draft.Items = draft.Items[:1]
	assert.Equal(t, http.StatusUnprocessableEntity, ts.do(http.MethodPost, "/themes/fap128/questions", ed, draft).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/themes/fap128/questions/1", ed, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/themes/fap128/questions/1", ed, nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodDelete, "/themes/fap128/questions/x", ed, nil).Code)

	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}
