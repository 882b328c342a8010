package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/fapquiz/internal/rbac"
)

func service(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService("test-secret", "editor", hash)
}

func TestTesteeLogin(t *testing.T) {
	a := service(t)
	out, err := a.Login(LoginRequest{LastName: " Иванов ", FirstName: "Петр", Position: "Техник"})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleTestee, out.Role)
	assert.True(t, strings.HasPrefix(out.Subject, "testee|"))

	c, err := a.Parse(out.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, c.Identity)
	assert.Equal(t, "Иванов", c.Identity.LastName)

	other, err := a.Login(LoginRequest{LastName: "Иванов", FirstName: "Петр", Position: "Техник"})
	require.NoError(t, err)
	assert.NotEqual(t, out.Subject, other.Subject, "every login is its own subject")

	_, err = a.Login(LoginRequest{LastName: "Иванов", FirstName: "Петр"})
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestEditorLogin(t *testing.T) {
	a := service(t)
	out, err := a.Login(LoginRequest{Role: rbac.RoleEditor, Username: "editor", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleEditor, out.Role)

	_, err = a.Login(LoginRequest{Role: rbac.RoleEditor, Username: "editor", Password: "nope"})
	require.ErrorIs(t, err, ErrBadCredentials)
	_, err = a.Login(LoginRequest{Role: "admin"})
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestJWTMiddleware(t *testing.T) {
	a := service(t)
	out, err := a.Login(LoginRequest{LastName: "Иванов", FirstName: "Петр", Position: "Техник"})
	require.NoError(t, err)

	var sub, role string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = SubjectFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
		id, ok := IdentityFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "Петр", id.FirstName)
	}))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+out.AccessToken)
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, out.Subject, sub)
	assert.Equal(t, rbac.RoleTestee, role)

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+out.AccessToken+"x")
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	a := service(t)
	rec := httptest.NewRecorder()
	LoginHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"last_name":"Иванов","first_name":"Петр","position":"Техник"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")

	rec = httptest.NewRecorder()
	LoginHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
