package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker(t *testing.T) {
	c := NewChecker(nil)
	assert.True(t, c.Has(RoleTestee, PermSessionPlay))
	assert.False(t, c.Has(RoleTestee, PermThemeEdit))
	assert.True(t, c.Has(RoleEditor, PermThemeEdit), "wildcard")
	assert.False(t, c.Has("guest", PermThemeView))
}

func TestRequire(t *testing.T) {
	h := Require(PermThemeEdit)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for role, want := range map[string]int{
		"":         http.StatusUnauthorized,
		RoleTestee: http.StatusForbidden,
		RoleEditor: http.StatusNoContent,
	} {
		r := httptest.NewRequest(http.MethodPost, "/themes", nil)
		r = r.WithContext(WithRole(r.Context(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, want, rec.Code, role)
	}
}
