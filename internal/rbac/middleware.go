package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Require lets the request through when the role in context holds perm.
// A request without a role is unauthenticated rather than forbidden.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch role := RoleFromContext(r.Context()); {
			case role == "":
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
			case !defaultChecker.Has(role, perm):
				http.Error(w, "forbidden: missing "+perm, http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
