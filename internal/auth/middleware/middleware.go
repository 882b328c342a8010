package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/fapquiz/internal/rbac"
	"github.com/mind-engage/fapquiz/internal/report"
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrIncomplete     = errors.New("last_name, first_name and position are required")
)

const tokenTTL = 8 * time.Hour

type AuthService struct {
	hmac       []byte
	editorUser string
	editorHash []byte
	now        func() time.Time
}

// NewAuthService signs tokens with secret. editorHash is the bcrypt hash of
// the editor password.
func NewAuthService(secret, editorUser string, editorHash []byte) *AuthService {
	return &AuthService{hmac: []byte(secret), editorUser: editorUser, editorHash: editorHash, now: time.Now}
}

type Claims struct {
	Sub      string           `json:"sub"`
	Role     string           `json:"role"` // "testee" or "editor"
	Identity *report.Identity `json:"identity,omitempty"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string, id *report.Identity) (string, error) {
	now := a.now()
	claims := &Claims{
		Sub:      sub,
		Role:     role,
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "fapquiz",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// CheckEditor compares the editor credentials.
func (a *AuthService) CheckEditor(user, pass string) error {
	if a.editorUser == "" || len(a.editorHash) == 0 || user != a.editorUser {
		return ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(a.editorHash, []byte(pass)) != nil {
		return ErrBadCredentials
	}
	return nil
}

type LoginRequest struct {
	Role string `json:"role"` // testee (default) | editor

	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	Position   string `json:"position"`

	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	Subject     string           `json:"subject"`
	Role        string           `json:"role"`
	Identity    *report.Identity `json:"identity,omitempty"`
}

// Login issues a token. Testees get a fresh subject per login and carry
// their identity record in the token.
func (a *AuthService) Login(req LoginRequest) (LoginResponse, error) {
	switch req.Role {
	case rbac.RoleEditor:
		if err := a.CheckEditor(req.Username, req.Password); err != nil {
			return LoginResponse{}, err
		}
		tok, err := a.IssueJWT(req.Username, rbac.RoleEditor, nil)
		if err != nil {
			return LoginResponse{}, err
		}
		return LoginResponse{AccessToken: tok, Subject: req.Username, Role: rbac.RoleEditor}, nil
	case "", rbac.RoleTestee:
	default:
		return LoginResponse{}, ErrBadCredentials
	}

	id := report.Identity{
		LastName:   strings.TrimSpace(req.LastName),
		FirstName:  strings.TrimSpace(req.FirstName),
		MiddleName: strings.TrimSpace(req.MiddleName),
		Position:   strings.TrimSpace(req.Position),
		LoginTime:  a.now().Truncate(time.Second),
	}
	if id.LastName == "" || id.FirstName == "" || id.Position == "" {
		return LoginResponse{}, ErrIncomplete
	}
	sub := "testee|" + uuid.NewString()
	tok, err := a.IssueJWT(sub, rbac.RoleTestee, &id)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{AccessToken: tok, Subject: sub, Role: rbac.RoleTestee, Identity: &id}, nil
}

// POST /auth/login
func LoginHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		out, err := a.Login(req)
		switch {
		case errors.Is(err, ErrIncomplete):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, ErrBadCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		case err != nil:
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// JWTMiddleware puts the subject, role and identity of a valid bearer token
// into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			if c.Identity != nil {
				ctx = WithIdentity(ctx, *c.Identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
