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

	"github.com/mind-engage/mindengage-numeric/internal/rbac"
)

const (
	RoleAuthor  = "author"
	RoleLearner = "learner"
)

var ErrBadCredentials = errors.New("invalid credentials")

type AuthService struct {
	hmac       []byte
	authorUser string
	authorHash []byte // bcrypt
	ttl        time.Duration
}

func NewAuthService(secret, authorUser, authorPassHash string) *AuthService {
	return &AuthService{
		hmac:       []byte(secret),
		authorUser: authorUser,
		authorHash: []byte(authorPassHash),
		ttl:        8 * time.Hour,
	}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "author" or "learner"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mindengage-numeric",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
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
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// Authenticate checks a login and returns the subject to issue a token for.
// Authors need the configured user name and password. Learners need no
// password; without a user name they get a fresh guest identity. A learner
// may not claim a guest id or the author's name.
func (a *AuthService) Authenticate(username, password, role string) (string, error) {
	switch role {
	case RoleAuthor:
		if username != a.authorUser {
			return "", ErrBadCredentials
		}
		if err := bcrypt.CompareHashAndPassword(a.authorHash, []byte(password)); err != nil {
			return "", ErrBadCredentials
		}
		return username, nil
	case RoleLearner:
		username = strings.TrimSpace(username)
		switch {
		case username == "":
			return guestPrefix + uuid.NewString(), nil
		case strings.HasPrefix(username, guestPrefix), username == a.authorUser:
			// guest ids come only from GuestLoginHandler
			return "", ErrBadCredentials
		}
		return username, nil
	}
	return "", ErrBadCredentials
}

// POST /auth/login  { "username": "...", "password": "...", "role": "author|learner" }
func LoginHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub, err := a.Authenticate(req.Username, req.Password, req.Role)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(sub, req.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "sub": sub, "role": req.Role})
	}
}

// JWTMiddleware validates the bearer token and puts its subject and role in
// the request context for rbac.
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
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
