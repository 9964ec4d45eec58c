package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	GuestCookie = "me_guest_id"
	guestPrefix = "guest|"
	guestTTL    = 30 * 24 * time.Hour
)

// POST /auth/guest
//
// Issues a learner token for an anonymous browser. The guest id is kept in a
// cookie so the same browser keeps its attempts across logins.
func GuestLoginHandler(a *AuthService) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Sub         string `json:"sub"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sub := ""
		if c, err := r.Cookie(GuestCookie); err == nil && strings.HasPrefix(c.Value, guestPrefix) {
			if _, err := uuid.Parse(strings.TrimPrefix(c.Value, guestPrefix)); err == nil {
				sub = c.Value
			}
		}
		if sub == "" {
			sub = guestPrefix + uuid.NewString()
		}

		tok, err := a.IssueJWT(sub, RoleLearner)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		// refresh the cookie on every login
		http.SetCookie(w, &http.Cookie{
			Name:     GuestCookie,
			Value:    sub,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Expires:  time.Now().Add(guestTTL),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Sub: sub, Username: guestName(sub)})
	}
}

// guestName is a short display name derived from the guest id.
func guestName(sub string) string {
	id := strings.ReplaceAll(strings.TrimPrefix(sub, guestPrefix), "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "guest-" + id
}
