package http

import (
	"net/http"
	"strings"

	"quiz-engine/internal/domain"
)

// IdentityFunc resolves the authenticated user of a request.
type IdentityFunc func(r *http.Request) (string, error)

// UserFromRequest reads the user id set by the fronting auth proxy (X-User-ID), falling back
// to the userId query parameter for browser websocket clients that cannot set headers.
func UserFromRequest(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		userID = strings.TrimSpace(r.URL.Query().Get("userId"))
	}
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}
	return userID, nil
}
