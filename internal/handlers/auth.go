package handlers

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// BasicAuth guards handlers with one set of credentials.
type BasicAuth struct {
	user     string
	password string
	realm    string
	logger   *zap.Logger
}

// NewBasicAuth creates a guard. An empty password rejects every request.
func NewBasicAuth(user, password, realm string, logger *zap.Logger) *BasicAuth {
	return &BasicAuth{user: user, password: password, realm: realm, logger: logger}
}

// Require wraps next so it only runs for callers presenting the credentials.
func (a *BasicAuth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || !a.valid(user, password) {
			if ok {
				a.logger.Warn("rejected credentials",
					zap.String("realm", a.realm),
					zap.String("user", user),
					zap.String("remote_addr", r.RemoteAddr))
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="`+a.realm+`"`)
			if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
				a.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		next(w, r)
	}
}

func (a *BasicAuth) valid(user, password string) bool {
	if a.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}
