package httpapi

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const operatorRealm = `Basic realm="lotto-operator"`

// HashPassword creates a bcrypt hash of the given password.
//
// Precondition: password must be non-empty and at most 72 bytes.
// Postcondition: Returns a bcrypt hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
//
// Postcondition: Returns true if password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// OperatorAuth guards operator routes with HTTP basic auth.
type OperatorAuth struct {
	user string
	hash string
}

// NewOperatorAuth creates an OperatorAuth. An empty hash disables the check.
func NewOperatorAuth(user, hash string, logger *zap.Logger) *OperatorAuth {
	if hash == "" {
		logger.Warn("operator password hash not configured; operator routes are open")
	}
	return &OperatorAuth{user: user, hash: hash}
}

// Handler rejects requests without valid operator credentials.
func (a *OperatorAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.hash == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, password, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) != 1 ||
			!CheckPassword(password, a.hash) {
			w.Header().Set("WWW-Authenticate", operatorRealm)
			writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "operator credentials required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
