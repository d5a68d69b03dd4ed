package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bryanwahyu/medassist/internal/domain/identity"
)

// Claims is the bearer token payload issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	HospitalID string `json:"hospital_id,omitempty"`
	PatientID  string `json:"patient_id,omitempty"`
}

func (c *Claims) Identity() identity.Identity {
	return identity.Identity{
		UserID:     c.Subject,
		Role:       identity.Role(c.Role),
		HospitalID: c.HospitalID,
		PatientID:  c.PatientID,
	}
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	Secret []byte
	Issuer string
	// Public paths skip authentication entirely.
	Public func(path string) bool
}

func (a *Authenticator) Parse(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.Issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return a.Secret, nil }, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Issue signs a token; used by the CLI and tests.
func (a *Authenticator) Issue(id identity.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    a.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:       string(id.Role),
		HospitalID: id.HospitalID,
		PatientID:  id.PatientID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

// Authenticate requires a valid bearer token on non-public paths and puts
// the caller identity into the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Public != nil && a.Public(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing Authorization header")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if raw == "" {
			WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid Authorization header format")
			return
		}
		claims, err := a.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", fmt.Sprintf("invalid token: %v", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), claims.Identity())))
	})
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
				return
			}
			if !id.HasRole(roles...) {
				WriteError(w, http.StatusForbidden, "FORBIDDEN", "role not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
