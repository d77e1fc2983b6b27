package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noodlz/noodlz/internal/models"
)

var (
	ErrInvalidSession = errors.New("invalid or expired session")
	ErrMissingSession = errors.New("no session")
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "noodlz_session"

// SessionManager issues and validates the signed session tokens stored in the
// session cookie. The token carries nothing but the user ID; the user row is
// looked up per request.
type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
}

// sessionClaims is the JWT claim set for a session.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// NewSessionManager creates a session manager with the given secret and
// session lifetime. secretKey should be a strong random string (e.g. 32 bytes).
func NewSessionManager(secretKey string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed session token for the given user.
func (m *SessionManager) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses and validates a session token, returning the user ID.
func (m *SessionManager) Validate(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&sessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidSession
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}
	return userID, nil
}
