package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const defaultSessionTTL = 12 * time.Hour

var (
	// ErrSessionTokenInvalid signals a malformed or tampered session token.
	ErrSessionTokenInvalid = errors.New("auth: club session token invalid")
	// ErrSessionTokenExpired signals an expired session token.
	ErrSessionTokenExpired = errors.New("auth: club session token expired")
)

type clubClaims struct {
	ClubName string `json:"clubName,omitempty"`
	jwt.RegisteredClaims
}

// ClubSessionManager issues and validates signed session tokens for club users.
type ClubSessionManager struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// ClubSessionOption customises the manager.
type ClubSessionOption func(*ClubSessionManager)

// WithSessionTTL overrides the token lifetime.
func WithSessionTTL(ttl time.Duration) ClubSessionOption {
	return func(m *ClubSessionManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSessionClock overrides the time source, primarily for testing.
func WithSessionClock(clock func() time.Time) ClubSessionOption {
	return func(m *ClubSessionManager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewClubSessionManager constructs a manager signing tokens with the given secret.
func NewClubSessionManager(secret string, opts ...ClubSessionOption) (*ClubSessionManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: club session secret is required")
	}
	manager := &ClubSessionManager{
		secret: []byte(secret),
		ttl:    defaultSessionTTL,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}
	return manager, nil
}

// Issue creates a signed session token for the provided club.
func (m *ClubSessionManager) Issue(session ClubSession) (string, error) {
	if m == nil {
		return "", errors.New("auth: session manager not initialised")
	}
	if strings.TrimSpace(session.ClubID) == "" {
		return "", errors.New("auth: club id is required")
	}

	now := m.clock().UTC()
	claims := clubClaims{
		ClubName: session.ClubName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ClubID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the club session.
func (m *ClubSessionManager) Verify(tokenStr string) (ClubSession, error) {
	if m == nil {
		return ClubSession{}, errors.New("auth: session manager not initialised")
	}

	// Expiry is checked against the manager clock below, so claim validation
	// with the parser's wall clock is skipped.
	var claims clubClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return ClubSession{}, ErrSessionTokenInvalid
	}
	if claims.ExpiresAt == nil || !m.clock().UTC().Before(claims.ExpiresAt.Time) {
		return ClubSession{}, ErrSessionTokenExpired
	}
	if claims.Subject == "" {
		return ClubSession{}, ErrSessionTokenInvalid
	}
	return ClubSession{ClubID: claims.Subject, ClubName: claims.ClubName}, nil
}

// HashPassword derives a bcrypt hash for storage alongside the club document.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares the stored bcrypt hash with the candidate password.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
