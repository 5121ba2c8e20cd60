package auth

import (
	"context"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Role constants used when checking back-office authorisation boundaries.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Identity captures the authenticated administrator details extracted from a
// Firebase ID token.
type Identity struct {
	UID   string
	Email string
	Roles []string

	token *firebaseauth.Token
}

// Token exposes the decoded Firebase ID token associated with this identity.
func (i *Identity) Token() *firebaseauth.Token {
	if i == nil {
		return nil
	}
	return i.token
}

// HasRole reports whether the identity includes the requested role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = normaliseRole(role)
	if role == "" {
		return false
	}
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// ClubSession identifies an authenticated club back-office user.
type ClubSession struct {
	ClubID   string
	ClubName string
}

type contextKey string

const (
	identityContextKey    contextKey = "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/auth/identity"
	clubSessionContextKey contextKey = "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/auth/club"
)

// WithIdentity stores the admin identity within the context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the admin identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// WithClubSession stores the club session within the context.
func WithClubSession(ctx context.Context, session *ClubSession) context.Context {
	return context.WithValue(ctx, clubSessionContextKey, session)
}

// ClubSessionFromContext retrieves the club session previously stored in context.
func ClubSessionFromContext(ctx context.Context) (*ClubSession, bool) {
	session, ok := ctx.Value(clubSessionContextKey).(*ClubSession)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
