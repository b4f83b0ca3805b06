// Package auth gates administrative operations on a fixed allow-list of
// operator identities and resolves bearer tokens to identities.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrUnauthorized indicates a bearer token did not resolve to an identity.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer is an immutable allow-list of admin identities.
type Authorizer struct {
	admins map[string]struct{}
}

// NewAuthorizer builds an Authorizer. Blank entries are ignored.
func NewAuthorizer(identities []string) *Authorizer {
	admins := make(map[string]struct{}, len(identities))
	for _, id := range identities {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		admins[id] = struct{}{}
	}
	return &Authorizer{admins: admins}
}

// IsAdmin reports whether identity is on the allow-list.
func (a *Authorizer) IsAdmin(identity string) bool {
	_, ok := a.admins[identity]
	return ok
}

// Len returns the number of admins.
func (a *Authorizer) Len() int {
	return len(a.admins)
}

// TokenResolver maps bearer tokens to identities. Tokens are kept only
// as SHA-256 hashes.
type TokenResolver struct {
	identities map[string]string
}

// NewTokenResolver builds a resolver from a token -> identity map.
func NewTokenResolver(tokens map[string]string) *TokenResolver {
	identities := make(map[string]string, len(tokens))
	for token, identity := range tokens {
		if token == "" || identity == "" {
			continue
		}
		identities[hashToken(token)] = identity
	}
	return &TokenResolver{identities: identities}
}

// ResolveIdentity returns the identity behind token.
func (r *TokenResolver) ResolveIdentity(_ context.Context, token string) (string, error) {
	identity, ok := r.identities[hashToken(token)]
	if !ok {
		return "", ErrUnauthorized
	}
	return identity, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
