package localauth

import (
	"context"
	"crypto"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

const (
	// AppleIssuer is the issuer of Sign in with Apple identity tokens.
	AppleIssuer = "https://appleid.apple.com"
	// AppleKeysURL serves Apple's token signing keys.
	AppleKeysURL = "https://appleid.apple.com/auth/keys"
)

// NewRemoteVerifier verifies tokens against a JWKS endpoint. The key set is fetched
// lazily and cached by go-oidc; ctx bounds those fetches.
func NewRemoteVerifier(ctx context.Context, issuer, jwksURL, clientID string) *gooidc.IDTokenVerifier {
	keySet := gooidc.NewRemoteKeySet(ctx, jwksURL)
	return gooidc.NewVerifier(issuer, keySet, &gooidc.Config{ClientID: clientID})
}

// NewAppleVerifier verifies Sign in with Apple tokens issued to clientID.
func NewAppleVerifier(ctx context.Context, clientID string) *gooidc.IDTokenVerifier {
	return NewRemoteVerifier(ctx, AppleIssuer, AppleKeysURL, clientID)
}

// NewStaticVerifier verifies tokens signed by one of keys. Used with the dev provider.
func NewStaticVerifier(issuer, clientID string, keys ...crypto.PublicKey) *gooidc.IDTokenVerifier {
	keySet := &gooidc.StaticKeySet{PublicKeys: keys}
	return gooidc.NewVerifier(issuer, keySet, &gooidc.Config{ClientID: clientID})
}
