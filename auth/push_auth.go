// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/a2aserve/a2aserve/log"
)

const rsaKeyBits = 2048

// PushNotificationAuthenticator signs push notification payloads and
// publishes the verification keys as a JWKS document. Receivers fetch the
// JWKS, verify the token signature, and compare the payload hash claim.
type PushNotificationAuthenticator struct {
	mu         sync.RWMutex
	privateKey jwk.Key
	publicSet  jwk.Set
}

// NewPushNotificationAuthenticator creates an authenticator without keys.
// Call GenerateKeyPair before signing.
func NewPushNotificationAuthenticator() *PushNotificationAuthenticator {
	return &PushNotificationAuthenticator{}
}

// GenerateKeyPair creates a fresh RSA signing key and the matching public
// JWKS.
func (a *PushNotificationAuthenticator) GenerateKeyPair() error {
	raw, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privateKey, err := jwk.FromRaw(raw)
	if err != nil {
		return fmt.Errorf("failed to build JWK from RSA key: %w", err)
	}
	if err := jwk.AssignKeyID(privateKey); err != nil {
		return fmt.Errorf("failed to assign key ID: %w", err)
	}
	if err := privateKey.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return fmt.Errorf("failed to set key usage: %w", err)
	}
	if err := privateKey.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return fmt.Errorf("failed to set key algorithm: %w", err)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return fmt.Errorf("failed to derive public key: %w", err)
	}
	publicSet := jwk.NewSet()
	if err := publicSet.AddKey(publicKey); err != nil {
		return fmt.Errorf("failed to add public key to set: %w", err)
	}

	a.mu.Lock()
	a.privateKey = privateKey
	a.publicSet = publicSet
	a.mu.Unlock()
	return nil
}

// Sign creates a signed token binding the given payload: the token carries
// the issue time and the SHA-256 of the payload. Receivers recompute the
// hash over the delivered body.
func (a *PushNotificationAuthenticator) Sign(payload []byte) (string, error) {
	a.mu.RLock()
	privateKey := a.privateKey
	a.mu.RUnlock()
	if privateKey == nil {
		return "", errors.New("no signing key, call GenerateKeyPair first")
	}

	sum := sha256.Sum256(payload)
	token, err := jwt.NewBuilder().
		IssuedAt(time.Now()).
		Claim("request_body_sha256", hex.EncodeToString(sum[:])).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, privateKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify checks a token produced by Sign against the public key set and the
// delivered payload.
func (a *PushNotificationAuthenticator) Verify(tokenString string, payload []byte) error {
	a.mu.RLock()
	publicSet := a.publicSet
	a.mu.RUnlock()
	if publicSet == nil {
		return errors.New("no verification keys available")
	}

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKeySet(publicSet))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	claim, ok := token.Get("request_body_sha256")
	if !ok {
		return fmt.Errorf("%w: token lacks payload hash claim", ErrInvalidCredentials)
	}
	sum := sha256.Sum256(payload)
	if claim != hex.EncodeToString(sum[:]) {
		return fmt.Errorf("%w: payload hash mismatch", ErrInvalidCredentials)
	}
	return nil
}

// HandleJWKS serves the public key set at the JWKS well-known path.
func (a *PushNotificationAuthenticator) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	a.mu.RLock()
	publicSet := a.publicSet
	a.mu.RUnlock()
	if publicSet == nil {
		http.Error(w, "no keys configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(publicSet); err != nil {
		log.Errorf("Failed to encode JWKS response: %v", err)
	}
}
