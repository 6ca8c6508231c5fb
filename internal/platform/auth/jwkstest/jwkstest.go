// Package jwkstest serves a rotatable JWKS and mints RS256 tokens for tests.
package jwkstest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

type Keypair struct {
	Kid     string
	Private *rsa.PrivateKey
}

func GenerateRSAKeypair(kid string) (Keypair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Kid: kid, Private: priv}, nil
}

// KeySetJSON encodes the public halves of keys as a JWKS document.
func KeySetJSON(keys ...Keypair) ([]byte, error) {
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{}}
	for _, kp := range keys {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       &kp.Private.PublicKey,
			KeyID:     kp.Kid,
			Algorithm: string(jose.RS256),
			Use:       "sig",
		})
	}
	return json.Marshal(set)
}

// NewRotatingJWKSServer returns a JWKS server and a func that replaces its key set.
func NewRotatingJWKSServer() (*httptest.Server, func(keys []Keypair)) {
	var body atomic.Value
	body.Store([]byte(`{"keys":[]}`))

	setKeys := func(keys []Keypair) {
		b, _ := KeySetJSON(keys...)
		body.Store(b)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body.Load().([]byte))
	}))
	return srv, setKeys
}

// Mint signs a token for sub. A nil nbf omits the claim.
func Mint(kp Keypair, iss, aud, sub string, now time.Time, ttl time.Duration, nbf *time.Time) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: kp.Private, KeyID: kp.Kid}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", err
	}
	claims := jwt.Claims{
		Issuer:   iss,
		Subject:  sub,
		Audience: jwt.Audience{aud},
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(ttl)),
	}
	if nbf != nil {
		claims.NotBefore = jwt.NewNumericDate(*nbf)
	}
	return jwt.Signed(signer).Claims(claims).Serialize()
}
