// Package jwtverifier authenticates bearer tokens issued by an OIDC provider. The user id is
// the token's `sub` claim.
package jwtverifier

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"golang.org/x/sync/singleflight"

	"github.com/vitalcoach/coach-api/internal/platform/clock"
	"github.com/vitalcoach/coach-api/internal/platform/config"
	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
)

var ErrUnauthorized = errors.New("unauthorized")

type Verifier struct {
	cfg    config.JWTConfig
	client *http.Client
	clk    clockport.Clock

	group singleflight.Group

	mu          sync.Mutex
	keys        jose.JSONWebKeySet
	lastRefresh time.Time
}

func New(cfg config.JWTConfig) *Verifier {
	return NewWithOptions(cfg, nil, nil)
}

func NewWithOptions(cfg config.JWTConfig, httpClient *http.Client, clk clockport.Clock) *Verifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Verifier{cfg: cfg, client: httpClient, clk: clk}
}

// Verify checks an RS256 token against the JWKS, then iss, aud, exp and nbf, and returns `sub`.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.RS256})
	if err != nil || len(tok.Headers) != 1 {
		return "", ErrUnauthorized
	}
	kid := tok.Headers[0].KeyID
	if kid == "" {
		return "", ErrUnauthorized
	}

	if err := v.maybeRefresh(ctx, kid); err != nil {
		return "", ErrUnauthorized
	}
	pub := v.key(kid)
	if pub == nil {
		return "", ErrUnauthorized
	}

	var claims jwt.Claims
	if err := tok.Claims(pub, &claims); err != nil {
		return "", ErrUnauthorized
	}
	if claims.Expiry == nil || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	err = claims.ValidateWithLeeway(jwt.Expected{
		Issuer:      v.cfg.Issuer,
		AnyAudience: jwt.Audience{v.cfg.Audience},
		Time:        v.clk.Now(),
	}, v.cfg.ClockSkew)
	if err != nil {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

func (v *Verifier) key(kid string) *rsa.PublicKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, k := range v.keys.Key(kid) {
		if pub, ok := k.Key.(*rsa.PublicKey); ok {
			return pub
		}
	}
	return nil
}

// maybeRefresh refetches the key set on the refresh interval, or early for an unknown kid
// when the min refresh interval allows it. Concurrent refreshes share one fetch.
func (v *Verifier) maybeRefresh(ctx context.Context, kid string) error {
	now := v.clk.Now()

	v.mu.Lock()
	since := now.Sub(v.lastRefresh)
	never := v.lastRefresh.IsZero()
	stale := !never && v.cfg.JWKSRefreshInterval > 0 && since >= v.cfg.JWKSRefreshInterval
	unknown := len(v.keys.Key(kid)) == 0
	mayRetry := never || v.cfg.JWKSMinRefreshInterval <= 0 || since >= v.cfg.JWKSMinRefreshInterval
	v.mu.Unlock()

	if !stale && !(unknown && mayRetry) {
		return nil
	}

	ch := v.group.DoChan("jwks", func() (any, error) {
		return nil, v.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("jwks fetch failed: status=%d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}
	usable := set.Keys[:0]
	for _, k := range set.Keys {
		if _, ok := k.Key.(*rsa.PublicKey); ok && k.KeyID != "" {
			usable = append(usable, k)
		}
	}
	if len(usable) == 0 {
		return errors.New("no usable jwks keys")
	}

	v.mu.Lock()
	v.keys = jose.JSONWebKeySet{Keys: usable}
	v.lastRefresh = v.clk.Now()
	v.mu.Unlock()
	return nil
}
