package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const ProviderGoogle = "google"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// FederatedIdentity is what a verified provider assertion tells us about the
// caller. Subject is the provider's stable user id.
type FederatedIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
}

// FederatedVerifier checks a provider assertion before it is trusted.
type FederatedVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

var errKeyFetch = errors.New("auth: provider key fetch failed")

// GoogleVerifier verifies Google ID tokens against Google's published JWKS.
// Keys are cached and refreshed after the refresh interval, or on a kid miss
// at most once per miss interval.
type GoogleVerifier struct {
	clientID        string
	jwksURL         string
	httpClient      *http.Client
	refreshInterval time.Duration
	missInterval    time.Duration

	fetchMu     sync.Mutex
	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastFetch   time.Time
	lastAttempt time.Time
}

var _ FederatedVerifier = (*GoogleVerifier)(nil)

type VerifierOption func(*GoogleVerifier)

func WithHTTPClient(c *http.Client) VerifierOption {
	return func(v *GoogleVerifier) { v.httpClient = c }
}

func WithRefreshInterval(d time.Duration) VerifierOption {
	return func(v *GoogleVerifier) { v.refreshInterval = d }
}

// WithMissInterval bounds how often an unknown kid may force a key fetch.
func WithMissInterval(d time.Duration) VerifierOption {
	return func(v *GoogleVerifier) { v.missInterval = d }
}

func NewGoogleVerifier(clientID, jwksURL string, opts ...VerifierOption) (*GoogleVerifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("%w: google client id is empty", ErrConfiguration)
	}
	if strings.TrimSpace(jwksURL) == "" {
		return nil, fmt.Errorf("%w: google jwks url is empty", ErrConfiguration)
	}
	v := &GoogleVerifier{
		clientID:        clientID,
		jwksURL:         jwksURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		refreshInterval: time.Hour,
		missInterval:    time.Minute,
		keys:            make(map[string]*rsa.PublicKey),
	}
	for _, o := range opts {
		o(v)
	}
	return v, nil
}

type googleClaims struct {
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	GivenName     string   `json:"given_name"`
	FamilyName    string   `json:"family_name"`
	Picture       string   `json:"picture"`
	jwt.RegisteredClaims
}

// flexBool accepts both true and "true"; Google has sent either.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	default:
		*b = false
	}
	return nil
}

// VerifyIDToken checks signature, issuer, audience and expiry. Any failure of
// the assertion itself is reported as ErrInvalidCredentials.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FederatedIdentity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty id token", ErrInvalidCredentials)
	}

	claims := &googleClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		return v.getKey(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, errKeyFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: id token not valid", ErrInvalidCredentials)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: id token has no expiry", ErrInvalidCredentials)
	}
	if !validIssuer(claims.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredentials, claims.Issuer)
	}
	if !claims.VerifyAudience(v.clientID, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidCredentials)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: id token has no subject", ErrInvalidCredentials)
	}

	return &FederatedIdentity{
		Provider:      ProviderGoogle,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
		Picture:       claims.Picture,
	}, nil
}

func validIssuer(iss string) bool {
	for _, candidate := range googleIssuers {
		if iss == candidate {
			return true
		}
	}
	return false
}

func (v *GoogleVerifier) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, found, stale := v.lookup(kid)
	if found && !stale {
		return key, nil
	}

	v.fetchMu.Lock()
	// Another caller may have fetched while we waited.
	key, found, stale = v.lookup(kid)
	if found && !stale {
		v.fetchMu.Unlock()
		return key, nil
	}
	v.mu.RLock()
	throttled := !stale && time.Since(v.lastAttempt) < v.missInterval
	v.mu.RUnlock()
	var err error
	if !throttled {
		err = v.refresh(ctx)
	}
	v.fetchMu.Unlock()

	if err != nil {
		if found {
			return key, nil
		}
		return nil, err
	}
	if key, ok, _ := v.lookup(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("no key for kid %q", kid)
}

func (v *GoogleVerifier) lookup(kid string) (*rsa.PublicKey, bool, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	key, found := v.keys[kid]
	return key, found, time.Since(v.lastFetch) > v.refreshInterval
}

func (v *GoogleVerifier) refresh(ctx context.Context) error {
	v.mu.Lock()
	v.lastAttempt = time.Now()
	v.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errKeyFetch, err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errKeyFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errKeyFetch, resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("%w: decode: %v", errKeyFetch, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: no RSA signing keys", errKeyFetch)
	}

	v.mu.Lock()
	v.keys = keys
	v.lastFetch = time.Now()
	v.mu.Unlock()
	return nil
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
