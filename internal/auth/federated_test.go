package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testClientID = "client-123.apps.googleusercontent.com"

func jwksServer(t *testing.T, kid string, pub *rsa.PublicKey, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]interface{}{{
				"kty": "RSA",
				"use": "sig",
				"kid": kid,
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func googleClaimsFor(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"sub":            "108234",
		"email":          "Ana@Example.com",
		"email_verified": true,
		"given_name":     "Ana",
		"family_name":    "Lopez",
		"picture":        "https://lh3.googleusercontent.com/a/ana",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func TestGoogleVerifier_Valid(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	var hits int32
	srv := jwksServer(t, "k1", &key.PublicKey, &hits)

	v, err := NewGoogleVerifier(testClientID, srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}

	token := signIDToken(t, key, "k1", googleClaimsFor(time.Now()))
	for i := 0; i < 2; i++ {
		identity, err := v.VerifyIDToken(context.Background(), token)
		if err != nil {
			t.Fatalf("VerifyIDToken: %v", err)
		}
		if identity.Provider != ProviderGoogle || identity.Subject != "108234" || !identity.EmailVerified {
			t.Fatalf("unexpected identity: %+v", identity)
		}
		if identity.GivenName != "Ana" || identity.FamilyName != "Lopez" {
			t.Fatalf("unexpected names: %+v", identity)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected keys to be cached, fetched %d times", got)
	}
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	srv := jwksServer(t, "k1", &key.PublicKey, nil)
	v, err := NewGoogleVerifier(testClientID, srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}

	now := time.Now()
	mutate := func(f func(jwt.MapClaims)) jwt.MapClaims {
		c := googleClaimsFor(now)
		f(c)
		return c
	}

	cases := map[string]string{
		"empty":         "",
		"wrong issuer":  signIDToken(t, key, "k1", mutate(func(c jwt.MapClaims) { c["iss"] = "https://evil.example" })),
		"wrong aud":     signIDToken(t, key, "k1", mutate(func(c jwt.MapClaims) { c["aud"] = "someone-else" })),
		"expired":       signIDToken(t, key, "k1", mutate(func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Minute).Unix() })),
		"no expiry":     signIDToken(t, key, "k1", mutate(func(c jwt.MapClaims) { delete(c, "exp") })),
		"no subject":    signIDToken(t, key, "k1", mutate(func(c jwt.MapClaims) { delete(c, "sub") })),
		"wrong key":     signIDToken(t, otherKey, "k1", googleClaimsFor(now)),
		"unknown kid":   signIDToken(t, key, "k2", googleClaimsFor(now)),
		"hmac rejected": hmacIDToken(t, googleClaimsFor(now)),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.VerifyIDToken(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func hmacIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestGoogleVerifier_KeyFetchFailure(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	v, err := NewGoogleVerifier(testClientID, srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}
	_, err = v.VerifyIDToken(context.Background(), signIDToken(t, key, "k1", googleClaimsFor(time.Now())))
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected an upstream error, got %v", err)
	}
}

func TestGoogleVerifier_UnknownKidDoesNotRefetchEveryTime(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	var hits int32
	srv := jwksServer(t, "k1", &key.PublicKey, &hits)
	v, err := NewGoogleVerifier(testClientID, srv.URL, WithMissInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}

	if _, err := v.VerifyIDToken(context.Background(), signIDToken(t, key, "k1", googleClaimsFor(time.Now()))); err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	for _, kid := range []string{"missing-1", "missing-2", "missing-1"} {
		_, err := v.VerifyIDToken(context.Background(), signIDToken(t, key, kid, googleClaimsFor(time.Now())))
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", kid, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("unknown kids fetched keys %d times, want 1", got)
	}
}

func TestGoogleVerifier_PicksUpRotatedKey(t *testing.T) {
	oldKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	newKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	var hits int32
	var rotated atomic.Bool
	oldSrv := jwksServer(t, "old", &oldKey.PublicKey, nil)
	newSrv := jwksServer(t, "new", &newKey.PublicKey, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		target := oldSrv.URL
		if rotated.Load() {
			target = newSrv.URL
		}
		http.Redirect(w, r, target, http.StatusFound)
	}))
	defer srv.Close()

	v, err := NewGoogleVerifier(testClientID, srv.URL, WithMissInterval(0))
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}
	if _, err := v.VerifyIDToken(context.Background(), signIDToken(t, oldKey, "old", googleClaimsFor(time.Now()))); err != nil {
		t.Fatalf("old key: %v", err)
	}
	rotated.Store(true)
	if _, err := v.VerifyIDToken(context.Background(), signIDToken(t, newKey, "new", googleClaimsFor(time.Now()))); err != nil {
		t.Fatalf("rotated key: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("fetched keys %d times, want 2", got)
	}
}

func TestNewGoogleVerifier_Config(t *testing.T) {
	if _, err := NewGoogleVerifier("", "https://example.com/certs"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
