package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"menuhub/internal/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Claims is the payload of a session token. OriginalIat is the first issue
// time of a refresh chain (unix seconds) and never changes across refreshes.
type Claims struct {
	SubjectID   int64                 `json:"subjectId"`
	Email       string                `json:"email,omitempty"`
	Role        models.Role           `json:"role,omitempty"`
	BranchID    *int64                `json:"branchId,omitempty"`
	Permissions json.RawMessage       `json:"permissions,omitempty"`
	State       models.LifecycleState `json:"state,omitempty"`
	OriginalIat int64                 `json:"originalIat,omitempty"`
	jwt.RegisteredClaims
}

// reservedClaims are dropped from a token before it is re-issued.
var reservedClaims = []string{"exp", "iat", "nbf", "jti", "aud", "iss", "sub"}

type TokenConfig struct {
	Secret          string
	Issuer          string
	AbsoluteSession time.Duration
}

// TokenCodec signs and verifies HS256 session tokens. It is immutable after
// construction and safe for concurrent use.
type TokenCodec struct {
	secret   []byte
	issuer   string
	absolute time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

type CodecOption func(*TokenCodec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

func NewTokenCodec(cfg TokenConfig, opts ...CodecOption) (*TokenCodec, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: token secret is empty", ErrConfiguration)
	}
	if cfg.AbsoluteSession < time.Second {
		return nil, fmt.Errorf("%w: absolute session must be at least one second", ErrConfiguration)
	}
	c := &TokenCodec{
		secret:   []byte(secret),
		issuer:   cfg.Issuer,
		absolute: cfg.AbsoluteSession,
		now:      time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithJSONNumber(),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// AbsoluteSession is the configured session window.
func (c *TokenCodec) AbsoluteSession() time.Duration {
	return c.absolute
}

// Issue signs claims with the default lifetime (the absolute session window).
func (c *TokenCodec) Issue(claims Claims) (string, error) {
	return c.IssueWithTTL(claims, 0)
}

// IssueWithTTL signs claims expiring after ttl; ttl <= 0 selects the default.
// The expiry never passes OriginalIat + absolute session.
func (c *TokenCodec) IssueWithTTL(claims Claims, ttl time.Duration) (string, error) {
	if claims.SubjectID <= 0 {
		return "", fmt.Errorf("%w: subjectId must be a positive integer", ErrInvalidPayload)
	}
	if ttl <= 0 {
		ttl = c.absolute
	}

	now := c.now()
	if claims.OriginalIat == 0 {
		claims.OriginalIat = now.Unix()
	}
	expiresAt, err := c.expiry(now, ttl, claims.OriginalIat)
	if err != nil {
		return "", err
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   strconv.FormatInt(claims.SubjectID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, structure, required claims and expiry. An expired
// token with a valid signature fails with ErrTokenExpired; everything else
// fails with ErrTokenInvalid.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	_, claims, err := c.verify(token)
	return claims, err
}

// IsValid is a non-failing probe around Verify.
func (c *TokenCodec) IsValid(token string) bool {
	_, err := c.Verify(token)
	return err == nil
}

// Refresh verifies token and re-issues its custom claims with a fresh expiry
// computed from the configured window, keeping originalIat.
func (c *TokenCodec) Refresh(token string) (string, error) {
	raw, claims, err := c.verify(token)
	if err != nil {
		return "", err
	}

	originalIat := claims.OriginalIat
	if originalIat == 0 && claims.IssuedAt != nil {
		originalIat = claims.IssuedAt.Unix()
	}

	now := c.now()
	if originalIat == 0 {
		originalIat = now.Unix()
	}
	expiresAt, err := c.expiry(now, c.absolute, originalIat)
	if err != nil {
		return "", err
	}

	for _, name := range reservedClaims {
		delete(raw, name)
	}
	raw["originalIat"] = originalIat
	raw["iss"] = c.issuer
	raw["sub"] = strconv.FormatInt(claims.SubjectID, 10)
	raw["iat"] = now.Unix()
	raw["exp"] = expiresAt.Unix()
	raw["jti"] = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, raw).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) verify(token string) (jwt.MapClaims, *Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}

	raw := jwt.MapClaims{}
	parsed, err := c.parser.ParseWithClaims(token, raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, err := decodeClaims(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.SubjectID <= 0 {
		return nil, nil, fmt.Errorf("%w: subjectId missing", ErrTokenInvalid)
	}
	if claims.ExpiresAt == nil {
		return nil, nil, fmt.Errorf("%w: exp missing", ErrTokenInvalid)
	}

	now := c.now()
	if now.After(claims.ExpiresAt.Time) {
		return nil, nil, ErrTokenExpired
	}
	originalIat := claims.OriginalIat
	if originalIat == 0 && claims.IssuedAt != nil {
		originalIat = claims.IssuedAt.Unix()
	}
	if originalIat != 0 && now.After(time.Unix(originalIat, 0).Add(c.absolute)) {
		return nil, nil, fmt.Errorf("%w: absolute session lifetime reached", ErrTokenExpired)
	}
	return raw, claims, nil
}

// expiry returns min(now+ttl, originalIat+absolute).
func (c *TokenCodec) expiry(now time.Time, ttl time.Duration, originalIat int64) (time.Time, error) {
	limit := time.Unix(originalIat, 0).Add(c.absolute)
	if !limit.After(now) {
		return time.Time{}, fmt.Errorf("%w: absolute session lifetime reached", ErrTokenExpired)
	}
	expiresAt := now.Add(ttl)
	if expiresAt.After(limit) {
		expiresAt = limit
	}
	return expiresAt, nil
}

func decodeClaims(raw jwt.MapClaims) (*Claims, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	if err := json.Unmarshal(data, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
