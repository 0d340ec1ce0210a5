package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"menuhub/internal/models"

	"github.com/golang-jwt/jwt/v4"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCodec(t *testing.T, absolute time.Duration) (*TokenCodec, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	codec, err := NewTokenCodec(TokenConfig{
		Secret:          "unit-test-secret",
		Issuer:          "menuhub-test",
		AbsoluteSession: absolute,
	}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec, clock
}

func TestNewTokenCodec_RequiresSecret(t *testing.T) {
	_, err := NewTokenCodec(TokenConfig{Secret: "  ", AbsoluteSession: time.Hour})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	_, err = NewTokenCodec(TokenConfig{Secret: "s", AbsoluteSession: 0})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for zero window, got %v", err)
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	codec, clock := newTestCodec(t, time.Hour)
	branch := int64(7)

	token, err := codec.Issue(Claims{
		SubjectID:   42,
		Email:       "ana@example.com",
		Role:        models.RoleEmployee,
		BranchID:    &branch,
		Permissions: json.RawMessage(`{"products":{"canView":true,"canEdit":false}}`),
		State:       models.StateActive,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SubjectID != 42 || claims.Email != "ana@example.com" || claims.Role != models.RoleEmployee {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.BranchID == nil || *claims.BranchID != 7 {
		t.Fatalf("expected branch 7, got %v", claims.BranchID)
	}
	if claims.State != models.StateActive {
		t.Fatalf("expected state active, got %q", claims.State)
	}
	if claims.OriginalIat != clock.Now().Unix() {
		t.Fatalf("expected originalIat %d, got %d", clock.Now().Unix(), claims.OriginalIat)
	}
	if claims.Subject != "42" || claims.ID == "" || claims.Issuer != "menuhub-test" {
		t.Fatalf("unexpected registered claims: %+v", claims.RegisteredClaims)
	}

	record, err := DecodePermissions(claims.Permissions)
	if err != nil {
		t.Fatalf("DecodePermissions: %v", err)
	}
	if !CanPerform(record, models.ModuleProducts, models.ActionView) {
		t.Fatal("expected view on products")
	}
	if !codec.IsValid(token) {
		t.Fatal("IsValid should be true")
	}
}

func TestIssue_RejectsMissingSubject(t *testing.T) {
	codec, _ := newTestCodec(t, time.Hour)
	_, err := codec.Issue(Claims{Email: "x@example.com"})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	codec, clock := newTestCodec(t, time.Hour)

	token, err := codec.IssueWithTTL(Claims{SubjectID: 1}, time.Second)
	if err != nil {
		t.Fatalf("IssueWithTTL: %v", err)
	}
	clock.Advance(1100 * time.Millisecond)

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if codec.IsValid(token) {
		t.Fatal("IsValid should be false for expired token")
	}
}

func TestVerify_ExpiredWithRealClock(t *testing.T) {
	codec, err := NewTokenCodec(TokenConfig{Secret: "s3cret", AbsoluteSession: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, err := codec.IssueWithTTL(Claims{SubjectID: 1}, time.Second)
	if err != nil {
		t.Fatalf("IssueWithTTL: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_Invalid(t *testing.T) {
	codec, _ := newTestCodec(t, time.Hour)
	other, err := NewTokenCodec(TokenConfig{Secret: "another-secret", AbsoluteSession: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	foreign, err := other.Issue(Claims{SubjectID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	good, err := codec.Issue(Claims{SubjectID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Unix(1_700_000_000, 0).Add(time.Hour).Unix(),
	}).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"foreign secret": foreign,
		"tampered":       tampered,
		"no subject":     noSubject,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestVerify_ExpiredForeignSignatureIsInvalid(t *testing.T) {
	codec, clock := newTestCodec(t, time.Hour)
	other, err := NewTokenCodec(TokenConfig{Secret: "another-secret", AbsoluteSession: time.Hour}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, err := other.IssueWithTTL(Claims{SubjectID: 1}, time.Second)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clock.Advance(time.Minute)

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	codec, _ := newTestCodec(t, time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"subjectId": 1,
		"exp":       time.Unix(1_700_000_000, 0).Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRefresh_PreservesOriginalIat(t *testing.T) {
	codec, clock := newTestCodec(t, time.Hour)
	start := clock.Now().Unix()

	token, err := codec.Issue(Claims{SubjectID: 9, Role: models.RoleGuest, Email: "g@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for i := 0; i < 3; i++ {
		clock.Advance(10 * time.Minute)
		token, err = codec.Refresh(token)
		if err != nil {
			t.Fatalf("Refresh #%d: %v", i, err)
		}
		claims, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("Verify after refresh #%d: %v", i, err)
		}
		if claims.OriginalIat != start {
			t.Fatalf("originalIat drifted: want %d, got %d", start, claims.OriginalIat)
		}
		if claims.Email != "g@example.com" || claims.Role != models.RoleGuest || claims.SubjectID != 9 {
			t.Fatalf("custom claims lost: %+v", claims)
		}
		if claims.IssuedAt.Unix() != clock.Now().Unix() {
			t.Fatalf("iat not renewed: %v", claims.IssuedAt)
		}
	}
}

func TestRefresh_ClampedToAbsoluteWindow(t *testing.T) {
	codec, clock := newTestCodec(t, time.Hour)
	start := clock.Now()

	token, err := codec.Issue(Claims{SubjectID: 3})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.Advance(50 * time.Minute)
	token, err = codec.Refresh(token)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if want := start.Add(time.Hour).Unix(); claims.ExpiresAt.Unix() != want {
		t.Fatalf("expiry not clamped: want %d, got %d", want, claims.ExpiresAt.Unix())
	}

	clock.Advance(11 * time.Minute)
	if _, err := codec.Refresh(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired past the absolute window, got %v", err)
	}
}

func TestIssue_ClampsCarriedOriginalIat(t *testing.T) {
	codec, clock := newTestCodec(t, time.Hour)
	origin := clock.Now().Add(-30 * time.Minute).Unix()

	token, err := codec.Issue(Claims{SubjectID: 5, OriginalIat: origin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if want := origin + int64(time.Hour/time.Second); claims.ExpiresAt.Unix() != want {
		t.Fatalf("want exp %d, got %d", want, claims.ExpiresAt.Unix())
	}

	_, err = codec.Issue(Claims{SubjectID: 5, OriginalIat: clock.Now().Add(-2 * time.Hour).Unix()})
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired for a spent session, got %v", err)
	}
}

func TestRefresh_FallsBackToIat(t *testing.T) {
	codec, clock := newTestCodec(t, time.Hour)
	iat := clock.Now().Unix()

	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"subjectId": 11,
		"iat":       iat,
		"exp":       iat + 600,
		"tenant":    "north",
	}).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	clock.Advance(time.Minute)
	refreshed, err := codec.Refresh(legacy)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := codec.Verify(refreshed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.OriginalIat != iat {
		t.Fatalf("expected originalIat %d, got %d", iat, claims.OriginalIat)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(refreshed, jwt.MapClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if parsed.Claims.(jwt.MapClaims)["tenant"] != "north" {
		t.Fatal("custom claim dropped by refresh")
	}
}

func TestRefresh_Invalid(t *testing.T) {
	codec, _ := newTestCodec(t, time.Hour)
	if _, err := codec.Refresh("junk"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
