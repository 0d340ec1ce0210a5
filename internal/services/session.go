package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"menuhub/internal/auth"
	"menuhub/internal/events"
	"menuhub/internal/models"
	"menuhub/internal/utils/logger"
)

// LoginLimiter throttles login attempts per key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// AvatarStore copies a remote profile picture into our own storage.
type AvatarStore interface {
	MirrorRemote(ctx context.Context, sourceURL string) (string, error)
}

// ResumeStatus is the outcome of ResumeSession.
type ResumeStatus string

const (
	ResumeNoToken       ResumeStatus = "NoToken"
	ResumeInvalidToken  ResumeStatus = "InvalidToken"
	ResumeExpiredToken  ResumeStatus = "ExpiredToken"
	ResumeUserNotFound  ResumeStatus = "UserNotFound"
	ResumeUserSuspended ResumeStatus = "UserSuspended"
	ResumeSuccess       ResumeStatus = "Success"
)

// Credentials is the login payload. Method selects which fields are used.
type Credentials struct {
	Method   models.AuthMethod `json:"method" validate:"omitempty,auth_method"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	IDToken  string            `json:"idToken"`
}

// Registration is the self sign-up payload.
type Registration struct {
	Method    models.AuthMethod `json:"method" validate:"omitempty,auth_method"`
	Email     string            `json:"email" validate:"omitempty,email"`
	Password  string            `json:"password"`
	FirstName string            `json:"firstName" validate:"max=100"`
	LastName  string            `json:"lastName" validate:"max=100"`
	IDToken   string            `json:"idToken"`
}

// Session is a freshly issued session. The caller applies Cookie to the
// response; nothing here touches a transport object.
type Session struct {
	Identity *models.Identity
	Token    string
	Cookie   auth.CookieBinding
}

type ResumeResult struct {
	Identity *models.Identity
	Status   ResumeStatus
	Token    string
	Cookie   auth.CookieBinding
}

type SessionDeps struct {
	Store    Store
	Codec    *auth.TokenCodec
	Cookies  *auth.CookieBinder
	Verifier auth.FederatedVerifier
	Limiter  LoginLimiter
	Avatars  AvatarStore
}

// SessionService implements login, registration, session resume and logout.
type SessionService struct {
	store    Store
	codec    *auth.TokenCodec
	cookies  *auth.CookieBinder
	verifier auth.FederatedVerifier
	limiter  LoginLimiter
	avatars  AvatarStore
	log      *logger.Logger
	verify   func(password, hash string) bool

	dummyOnce sync.Once
	dummyHash string
}

func NewSessionService(deps SessionDeps) (*SessionService, error) {
	if deps.Store == nil || deps.Codec == nil || deps.Cookies == nil {
		return nil, fmt.Errorf("%w: session service needs a store, a codec and a cookie binder", auth.ErrConfiguration)
	}
	return &SessionService{
		store:    deps.Store,
		codec:    deps.Codec,
		cookies:  deps.Cookies,
		verifier: deps.Verifier,
		limiter:  deps.Limiter,
		avatars:  deps.Avatars,
		log:      logger.New("session_service"),
		verify:   auth.VerifyPassword,
	}, nil
}

// Login authenticates credentials and issues a session. Unknown accounts and
// wrong passwords fail identically with ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, creds Credentials) (*Session, error) {
	var (
		identity *models.Identity
		err      error
	)
	switch methodOf(creds.Method) {
	case models.AuthMethodLocal:
		identity, err = s.loginLocal(ctx, creds)
	case models.AuthMethodFederated:
		identity, err = s.loginFederated(ctx, creds)
	default:
		return nil, fmt.Errorf("%w: unknown auth method %q", auth.ErrInvalidPayload, creds.Method)
	}
	if err != nil {
		return nil, err
	}

	if identity.IsSuspended() {
		return nil, auth.ErrAccountSuspended
	}

	now := time.Now()
	if err := s.store.TouchLogin(ctx, identity.ID, now); err != nil {
		s.log.Warn("Failed to record login for identity %d: %v", identity.ID, err)
	} else {
		identity.LastLoginAt = &now
	}

	session, err := s.issue(ctx, identity, 0)
	if err != nil {
		return nil, err
	}
	events.Emit(events.IdentityLoggedIn, identity)
	return session, nil
}

func (s *SessionService) loginLocal(ctx context.Context, creds Credentials) (*models.Identity, error) {
	email := models.NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", auth.ErrInvalidPayload)
	}
	if err := s.throttle(ctx, "local:"+email); err != nil {
		return nil, err
	}

	identity, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, auth.ErrNotFound) {
		// Spend the same bcrypt time as a real comparison.
		s.verify(creds.Password, s.dummy())
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if !identity.HasLocalPassword() {
		// Federated-only accounts cost the same as unknown ones.
		s.verify(creds.Password, s.dummy())
		return nil, auth.ErrInvalidCredentials
	}
	if !s.verify(creds.Password, identity.Password) {
		return nil, auth.ErrInvalidCredentials
	}
	return identity, nil
}

func (s *SessionService) loginFederated(ctx context.Context, creds Credentials) (*models.Identity, error) {
	fed, err := s.verifyFederated(ctx, creds.IDToken)
	if err != nil {
		return nil, err
	}
	if err := s.throttle(ctx, "federated:"+fed.Provider+":"+fed.Subject); err != nil {
		return nil, err
	}

	identity, err := s.store.FindByProviderSubject(ctx, fed.Provider, fed.Subject)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find provider link: %w", err)
	}
	return identity, nil
}

// Register creates a guest identity and issues its first session.
func (s *SessionService) Register(ctx context.Context, reg Registration) (*Session, error) {
	identity := &models.Identity{
		FirstName: strings.TrimSpace(reg.FirstName),
		LastName:  strings.TrimSpace(reg.LastName),
		Role:      models.RoleGuest,
		State:     models.StateActive,
		Active:    true,
	}
	var link *models.ProviderLink

	switch methodOf(reg.Method) {
	case models.AuthMethodLocal:
		identity.Email = models.NormalizeEmail(reg.Email)
		if identity.Email == "" || reg.Password == "" {
			return nil, fmt.Errorf("%w: email and password are required", auth.ErrInvalidPayload)
		}
		hash, err := auth.HashPassword(reg.Password)
		if err != nil {
			return nil, err
		}
		identity.Password = hash

	case models.AuthMethodFederated:
		if strings.TrimSpace(reg.IDToken) == "" {
			return nil, fmt.Errorf("%w: idToken is required", auth.ErrInvalidPayload)
		}
		fed, err := s.verifyFederated(ctx, reg.IDToken)
		if err != nil {
			return nil, err
		}
		if !fed.EmailVerified || fed.Email == "" {
			return nil, fmt.Errorf("%w: provider email is not verified", auth.ErrInvalidCredentials)
		}
		identity.Email = models.NormalizeEmail(fed.Email)
		if identity.FirstName == "" {
			identity.FirstName = fed.GivenName
		}
		if identity.LastName == "" {
			identity.LastName = fed.FamilyName
		}
		if image := s.avatarFor(ctx, fed.Picture); image != "" {
			identity.ImageURL = &image
		}
		link = &models.ProviderLink{Provider: fed.Provider, Subject: fed.Subject}

	default:
		return nil, fmt.Errorf("%w: unknown auth method %q", auth.ErrInvalidPayload, reg.Method)
	}

	if err := s.store.CreateIdentity(ctx, identity, link, nil); err != nil {
		if errors.Is(err, auth.ErrDuplicateAccount) {
			return nil, auth.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	s.log.Info("Registered identity %d (%s)", identity.ID, methodOf(reg.Method))
	events.Emit(events.IdentityCreated, identity)

	return s.issue(ctx, identity, 0)
}

// ResumeSession re-validates the session cookie and slides it forward. Every
// status other than ResumeSuccess carries a clearing cookie.
func (s *SessionService) ResumeSession(ctx context.Context, jar auth.CookieJar) (*ResumeResult, error) {
	fail := func(status ResumeStatus) *ResumeResult {
		return &ResumeResult{Status: status, Cookie: s.cookies.Clear()}
	}

	token, ok := s.cookies.Unbind(jar)
	if !ok {
		return fail(ResumeNoToken), nil
	}

	claims, err := s.codec.Verify(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return fail(ResumeExpiredToken), nil
	case err != nil:
		return fail(ResumeInvalidToken), nil
	}

	identity, err := s.store.FindByID(ctx, claims.SubjectID)
	if errors.Is(err, auth.ErrNotFound) {
		return fail(ResumeUserNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity.IsSuspended() {
		return fail(ResumeUserSuspended), nil
	}

	session, err := s.issue(ctx, identity, claims.OriginalIat)
	if errors.Is(err, auth.ErrTokenExpired) {
		return fail(ResumeExpiredToken), nil
	}
	if err != nil {
		return nil, err
	}
	return &ResumeResult{
		Identity: identity,
		Status:   ResumeSuccess,
		Token:    session.Token,
		Cookie:   session.Cookie,
	}, nil
}

// RefreshToken extends a still-valid token after checking its subject is
// still allowed in. Custom claims are carried over as they are.
func (s *SessionService) RefreshToken(ctx context.Context, token string) (*Session, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	identity, err := s.store.FindByID(ctx, claims.SubjectID)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, fmt.Errorf("%w: subject no longer exists", auth.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity.IsSuspended() {
		return nil, auth.ErrAccountSuspended
	}

	refreshed, err := s.codec.Refresh(token)
	if err != nil {
		return nil, err
	}
	return &Session{
		Identity: identity,
		Token:    refreshed,
		Cookie:   s.cookies.Bind(refreshed, auth.WithMaxAge(s.maxAge(claims.OriginalIat))),
	}, nil
}

// Identity loads the identity behind verified claims.
func (s *SessionService) Identity(ctx context.Context, claims *auth.Claims) (*models.Identity, error) {
	if claims == nil {
		return nil, auth.ErrTokenInvalid
	}
	return s.store.FindByID(ctx, claims.SubjectID)
}

// Logout returns the clearing binding. Issued tokens stay valid until they
// expire; there is no revocation list.
func (s *SessionService) Logout() auth.CookieBinding {
	return s.cookies.Clear()
}

func (s *SessionService) issue(ctx context.Context, identity *models.Identity, originalIat int64) (*Session, error) {
	claims := auth.Claims{
		SubjectID:   identity.ID,
		Email:       identity.Email,
		Role:        identity.Role,
		State:       identity.State,
		OriginalIat: originalIat,
	}
	if identity.IsEmployee() {
		claims.BranchID = identity.BranchID
		record, err := s.store.FindPermissions(ctx, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("load permissions: %w", err)
		}
		if claims.Permissions, err = auth.EncodePermissions(record); err != nil {
			return nil, err
		}
	}

	token, err := s.codec.Issue(claims)
	if err != nil {
		return nil, err
	}
	return &Session{
		Identity: identity,
		Token:    token,
		Cookie:   s.cookies.Bind(token, auth.WithMaxAge(s.maxAge(originalIat))),
	}, nil
}

// maxAge keeps the cookie from outliving the absolute session window.
func (s *SessionService) maxAge(originalIat int64) int {
	window := s.codec.AbsoluteSession()
	if originalIat > 0 {
		if left := time.Until(time.Unix(originalIat, 0).Add(window)); left < window {
			window = left
		}
	}
	if window < time.Second {
		return 1
	}
	return int(window / time.Second)
}

func (s *SessionService) verifyFederated(ctx context.Context, idToken string) (*auth.FederatedIdentity, error) {
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: federated login is not configured", auth.ErrConfiguration)
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: idToken is required", auth.ErrInvalidPayload)
	}
	return s.verifier.VerifyIDToken(ctx, idToken)
}

// throttle fails open when the limiter itself errors.
func (s *SessionService) throttle(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.log.Warn("Login limiter unavailable: %v", err)
		return nil
	}
	if !allowed {
		return auth.ErrTooManyAttempts
	}
	return nil
}

// avatarFor mirrors a provider picture; on failure the original URL is kept.
func (s *SessionService) avatarFor(ctx context.Context, picture string) string {
	if picture == "" || s.avatars == nil {
		return picture
	}
	mirrored, err := s.avatars.MirrorRemote(ctx, picture)
	if err != nil {
		s.log.Warn("Avatar mirror failed, keeping provider URL: %v", err)
		return picture
	}
	return mirrored
}

func (s *SessionService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("menuhub-timing-equalizer")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func methodOf(m models.AuthMethod) models.AuthMethod {
	if m == "" {
		return models.AuthMethodLocal
	}
	return m
}
