package auth

import (
	"net/http"
	"strings"
	"time"
)

type SameSite string

const (
	SameSiteStrict SameSite = "strict"
	SameSiteLax    SameSite = "lax"
)

// CookieOptions are the attributes of the session cookie.
type CookieOptions struct {
	HTTPOnly bool
	Secure   bool
	SameSite SameSite
	Path     string
	Domain   string
	// MaxAge in seconds; 0 means delete.
	MaxAge int
}

// CookieBinding is a transport-neutral description of a cookie to set.
type CookieBinding struct {
	Name    string
	Value   string
	Options CookieOptions
}

type CookieOption func(*CookieOptions)

func WithMaxAge(seconds int) CookieOption {
	return func(o *CookieOptions) { o.MaxAge = seconds }
}

// WithHTTPOnly is accepted for symmetry; Bind always forces HttpOnly.
func WithHTTPOnly(v bool) CookieOption {
	return func(o *CookieOptions) { o.HTTPOnly = v }
}

func WithSecure(v bool) CookieOption {
	return func(o *CookieOptions) { o.Secure = v }
}

func WithSameSite(s SameSite) CookieOption {
	return func(o *CookieOptions) { o.SameSite = s }
}

func WithPath(path string) CookieOption {
	return func(o *CookieOptions) { o.Path = path }
}

func WithDomain(domain string) CookieOption {
	return func(o *CookieOptions) { o.Domain = domain }
}

// CookieJar is anything that can look up a request cookie by name.
// echo.Context and *http.Request both satisfy it.
type CookieJar interface {
	Cookie(name string) (*http.Cookie, error)
}

// CookieBinder builds session cookie bindings with fixed defaults.
type CookieBinder struct {
	name     string
	defaults CookieOptions
}

type CookieBinderConfig struct {
	Name     string
	Secure   bool
	SameSite SameSite
	Domain   string
	MaxAge   time.Duration
}

func NewCookieBinder(cfg CookieBinderConfig) *CookieBinder {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "session"
	}
	sameSite := cfg.SameSite
	if sameSite != SameSiteStrict {
		sameSite = SameSiteLax
	}
	return &CookieBinder{
		name: name,
		defaults: CookieOptions{
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: sameSite,
			Path:     "/",
			Domain:   cfg.Domain,
			MaxAge:   int(cfg.MaxAge / time.Second),
		},
	}
}

func (b *CookieBinder) Name() string {
	return b.name
}

// Bind returns the binding that stores token in the session cookie. HttpOnly
// is always set, whatever the options say.
func (b *CookieBinder) Bind(token string, opts ...CookieOption) CookieBinding {
	o := b.options(opts)
	o.HTTPOnly = true
	return CookieBinding{Name: b.name, Value: token, Options: o}
}

// Unbind reads the session token from jar. It reports false when the cookie
// is absent or empty.
func (b *CookieBinder) Unbind(jar CookieJar) (string, bool) {
	if jar == nil {
		return "", false
	}
	c, err := jar.Cookie(b.name)
	if err != nil || c == nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Clear returns a binding that deletes the session cookie.
func (b *CookieBinder) Clear(opts ...CookieOption) CookieBinding {
	o := b.options(opts)
	o.HTTPOnly = true
	o.MaxAge = 0
	return CookieBinding{Name: b.name, Value: "", Options: o}
}

func (b *CookieBinder) options(opts []CookieOption) CookieOptions {
	o := b.defaults
	for _, opt := range opts {
		opt(&o)
	}
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}

// HTTPCookie converts the binding to a net/http cookie.
func (cb CookieBinding) HTTPCookie() *http.Cookie {
	c := &http.Cookie{
		Name:     cb.Name,
		Value:    cb.Value,
		Path:     cb.Options.Path,
		Domain:   cb.Options.Domain,
		HttpOnly: cb.Options.HTTPOnly,
		Secure:   cb.Options.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if cb.Options.SameSite == SameSiteStrict {
		c.SameSite = http.SameSiteStrictMode
	}
	if cb.Options.MaxAge > 0 {
		c.MaxAge = cb.Options.MaxAge
		c.Expires = time.Now().Add(time.Duration(cb.Options.MaxAge) * time.Second)
	} else {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	return c
}
