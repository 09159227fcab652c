package cookies

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// PersistentJar implements http.CookieJar, writing every change through to
// a Store.
type PersistentJar struct {
	mu      sync.RWMutex
	jar     *cookiejar.Jar // In-memory jar for standard behavior
	store   Store
	cookies map[string]Cookie
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a PersistentJar.
type Option func(*PersistentJar)

// WithLogger sets the logger used to report failed writes.
func WithLogger(logger *slog.Logger) Option {
	return func(pj *PersistentJar) {
		if logger != nil {
			pj.logger = logger
		}
	}
}

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(pj *PersistentJar) {
		if now != nil {
			pj.now = now
		}
	}
}

// NewPersistentJar creates a jar holding the unexpired cookies in store.
func NewPersistentJar(ctx context.Context, store Store, opts ...Option) (*PersistentJar, error) {
	pj := &PersistentJar{
		store:   store,
		cookies: make(map[string]Cookie),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(pj)
	}

	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	pj.jar = jar

	stored, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := pj.now()
	for _, c := range stored {
		if !c.IsExpired(now) {
			pj.cookies[c.key()] = c
		}
	}
	pj.fill()

	return pj, nil
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
}

// fill loads the remembered cookies into the in-memory jar.
func (pj *PersistentJar) fill() {
	byDomain := make(map[string][]*http.Cookie)
	for _, c := range pj.cookies {
		byDomain[c.Domain] = append(byDomain[c.Domain], c.ToHTTPCookie())
	}

	for domain, domainCookies := range byDomain {
		u := &url.URL{
			Scheme: "https",
			Host:   domain,
			Path:   "/",
		}
		pj.jar.SetCookies(u, domainCookies)
	}
}

// SetCookies implements http.CookieJar.
func (pj *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	pj.mu.Lock()
	defer pj.mu.Unlock()

	pj.jar.SetCookies(u, cookies)

	now := pj.now()
	for _, hc := range cookies {
		c := FromHTTPCookie(u, hc, now)
		if c.IsExpired(now) {
			delete(pj.cookies, c.key())
			continue
		}
		pj.cookies[c.key()] = c
	}

	if err := pj.store.Save(context.Background(), pj.listLocked()); err != nil {
		pj.logger.Warn("failed to save cookies", "host", u.Host, "error", err)
	}
}

// Cookies implements http.CookieJar.
func (pj *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	pj.mu.RLock()
	defer pj.mu.RUnlock()

	return pj.jar.Cookies(u)
}

// Clear removes all cookies from jar and store.
func (pj *PersistentJar) Clear(ctx context.Context) error {
	pj.mu.Lock()
	defer pj.mu.Unlock()

	jar, err := newJar()
	if err != nil {
		return err
	}
	pj.jar = jar
	pj.cookies = make(map[string]Cookie)

	return pj.store.Clear(ctx)
}

// List returns the remembered cookies ordered by domain, path and name.
func (pj *PersistentJar) List() []Cookie {
	pj.mu.RLock()
	defer pj.mu.RUnlock()
	return pj.listLocked()
}

func (pj *PersistentJar) listLocked() []Cookie {
	now := pj.now()
	list := make([]Cookie, 0, len(pj.cookies))
	for _, c := range pj.cookies {
		if !c.IsExpired(now) {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].key() < list[j].key()
	})
	return list
}

var _ http.CookieJar = (*PersistentJar)(nil)
