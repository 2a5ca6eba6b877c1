package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/dwikikusuma/quickcart/pkg/kvstore"
)

// CookieKey is where PersistentJar keeps the backend's cookies.
const CookieKey = "cookies"

// PersistentJar is a cookie jar whose cookies for the API origin survive
// across process runs, so the server-side login session outlives a single
// command.
type PersistentJar struct {
	store kvstore.Store
	base  *url.URL
	log   *slog.Logger

	mu  sync.Mutex
	jar *cookiejar.Jar
}

func NewPersistentJar(ctx context.Context, store kvstore.Store, baseURL string, log *slog.Logger) (*PersistentJar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: parse base url: %w", err)
	}
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	j := &PersistentJar{store: store, base: u, log: log, jar: jar}

	raw, ok, err := store.Get(ctx, CookieKey)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: load: %w", err)
	}
	if ok && raw != "" {
		cookies, err := http.ParseCookie(raw)
		if err != nil {
			log.Warn("discarding unreadable stored cookies", slog.Any("err", err))
		} else {
			root := *u
			root.Path = "/"
			for _, c := range cookies {
				c.Path = "/"
			}
			j.jar.SetCookies(&root, cookies)
		}
	}
	return j, nil
}

func newJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return jar, nil
}

func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.jar.SetCookies(u, cookies)
	j.mu.Unlock()
	j.save()
}

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Reset drops every cookie in memory. The persisted copy is removed by
// whoever clears the session state.
func (j *PersistentJar) Reset() {
	jar, err := newJar()
	if err != nil {
		j.log.Warn("cookie jar reset failed", slog.Any("err", err))
		return
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

func (j *PersistentJar) save() {
	cookies := j.Cookies(j.base)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}

	ctx := context.Background()
	var err error
	if len(parts) == 0 {
		err = j.store.Delete(ctx, CookieKey)
	} else {
		err = j.store.Set(ctx, CookieKey, strings.Join(parts, "; "))
	}
	if err != nil {
		j.log.Warn("persist cookies failed", slog.Any("err", err))
	}
}
