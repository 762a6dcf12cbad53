// Package offline implements the gateway's caching policy: a versioned
// response cache with an install/activate lifecycle and per-request routing
// between network-first, navigation-fallback and stale-while-revalidate
// strategies. The Controller fronts the real network as an http.RoundTripper,
// so both the reverse proxy and the remote-store client share one policy.
package offline

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/offline/cache"
)

// offlineBody is the synthesized API fallback when neither network nor cache
// can answer.
const offlineBody = `{"error":"Currently offline"}`

type Controller struct {
	name       string // versioned cache name, e.g. "kipi-v1"
	origin     *url.URL
	remoteHost string
	offlineURL string
	assets     []string
	db         *cache.DB
	inner      http.RoundTripper
	logger     core.Logger

	mu        sync.RWMutex
	installed bool
	active    bool
	preload   bool

	// refreshHook runs after every background revalidation; tests use it to
	// observe the fire-and-forget refresh.
	refreshHook func()
}

var _ http.RoundTripper = (*Controller)(nil)

// NewController builds an inactive controller. inner may be nil for the
// default transport. The controller only routes requests for the app origin
// and the remote store host; anything else passes straight through.
func NewController(conf *core.Config, db *cache.DB, inner http.RoundTripper, logger core.Logger) (*Controller, error) {
	origin, err := url.Parse(conf.Cache.OriginURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing origin URL")
	}
	remote, err := url.Parse(conf.Remote.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing remote URL")
	}
	if inner == nil {
		inner = http.DefaultTransport
	}
	return &Controller{
		name:       conf.CacheName(),
		origin:     origin,
		remoteHost: remote.Host,
		offlineURL: conf.Cache.OfflineURL,
		assets:     conf.Cache.Assets,
		db:         db,
		inner:      inner,
		logger:     logger,
	}, nil
}

// Install populates the versioned cache with the fixed asset manifest. The
// population is all-or-nothing: a single failed asset fails the install and
// leaves the cache untouched. A successful install makes the controller
// eligible immediately; there is no waiting period.
func (c *Controller) Install(ctx context.Context) error {
	entries := make(map[string]cache.Response, len(c.assets))
	for _, path := range c.assets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.assetURL(path), nil)
		if err != nil {
			return errors.Wrapf(err, "requesting asset %s", path)
		}
		resp, err := c.inner.RoundTrip(req)
		if err != nil {
			return errors.Wrapf(err, "fetching asset %s", path)
		}
		body, err := ioutil.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return errors.Wrapf(err, "reading asset %s", path)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return errors.Errorf("fetching asset %s: %s", path, resp.Status)
		}
		entries[requestKey(req)] = cache.Response{
			Status: resp.StatusCode,
			Header: resp.Header,
			Body:   body,
		}
	}

	if err := c.db.PutAll(c.name, entries); err != nil {
		return errors.Wrap(err, "populating cache")
	}

	c.mu.Lock()
	c.installed = true
	c.mu.Unlock()
	return nil
}

// Activate enables navigation preload, garbage-collects every cache whose
// name is not the current version, and claims all traffic: from here on the
// controller routes every request it fronts.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	installed := c.installed
	c.preload = true
	c.mu.Unlock()
	if !installed {
		return errors.New("activating before a successful install")
	}

	names, err := c.db.Names()
	if err != nil {
		return errors.Wrap(err, "activating")
	}
	for _, name := range names {
		if name == c.name {
			continue
		}
		if err := c.db.Delete(name); err != nil {
			return errors.Wrap(err, "dropping stale cache")
		}
	}

	c.mu.Lock()
	c.active = true
	c.mu.Unlock()
	return nil
}

// Active reports whether the controller has claimed traffic.
func (c *Controller) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// RoundTrip classifies the request into exactly one routing rule, first match
// wins: cross-origin requests are not intercepted; API requests go
// network-first; navigations prefer preload/network with cached and offline
// fallbacks; all other requests are served stale-while-revalidate. Every
// routed branch ends in a terminal fallback; only the background refresh may
// fail silently.
func (c *Controller) RoundTrip(req *http.Request) (*http.Response, error) {
	if !c.Active() || c.crossOrigin(req) {
		return c.inner.RoundTrip(req)
	}
	switch {
	case c.isAPI(req):
		return c.networkFirst(req)
	case isNavigation(req):
		return c.navigate(req)
	default:
		return c.staleWhileRevalidate(req)
	}
}

// networkFirst tries the live network, caching successful GET responses. On a
// network error or non-success status it falls back to the cached entry for
// this exact request, then to the synthesized offline JSON body.
func (c *Controller) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := c.inner.RoundTrip(req)
	if err == nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if req.Method == http.MethodGet {
			return c.storeAndReturn(req, resp)
		}
		return resp, nil
	}
	if err == nil {
		// non-success response is discarded in favor of the fallbacks
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	if req.Method == http.MethodGet {
		if cached, ok, merr := c.db.Match(c.name, requestKey(req)); merr == nil && ok {
			return cachedResponse(cached, req), nil
		}
	}
	return offlineResponse(req), nil
}

// navigate serves a full-page load. With a single transport the preload
// attempt and the plain network attempt coincide: the fetch starts right
// away. On failure it falls back to the exact cached match, then to the
// offline page.
func (c *Controller) navigate(req *http.Request) (*http.Response, error) {
	resp, err := c.inner.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if cached, ok, merr := c.db.Match(c.name, requestKey(req)); merr == nil && ok {
		return cachedResponse(cached, req), nil
	}
	if cached, ok, merr := c.db.Match(c.name, "GET "+c.assetURL(c.offlineURL)); merr == nil && ok {
		return cachedResponse(cached, req), nil
	}
	return nil, err
}

// staleWhileRevalidate returns the cached entry immediately when present and
// refreshes it in the background; a cache miss hands the caller the live
// network result, which is then cached for next time.
func (c *Controller) staleWhileRevalidate(req *http.Request) (*http.Response, error) {
	if cached, ok, merr := c.db.Match(c.name, requestKey(req)); merr == nil && ok {
		// detach the refresh from the caller's context; its outcome must not
		// disturb the response already returned
		go c.refresh(req.Clone(context.Background()))
		return cachedResponse(cached, req), nil
	}

	resp, err := c.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	return c.storeAndReturn(req, resp)
}

// refresh re-fetches a request and overwrites its cache entry. Failures are
// swallowed on purpose: the caller already has its response.
func (c *Controller) refresh(req *http.Request) {
	defer func() {
		if c.refreshHook != nil {
			c.refreshHook()
		}
	}()

	resp, err := c.inner.RoundTrip(req)
	if err != nil {
		c.logger.Debug("background refresh failed: " + err.Error())
		return
	}
	body, err := ioutil.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		c.logger.Debug("background refresh failed: " + err.Error())
		return
	}
	err = c.db.Put(c.name, requestKey(req), cache.Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	})
	if err != nil {
		c.logger.Debug("background refresh failed: " + err.Error())
	}
}

// storeAndReturn caches the response body and hands the caller an equivalent
// response backed by the buffered body.
func (c *Controller) storeAndReturn(req *http.Request, resp *http.Response) (*http.Response, error) {
	body, err := ioutil.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}

	err = c.db.Put(c.name, requestKey(req), cache.Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	})
	if err != nil {
		// a response we cannot cache is still a perfectly good response
		c.logger.Warn("caching response", err)
	}

	resp.Body = ioutil.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func (c *Controller) crossOrigin(req *http.Request) bool {
	host := req.URL.Host
	if host == "" {
		host = req.Host
	}
	return !strings.EqualFold(host, c.origin.Host) && !strings.EqualFold(host, c.remoteHost)
}

// isAPI recognizes data-plane requests: anything with an /api/ path segment,
// plus every call to the remote store host (its table routes carry no /api/
// marker).
func (c *Controller) isAPI(req *http.Request) bool {
	if strings.Contains(req.URL.Path, "/api/") {
		return true
	}
	return c.remoteHost != "" && strings.EqualFold(req.URL.Host, c.remoteHost) && !strings.EqualFold(c.origin.Host, c.remoteHost)
}

func (c *Controller) assetURL(path string) string {
	u := *c.origin
	u.Path = path
	return u.String()
}

// isNavigation reports whether the request is a full-page load rather than a
// sub-resource fetch.
func isNavigation(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

// requestKey identifies a cache entry: the exact method and URL.
func requestKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

func cachedResponse(cached cache.Response, req *http.Request) *http.Response {
	header := make(http.Header, len(cached.Header))
	for k, v := range cached.Header {
		header[k] = v
	}
	return &http.Response{
		StatusCode:    cached.Status,
		Status:        http.StatusText(cached.Status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          ioutil.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       req,
	}
}

func offlineResponse(req *http.Request) *http.Response {
	body := []byte(offlineBody)
	return &http.Response{
		StatusCode:    http.StatusServiceUnavailable,
		Status:        "503 Service Unavailable",
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {"application/json"}},
		Body:          ioutil.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
