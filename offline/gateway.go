package offline

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
)

// NewGateway returns a reverse proxy to the application origin whose traffic
// flows through the given caching policy. Requests the policy cannot answer
// at all (no network, no cached match, no offline page) surface as 502.
func NewGateway(conf *core.Config, rt http.RoundTripper, logger core.Logger) (http.Handler, error) {
	origin, err := url.Parse(conf.Cache.OriginURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing origin URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(origin)
	proxy.Transport = rt
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("gateway: "+r.URL.Path, err)
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy, nil
}
