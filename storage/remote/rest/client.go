// Package restdb talks to the hosted persistence backend: a PostgREST-style
// row store reachable over HTTPS. Every call is scoped to an owner via a
// user_id filter; the backend enforces the same scoping with row-level
// security, so the filter here is defense in depth, not the only guard.
package restdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a backend client. transport may be nil for the default;
// the gateway passes its offline controller here so store-issued calls get
// the same caching policy as everything else.
func NewClient(conf *core.Config, transport http.RoundTripper) *Client {
	return &Client{
		baseURL: conf.Remote.URL,
		apiKey:  conf.Remote.APIKey,
		http: &http.Client{
			Timeout:   conf.Remote.Timeout,
			Transport: transport,
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, table string, query url.Values, body interface{}) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		buf = bytes.NewReader(data)
	}

	u := fmt.Sprintf("%s/%s", c.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do runs the request and decodes the response rows into out (if non-nil).
func (c *Client) do(req *http.Request, out interface{}) error {
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling remote store")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var remoteErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&remoteErr)
		msg := remoteErr.Message
		if msg == "" {
			msg = remoteErr.Error
		}
		if msg == "" {
			msg = res.Status
		}
		return errors.Errorf("remote store: %s", msg)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

// ownerFilter scopes a query to the owning identity. No call may ever go out
// without one.
func ownerFilter(owner string) url.Values {
	q := make(url.Values)
	q.Set("user_id", "eq."+owner)
	return q
}
