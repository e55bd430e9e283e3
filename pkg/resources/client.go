// Package resources downloads evaluation resources (vocabulary, goal files
// and scene graphs) from a GitHub repository.
package resources

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v60/github"
)

// NewClient creates a GitHub API client. The token is optional; public
// repositories can be read without one at a lower rate limit.
func NewClient(token string) *gh.Client {
	httpClient := &http.Client{Transport: http.DefaultTransport}
	if token != "" {
		httpClient.Transport = &tokenTransport{token: token}
	}
	return gh.NewClient(httpClient)
}

// withBaseURL points a client at another API root, e.g. a test server.
func withBaseURL(c *gh.Client, base string) (*gh.Client, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c.BaseURL = u
	return c, nil
}

// tokenTransport adds Bearer token auth to HTTP requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

// SplitRepo splits "owner/name".
func SplitRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q (expected 'owner/name')", repo)
	}
	return parts[0], parts[1], nil
}
