// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package gate holds the edge check that keeps anonymous browsers away from
// protected pages. It only looks for a credential, the resolver downstream
// decides whether it is valid.
package gate

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
)

const returnToParam = "return_to"

type Gate struct {
	public     []string
	apiPrefix  string
	signInURL  string
	cookieName string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// IsPublic matches whole path segments, "/signin" covers "/signin/x" but
// not "/signinx".
func (g *Gate) IsPublic(p string) bool {
	p = cleanPath(p)

	for _, prefix := range g.public {
		if prefix == "/" || p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	return false
}

func (g *Gate) isAPI(p string) bool {
	if g.apiPrefix == "" {
		return false
	}

	return strings.HasPrefix(cleanPath(p)+"/", g.apiPrefix)
}

func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if _, found := authentication.CredentialFromRequest(r, g.cookieName); found {
				next.ServeHTTP(w, r)
				return
			}

			// API handlers answer 401 on their own
			if g.isAPI(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			g.logger.Debugf("no credential for %s, redirecting to sign in", r.URL.Path)
			http.Redirect(w, r, g.signInLocation(r), http.StatusSeeOther)
		})
	}
}

func (g *Gate) signInLocation(r *http.Request) string {
	u, err := url.Parse(g.signInURL)
	if err != nil {
		return g.signInURL
	}

	q := u.Query()
	q.Set(returnToParam, r.URL.RequestURI())
	u.RawQuery = q.Encode()

	return u.String()
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return path.Clean(p)
}

func NewGate(
	publicPrefixes []string,
	apiPrefix, signInURL, cookieName string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Gate {
	g := new(Gate)

	for _, prefix := range publicPrefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		g.public = append(g.public, cleanPath(prefix))
	}

	// the sign in page itself must stay reachable
	if u, err := url.Parse(signInURL); err == nil && u.Host == "" && u.Path != "" {
		g.public = append(g.public, cleanPath(u.Path))
	}

	if apiPrefix != "" {
		g.apiPrefix = strings.TrimSuffix(cleanPath(apiPrefix), "/") + "/"
	}

	g.signInURL = signInURL
	g.cookieName = cookieName
	g.tracer = tracer
	g.monitor = monitor
	g.logger = logger

	return g
}
