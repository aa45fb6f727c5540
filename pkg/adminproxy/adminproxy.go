// Package adminproxy mounts a byte-level reverse proxy for the admin
// UI / SSO surfaces the gateway fronts but never interprets (spec.md
// §4.N, §6 routing table). It's a tiny gin.Engine with a single
// catch-all route, grounded on the teacher's examples/gin-server/
// main.go wiring (gin.SetMode(gin.ReleaseMode), corsMiddleware, a
// handful of explicit routes) — generalized here from named JSON
// endpoints to one wildcard proxy route, so the gin dependency earns
// its keep without ever touching the hot chat-completions path, which
// is served by chi in internal/server instead. Which request paths
// reach this engine at all is internal/server's routing-table
// decision; this package only ever forwards.
package adminproxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
)

// New builds a gin.Engine that reverse-proxies every request it
// receives to target, stripping the configured Host header and
// performing no body mutation (spec.md §4.N: "opaque" transport). It's
// a catch-all rather than prefix-scoped because internal/server mounts
// the same engine under several distinct admin-route prefixes
// (/v1/ui, /ui, /sso, ...) via chi's Mount, which forwards the
// original unmodified request path straight through to a non-chi
// handler rather than stripping the matched prefix — so the prefix
// decision belongs entirely to the caller's routing table, not here.
func New(target *url.URL) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	proxy := httputil.NewSingleHostReverseProxy(target)
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host
	}

	r.Any("/*proxyPath", func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	})

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
