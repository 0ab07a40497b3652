package httpkit

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSOptions configures the CORS middleware. An AllowedOrigins entry of "*"
// allows any origin; the request origin is echoed back either way.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAgeSeconds caches preflight answers; 600 when zero.
	MaxAgeSeconds int
}

type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	// Header values are joined once.
	methods, headers, exposed, maxAge string
	credentials                       bool
}

func newCORSPolicy(opt CORSOptions) *corsPolicy {
	p := &corsPolicy{
		origins:     make(map[string]struct{}, len(opt.AllowedOrigins)),
		methods:     joinOr(opt.AllowedMethods, http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions),
		headers:     joinOr(opt.AllowedHeaders, "Content-Type", "Authorization", "Accept", "X-Request-ID"),
		exposed:     strings.Join(opt.ExposedHeaders, ", "),
		maxAge:      strconv.Itoa(cmpOr(opt.MaxAgeSeconds, 600)),
		credentials: opt.AllowCredentials,
	}
	for _, o := range opt.AllowedOrigins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

func (p *corsPolicy) apply(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	h.Set("Access-Control-Max-Age", p.maxAge)
	if p.exposed != "" {
		h.Set("Access-Control-Expose-Headers", p.exposed)
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// CORS adds CORS headers for allowed origins and answers preflight requests
// with 204 without reaching the router.
func CORS(opt CORSOptions) func(http.Handler) http.Handler {
	p := newCORSPolicy(opt)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if p.allows(origin) {
				p.apply(w.Header(), origin)
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func joinOr(values []string, fallback ...string) string {
	values = slices.DeleteFunc(slices.Clone(values), func(s string) bool { return strings.TrimSpace(s) == "" })
	if len(values) == 0 {
		values = fallback
	}
	return strings.Join(values, ", ")
}

func cmpOr(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
