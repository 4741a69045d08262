package middleware

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityConfig holds the parts of the browser security policy that vary
// per deployment. Connect sources follow the CORS origin list so the two
// policies never disagree about which frontends may talk to the API.
type SecurityConfig struct {
	AllowedDomains []string
	AllowInlineJS  bool
}

// NewSecurityConfig derives the security policy from the same environment
// the CORS layer reads. Script relaxations stay off unless explicitly
// enabled.
func NewSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		AllowedDomains: NewCORSConfig().AllowOrigins,
		AllowInlineJS:  os.Getenv("SECURITY_ALLOW_INLINE_JS") == "true",
	}
}

// SecurityHeaders sets the standard browser hardening headers on every
// response and strips server identification.
func SecurityHeaders(config *SecurityConfig) echo.MiddlewareFunc {
	csp := buildCSP(config)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			h.Set("Content-Security-Policy", csp)
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

func buildCSP(config *SecurityConfig) string {
	csp := []string{
		"default-src 'self'",
		"img-src 'self' data: https:",
		"style-src 'self' 'unsafe-inline'",
	}

	if config.AllowInlineJS {
		csp = append(csp, "script-src 'self' 'unsafe-inline'")
	} else {
		csp = append(csp, "script-src 'self'")
	}

	if len(config.AllowedDomains) > 0 {
		csp = append(csp, "connect-src 'self' "+strings.Join(config.AllowedDomains, " "))
	}

	return strings.Join(csp, "; ")
}
