package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	AllowedIPs  []string // addresses or CIDRs; empty allows every client
}

// SwaggerProtection hides the docs when disabled and applies the IP allow
// list. RequireAuth is enforced by the router, which chains the admin JWT
// guard after this handler.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	allowed := parsePrefixes(cfg.AllowedIPs)
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		switch {
		case !cfg.Enabled:
			abortWithError(c, http.StatusNotFound, dto.ErrCodeNotFound, "API documentation is not available")
		case restricted && !clientAllowed(c.ClientIP(), allowed):
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access to API documentation is restricted")
		default:
			c.Next()
		}
	}
}

// parsePrefixes turns each entry into a prefix; a bare address matches only
// itself. Unparseable entries are skipped.
func parsePrefixes(entries []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if p, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
		}
	}
	return out
}

func clientAllowed(ip string, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
