package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/ecommerce/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SwaggerAllowlist restricts the API docs to the given IPs and CIDRs.
// Malformed entries are ignored; an empty list allows everyone.
func SwaggerAllowlist(allowed []string) gin.HandlerFunc {
	prefixes := parseAllowlist(allowed)
	if len(prefixes) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		addr, err := netip.ParseAddr(c.ClientIP())
		if err != nil || !containsAddr(prefixes, addr.Unmap()) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden,
					"Access to API documentation is restricted", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func parseAllowlist(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			if p, err := netip.ParsePrefix(e); err == nil {
				out = append(out, p.Masked())
			}
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
