package api

import (
	"net/http"
	"strings"

	"github.com/axellelanca/portfolio/internal/services"
)

// Address headers consulted for the visitor key, in priority order.
const (
	headerForwardedFor   = "X-Forwarded-For"
	headerRealIP         = "X-Real-IP"
	headerCFConnectingIP = "CF-Connecting-IP"
)

// VisitorKey derives the dedup key of a request from its address headers:
// the first entry of X-Forwarded-For, then X-Real-IP, then CF-Connecting-IP.
// Clients sending none of them all share services.UnknownVisitor.
// The headers are client controlled; this is a coarse anti-abuse heuristic.
func VisitorKey(r *http.Request) string {
	if xff := r.Header.Get(headerForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(headerRealIP)); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get(headerCFConnectingIP)); ip != "" {
		return ip
	}
	return services.UnknownVisitor
}
