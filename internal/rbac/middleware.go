package rbac

import (
	"net/http"

	"log/slog"

	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// GuardMetrics records guard decisions. Implemented by observability.Metrics.
type GuardMetrics interface {
	GuardDecision(gate, outcome string)
}

// Middleware wires authorization guards for HTTP handlers. The role gate and
// the permission gate are independent; the request pipeline applies them in
// that order. Any evaluation failure resolves to deny, never to an error
// surfaced to business handlers.
type Middleware struct {
	Aggregator *Aggregator
	Logger     *slog.Logger
	Reserved   shared.Reserved
	Metrics    GuardMetrics
}

// WithPrincipal resolves the session subject into a principal and stores it
// in the request context. Requests without a resolvable principal pass
// through unauthenticated; the guards below deny them.
func (m Middleware) WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := uuid.Parse(sess.User())
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("principal parse subject", slog.String("value", sess.User()))
			}
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Aggregator.CurrentUser(r.Context(), userID)
		if err != nil {
			// A storage failure here must read as "no principal", which the
			// guards treat as deny.
			if m.Logger != nil {
				m.Logger.Error("principal aggregation", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireAuth denies requests that carry no principal at all.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles is the role gate: the principal needs at least one role whose
// display name is in the required set. An empty requirement allows.
func (m Middleware) RequireRoles(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if m.evaluateRoles(p, names) {
				m.observe("role", "allow")
				next.ServeHTTP(w, r)
				return
			}
			m.observe("role", "deny")
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequirePermissions is the permission gate: every required code must be in
// the principal's aggregated set. An empty requirement allows.
func (m Middleware) RequirePermissions(codes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if m.evaluatePermissions(p, codes) {
				m.observe("permission", "allow")
				next.ServeHTTP(w, r)
				return
			}
			m.observe("permission", "deny")
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// EvaluateAccess runs both gates against a principal without touching HTTP.
func (m Middleware) EvaluateAccess(p *Principal, requiredRoles, requiredCodes []string) bool {
	return m.evaluateRoles(p, requiredRoles) && m.evaluatePermissions(p, requiredCodes)
}

func (m Middleware) evaluateRoles(p *Principal, names []string) bool {
	if len(names) == 0 {
		return true
	}
	if p == nil || p.Roles == nil {
		return false
	}
	if p.IsSuperAdmin {
		return true
	}
	for _, name := range names {
		if p.HasRole(name) {
			return true
		}
	}
	return false
}

func (m Middleware) evaluatePermissions(p *Principal, codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	if p == nil || p.Roles == nil {
		return false
	}
	if p.IsSuperAdmin {
		return true
	}
	return p.HasAllPermissions(codes)
}

func (m Middleware) observe(gate, outcome string) {
	if m.Metrics != nil {
		m.Metrics.GuardDecision(gate, outcome)
	}
}
