package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func requestWithPrincipal(p *Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if p == nil {
		return req
	}
	return req.WithContext(ContextWithPrincipal(req.Context(), p))
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	m := Middleware{}
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler()).ServeHTTP(rec, requestWithPrincipal(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthPassesPrincipal(t *testing.T) {
	m := Middleware{}
	p := &Principal{UserID: uuid.New(), Roles: []RoleGrant{}}
	rec := httptest.NewRecorder()
	m.RequireAuth(okHandler()).ServeHTTP(rec, requestWithPrincipal(p))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequirePermissionsDeniesPartialHold(t *testing.T) {
	m := Middleware{}
	p := &Principal{
		Roles:           []RoleGrant{{Name: "Operations"}},
		PermissionCodes: map[string]struct{}{"system:user:view": {}},
	}
	rec := httptest.NewRecorder()
	m.RequirePermissions("system:user:view", "system:user:delete")(okHandler()).ServeHTTP(rec, requestWithPrincipal(p))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermissionsAllowsFullHold(t *testing.T) {
	m := Middleware{}
	p := &Principal{
		Roles:           []RoleGrant{{Name: "Operations"}},
		PermissionCodes: map[string]struct{}{"system:user:view": {}, "system:user:delete": {}},
	}
	rec := httptest.NewRecorder()
	m.RequirePermissions("system:user:view", "system:user:delete")(okHandler()).ServeHTTP(rec, requestWithPrincipal(p))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRolesMatchesAnyName(t *testing.T) {
	m := Middleware{}
	p := &Principal{Roles: []RoleGrant{{Name: "Operations"}}}
	rec := httptest.NewRecorder()
	m.RequireRoles("Finance", "Operations")(okHandler()).ServeHTTP(rec, requestWithPrincipal(p))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRolesDeniesAnonymous(t *testing.T) {
	m := Middleware{}
	rec := httptest.NewRecorder()
	m.RequireRoles("Finance")(okHandler()).ServeHTTP(rec, requestWithPrincipal(nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type countingMetrics struct {
	decisions map[string]int
}

func (c *countingMetrics) GuardDecision(gate, outcome string) {
	if c.decisions == nil {
		c.decisions = make(map[string]int)
	}
	c.decisions[gate+"/"+outcome]++
}

func TestGuardDecisionsAreObserved(t *testing.T) {
	metrics := &countingMetrics{}
	m := Middleware{Metrics: metrics}
	p := &Principal{Roles: []RoleGrant{{Name: "Operations"}}, PermissionCodes: map[string]struct{}{}}

	rec := httptest.NewRecorder()
	m.RequireRoles("Operations")(okHandler()).ServeHTTP(rec, requestWithPrincipal(p))
	rec = httptest.NewRecorder()
	m.RequirePermissions("system:user:delete")(okHandler()).ServeHTTP(rec, requestWithPrincipal(p))

	assert.Equal(t, 1, metrics.decisions["role/allow"])
	assert.Equal(t, 1, metrics.decisions["permission/deny"])
}
