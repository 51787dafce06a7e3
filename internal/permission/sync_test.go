package permission

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

func TestInferAction(t *testing.T) {
	cases := []struct {
		method string
		route  string
		want   string
	}{
		{http.MethodGet, "/users", "query"},
		{http.MethodGet, "/users/{id}", "get"},
		{http.MethodGet, "/users/export", "export"},
		{http.MethodPost, "/users/import", "import"},
		{http.MethodPost, "/users", "create"},
		{http.MethodPut, "/users/{id}", "update"},
		{http.MethodPatch, "/users/{id}", "update"},
		{http.MethodDelete, "/users/{id}", "delete"},
		{http.MethodDelete, "/users/batch", "batchDelete"},
		{http.MethodPut, "/users/{id}/reset-password", "resetPassword"},
		{http.MethodPut, "/roles/{id}/assign", "assign"},
		{http.MethodPut, "/roles/{id}/unbind", "unbind"},
		{http.MethodPut, "/users/{id}/enable", "enable"},
		{http.MethodPut, "/users/{id}/disable", "disable"},
		{http.MethodGet, "/users/download/template", "downloadTemplate"},
		{http.MethodPost, "/users/upload/template", "uploadTemplate"},
		{http.MethodGet, "/users/:id", "get"},
		{"CONNECT", "/tunnel", "access"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.route, func(t *testing.T) {
			assert.Equal(t, tc.want, InferAction(tc.method, tc.route))
		})
	}
}

func TestSynchronizerCreatesMissingAPINodes(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menu := node("menu:system:user", KindMenu, dir.ID)
	repo := newMockRepo(dir, menu)
	sync := NewSynchronizer(repo, uuid.Nil, slog.Default())

	report, err := sync.Run(context.Background(), []Endpoint{
		{Controller: "users", Handler: "list", HTTPMethod: http.MethodGet, Route: "/users", Codes: []string{"system:user:view"}},
	})
	require.NoError(t, err)
	require.Len(t, report, 1)

	entry := report[0]
	assert.Equal(t, SyncCreated, entry.Status)
	assert.Equal(t, "api:system:user:query", entry.Code)
	assert.Equal(t, "menu:system:user", entry.MenuCode)

	created, err := repo.FindByCode(context.Background(), "api:system:user:query")
	require.NoError(t, err)
	assert.Equal(t, KindAPI, created.Kind)
	assert.Equal(t, OriginSystem, created.Origin)
	assert.Equal(t, menu.ID, created.ParentID)
}

func TestSynchronizerIdempotent(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menu := node("menu:system:user", KindMenu, dir.ID)
	repo := newMockRepo(dir, menu)
	sync := NewSynchronizer(repo, uuid.Nil, slog.Default())
	endpoints := []Endpoint{
		{Controller: "users", Handler: "list", HTTPMethod: http.MethodGet, Route: "/users", Codes: []string{"system:user:view"}},
	}

	first, err := sync.Run(context.Background(), endpoints)
	require.NoError(t, err)
	require.Equal(t, SyncCreated, first[0].Status)

	second, err := sync.Run(context.Background(), endpoints)
	require.NoError(t, err)
	require.Equal(t, SyncExists, second[0].Status)
}

func TestSynchronizerReactivatesSoftDeleted(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menu := node("menu:system:user", KindMenu, dir.ID)
	stale := node("api:system:user:query", KindAPI, uuid.Nil)
	deletedAt := time.Now().UTC().Add(-time.Hour)
	stale.DeletedAt = &deletedAt
	repo := newMockRepo(dir, menu, stale)
	sync := NewSynchronizer(repo, uuid.Nil, slog.Default())

	report, err := sync.Run(context.Background(), []Endpoint{
		{Controller: "users", Handler: "list", HTTPMethod: http.MethodGet, Route: "/users", Codes: []string{"system:user:view"}},
	})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, SyncReactivated, report[0].Status)

	revived, err := repo.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.False(t, revived.Deleted())
	assert.Equal(t, menu.ID, revived.ParentID)
}

func TestSynchronizerSkipsMissingMenu(t *testing.T) {
	repo := newMockRepo()
	sync := NewSynchronizer(repo, uuid.Nil, slog.Default())

	report, err := sync.Run(context.Background(), []Endpoint{
		{Controller: "users", Handler: "list", HTTPMethod: http.MethodGet, Route: "/users", Codes: []string{"system:user:view"}},
	})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, SyncSkipped, report[0].Status)

	_, err = repo.FindByCode(context.Background(), "api:system:user:query")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSynchronizerIgnoresUndeclaredEndpoints(t *testing.T) {
	repo := newMockRepo()
	sync := NewSynchronizer(repo, uuid.Nil, slog.Default())

	report, err := sync.Run(context.Background(), []Endpoint{
		{Controller: "health", Handler: "healthz", HTTPMethod: http.MethodGet, Route: "/healthz"},
		{Controller: "broken", Handler: "x", HTTPMethod: http.MethodGet, Route: "/x", Codes: []string{"short"}},
	})
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestSynchronizerHonorsExplicitAction(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menu := node("menu:system:role", KindMenu, dir.ID)
	repo := newMockRepo(dir, menu)
	sync := NewSynchronizer(repo, uuid.Nil, slog.Default())

	report, err := sync.Run(context.Background(), []Endpoint{
		{Controller: "roles", Handler: "setDepartments", HTTPMethod: http.MethodPut, Route: "/roles/{id}/departments", Codes: []string{"system:role:update"}, Action: "assignScope"},
	})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "api:system:role:assignScope", report[0].Code)
	assert.Equal(t, "assignScope", report[0].Action)
}

func TestSynchronizerReportSorted(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menuUser := node("menu:system:user", KindMenu, dir.ID)
	menuRole := node("menu:system:role", KindMenu, dir.ID)
	repo := newMockRepo(dir, menuUser, menuRole)
	sync := NewSynchronizer(repo, uuid.Nil, slog.Default())

	report, err := sync.Run(context.Background(), []Endpoint{
		{Controller: "users", Handler: "list", HTTPMethod: http.MethodGet, Route: "/users", Codes: []string{"system:user:view"}},
		{Controller: "roles", Handler: "list", HTTPMethod: http.MethodGet, Route: "/roles", Codes: []string{"system:role:view"}},
	})
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, "api:system:role:query", report[0].Code)
	assert.Equal(t, "api:system:user:query", report[1].Code)
}
