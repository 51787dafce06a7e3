package permission

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SyncStatus is the reconciliation outcome for one discovered endpoint.
type SyncStatus string

const (
	SyncCreated     SyncStatus = "created"
	SyncExists      SyncStatus = "exists"
	SyncReactivated SyncStatus = "reactivated"
	SyncSkipped     SyncStatus = "skipped"
)

// ReportEntry is one line of the synchronizer report.
type ReportEntry struct {
	Code       string     `json:"code"`
	Action     string     `json:"action"`
	Controller string     `json:"controller"`
	Method     string     `json:"method"`
	HTTPMethod string     `json:"httpMethod"`
	Route      string     `json:"route"`
	MenuCode   string     `json:"menuCode"`
	Status     SyncStatus `json:"status"`
}

// Synchronizer reconciles the registered endpoint table against the
// permission tree at boot: absent API nodes are created under their menu,
// soft-deleted ones are reactivated, active ones are left alone. Endpoints
// whose menu is missing from the tree are skipped, never fatal.
type Synchronizer struct {
	repo   Repository
	root   uuid.UUID
	logger *slog.Logger
	titler cases.Caser
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(repo Repository, root uuid.UUID, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{repo: repo, root: root, logger: logger, titler: cases.Title(language.English)}
}

// Run walks every endpoint and returns the report sorted by code, route,
// method. Storage failures on individual endpoints are returned; a missing
// menu is an ordinary skip.
func (s *Synchronizer) Run(ctx context.Context, endpoints []Endpoint) ([]ReportEntry, error) {
	nodes, err := s.repo.ListAll(ctx, true)
	if err != nil {
		return nil, err
	}
	active := make(map[string]*Node, len(nodes))
	deletedAPIs := make(map[string]*Node)
	for i := range nodes {
		n := &nodes[i]
		if n.Deleted() {
			if n.Kind == KindAPI {
				deletedAPIs[n.Code] = n
			}
			continue
		}
		active[n.Code] = n
	}

	var report []ReportEntry
	for _, ep := range endpoints {
		if len(ep.Codes) == 0 {
			continue
		}
		module, menu, ok := splitDeclared(ep.Codes[0])
		if !ok {
			continue
		}
		action := ep.Action
		if action == "" {
			action = InferAction(ep.HTTPMethod, ep.Route)
		}
		code := "api:" + module + ":" + menu + ":" + action
		menuCode := "menu:" + module + ":" + menu

		entry := ReportEntry{
			Code:       code,
			Action:     action,
			Controller: ep.Controller,
			Method:     ep.Handler,
			HTTPMethod: ep.HTTPMethod,
			Route:      ep.Route,
			MenuCode:   menuCode,
		}

		parent, ok := active[menuCode]
		if !ok || parent.Kind != KindMenu {
			entry.Status = SyncSkipped
			report = append(report, entry)
			continue
		}

		switch {
		case active[code] != nil:
			entry.Status = SyncExists
		case deletedAPIs[code] != nil:
			stale := deletedAPIs[code]
			if err := s.repo.Reactivate(ctx, stale.ID, parent.ID); err != nil {
				return nil, err
			}
			stale.DeletedAt = nil
			stale.ParentID = parent.ID
			active[code] = stale
			delete(deletedAPIs, code)
			entry.Status = SyncReactivated
		default:
			now := time.Now().UTC()
			node := &Node{
				ID:        uuid.New(),
				Code:      code,
				Name:      s.titler.String(menu + " " + action),
				Kind:      KindAPI,
				Origin:    OriginSystem,
				ParentID:  parent.ID,
				Action:    action,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.Insert(ctx, node); err != nil {
				return nil, err
			}
			active[code] = node
			entry.Status = SyncCreated
		}
		report = append(report, entry)
	}

	sort.Slice(report, func(i, j int) bool {
		if report[i].Code != report[j].Code {
			return report[i].Code < report[j].Code
		}
		if report[i].Route != report[j].Route {
			return report[i].Route < report[j].Route
		}
		return report[i].HTTPMethod < report[j].HTTPMethod
	})
	if s.logger != nil {
		s.logger.Info("permission sync complete", slog.Int("endpoints", len(endpoints)), slog.Int("reported", len(report)))
	}
	return report, nil
}

// splitDeclared extracts module and menu from a declared code of the form
// <module>:<menu>:<action>.
func splitDeclared(code string) (module, menu string, ok bool) {
	parts := strings.Split(code, ":")
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// InferAction derives the operation verb for a route that declares no
// explicit action. Path-segment rules are checked first, in a fixed
// precedence, then the HTTP verb decides.
func InferAction(httpMethod, route string) string {
	path := strings.ToLower(route)
	segments := strings.Split(strings.Trim(path, "/"), "/")
	has := func(want string) bool {
		for _, seg := range segments {
			if seg == want {
				return true
			}
		}
		return false
	}

	switch {
	case has("export"):
		return ActionExport
	case has("import"):
		return ActionImport
	case has("assign"):
		return "assign"
	case has("unbind") || has("unassign"):
		return "unbind"
	case has("enable"):
		return "enable"
	case has("disable"):
		return "disable"
	case has("download") && has("template"):
		return "downloadTemplate"
	case has("upload") && has("template"):
		return "uploadTemplate"
	case has("reset-password") || (has("reset") && has("password")):
		return "resetPassword"
	}

	hasParam := false
	for _, seg := range segments {
		if strings.HasPrefix(seg, "{") || strings.HasPrefix(seg, ":") {
			hasParam = true
			break
		}
	}

	switch strings.ToUpper(httpMethod) {
	case http.MethodGet:
		if hasParam {
			return ActionGet
		}
		return ActionQuery
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		if has("batch") || has("many") {
			return "batchDelete"
		}
		return ActionDelete
	default:
		return ActionAccess
	}
}
