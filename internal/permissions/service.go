package permissions

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// ModuleGroup is the UI-facing grouping of permissions under a module.
type ModuleGroup struct {
	Module      string             `json:"module"`
	Label       string             `json:"label"`
	Permissions []authz.Permission `json:"permissions"`
}

// Service handles the permission registry.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

var titler = cases.Title(language.English)

// ListGrouped returns all permissions grouped by module, unscoped ones
// under the System bucket, with a display label per group.
func (s *Service) ListGrouped(ctx context.Context) ([]ModuleGroup, error) {
	perms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	var groups []ModuleGroup
	for _, perm := range perms {
		module := perm.Module
		if module == "" {
			module = authz.SystemModule
		}
		i, ok := index[module]
		if !ok {
			i = len(groups)
			index[module] = i
			groups = append(groups, ModuleGroup{
				Module: module,
				Label:  titler.String(strings.ReplaceAll(module, "_", " ")),
			})
		}
		groups[i].Permissions = append(groups[i].Permissions, perm)
	}
	return groups, nil
}

// Ensure registers a permission, deriving the module from a dotted name
// when none is given.
func (s *Service) Ensure(ctx context.Context, name, module string, isCore bool) (authz.Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return authz.Permission{}, fmt.Errorf("%w: permission name is required", shared.ErrValidation)
	}
	if module == "" {
		if dot := strings.Index(name, "."); dot > 0 {
			module = name[:dot]
		}
	}
	return s.repo.Ensure(ctx, name, module, isCore)
}

// Delete removes a non-core permission.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
