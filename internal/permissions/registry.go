package permissions

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Permission describes a permission string that an identity provider may grant.
type Permission struct {
	ID          string
	Module      string
	DependsOn   []string
	Description string
}

type permissionRegistry struct {
	mu          sync.RWMutex
	permissions map[string]*Permission
}

var globalRegistry = &permissionRegistry{
	permissions: make(map[string]*Permission),
}

var (
	errNilPermission  = errors.New("permission: nil definition")
	errEmptyID        = errors.New("permission: id is required")
	errDuplicateID    = errors.New("permission: already registered")
	errSelfDependency = errors.New("permission: cannot depend on itself")
	errUnknown        = errors.New("permission: not registered")
)

// Register adds a permission definition to the global registry.
func Register(perm *Permission) error {
	if perm == nil {
		return errNilPermission
	}

	id := strings.TrimSpace(perm.ID)
	if id == "" {
		return errEmptyID
	}

	def := clonePermission(perm)
	def.ID = id
	def.Module = strings.TrimSpace(def.Module)

	depends, err := normaliseIDs(def.DependsOn, id)
	if err != nil {
		return err
	}
	def.DependsOn = depends

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.permissions[id]; exists {
		return fmt.Errorf("%w: %s", errDuplicateID, id)
	}

	globalRegistry.permissions[id] = def
	return nil
}

// Require returns an error unless every id is registered.
func Require(ids ...string) error {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, id := range ids {
		if _, ok := globalRegistry.permissions[id]; !ok {
			return fmt.Errorf("%w: %s", errUnknown, id)
		}
	}
	return nil
}

// ValidateDependencies ensures that all dependencies reference known permissions.
// A permission's dependencies are metadata for the identity provider's role setup;
// the guard checks only the permission a route names.
func ValidateDependencies() error {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, perm := range globalRegistry.permissions {
		for _, dep := range perm.DependsOn {
			if _, ok := globalRegistry.permissions[dep]; !ok {
				return fmt.Errorf("permission: %s depends on unknown permission %s", perm.ID, dep)
			}
		}
	}
	return nil
}

func clonePermission(perm *Permission) *Permission {
	if perm == nil {
		return nil
	}

	cp := *perm
	if len(perm.DependsOn) > 0 {
		cp.DependsOn = append([]string(nil), perm.DependsOn...)
	}
	return &cp
}

func normaliseIDs(values []string, self string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string

	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if value == self {
			return nil, errSelfDependency
		}
		if _, exists := seen[value]; exists {
			continue
		}

		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result, nil
}
