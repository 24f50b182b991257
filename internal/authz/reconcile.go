package authz

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

// PermissionInput is one desired permission record submitted by the role
// form. The form submits a structured list of these records; (Route,
// Method) is the stable key the diff works on, since numeric permission
// ids are server-generated.
type PermissionInput struct {
	Route       string                `json:"route"`
	Method      string                `json:"method"`
	Description string                `json:"description"`
	Kind        models.PermissionKind `json:"kind"`
	ModuleIDs   []uint                `json:"moduleIds"`
}

// Validate checks a submitted permission record.
func (in *PermissionInput) Validate() error {
	if !ValidPattern(in.Route) {
		return fmt.Errorf("%w: %q", ErrInvalidRoute, in.Route)
	}

	switch strings.ToUpper(in.Method) {
	case "GET", "POST", "PUT", "PATCH", "DELETE":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}

	switch in.Kind {
	case models.PermissionKindRead, models.PermissionKindWrite, models.PermissionKindDelete:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}

	return nil
}

// PermissionUpdate pairs an existing permission with the submitted record
// that replaces its description, kind and module scope in place.
type PermissionUpdate struct {
	Existing models.Permission
	Desired  PermissionInput
}

// Diff is the three-way partition of a role permission reconciliation.
type Diff struct {
	// Create holds records present only in the desired set.
	Create []PermissionInput
	// Update holds pairs present in both sets (same route+method).
	Update []PermissionUpdate
	// Delete holds permissions present only in the current set; they go
	// away together with their RolePermission link.
	Delete []models.Permission
}

func permissionKey(route, method string) string {
	return strings.ToUpper(method) + " " + route
}

// DiffPermissions computes the three-way diff between a role's current
// permissions and the submitted desired set, keyed on (route, method).
// Duplicate keys in the desired set collapse to the last record.
func DiffPermissions(current []models.Permission, desired []PermissionInput) Diff {
	var diff Diff

	desiredByKey := make(map[string]PermissionInput, len(desired))

	keyOrder := make([]string, 0, len(desired))
	for _, in := range desired {
		key := permissionKey(in.Route, in.Method)
		if _, seen := desiredByKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}

		desiredByKey[key] = in
	}

	currentByKey := make(map[string]models.Permission, len(current))
	for _, p := range current {
		currentByKey[permissionKey(p.Route, p.Method)] = p
	}

	for _, p := range current {
		key := permissionKey(p.Route, p.Method)
		if in, ok := desiredByKey[key]; ok {
			diff.Update = append(diff.Update, PermissionUpdate{Existing: p, Desired: in})
		} else {
			diff.Delete = append(diff.Delete, p)
		}
	}

	for _, key := range keyOrder {
		if _, ok := currentByKey[key]; !ok {
			diff.Create = append(diff.Create, desiredByKey[key])
		}
	}

	return diff
}

// ApplyRolePermissions reconciles a role's permission set against the
// submitted desired set inside one transaction: creations are inserted and
// linked, updates change description/kind/modules in place, deletions
// remove the RolePermission link before the permission row.
func (s *Service) ApplyRolePermissions(roleID uint, desired []PermissionInput) error {
	for i := range desired {
		if err := desired[i].Validate(); err != nil {
			return err
		}
	}

	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}

		return fmt.Errorf("failed to load role: %w", err)
	}

	current, err := s.PermissionsForRole(roleID)
	if err != nil {
		return err
	}

	diff := DiffPermissions(current, desired)

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range diff.Delete {
			if err := tx.Where("role_id = ? AND permission_id = ?", roleID, p.ID).
				Delete(&models.RolePermission{}).Error; err != nil {
				return fmt.Errorf("failed to unlink permission: %w", err)
			}

			if err := tx.Select("Modules").Delete(&models.Permission{ID: p.ID}).Error; err != nil {
				return fmt.Errorf("failed to delete permission: %w", err)
			}
		}

		for _, u := range diff.Update {
			p := u.Existing
			p.Description = u.Desired.Description
			p.Kind = u.Desired.Kind

			if err := tx.Model(&p).Select("description", "kind").Updates(&p).Error; err != nil {
				return fmt.Errorf("failed to update permission: %w", err)
			}

			modules, err := loadModules(tx, u.Desired.ModuleIDs)
			if err != nil {
				return err
			}

			if err := tx.Model(&p).Association("Modules").Replace(modules); err != nil {
				return fmt.Errorf("failed to replace permission modules: %w", err)
			}
		}

		for _, in := range diff.Create {
			modules, err := loadModules(tx, in.ModuleIDs)
			if err != nil {
				return err
			}

			p := models.Permission{
				Route:       in.Route,
				Method:      strings.ToUpper(in.Method),
				Description: in.Description,
				Kind:        in.Kind,
				Modules:     modules,
			}

			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to create permission: %w", err)
			}

			link := models.RolePermission{RoleID: roleID, PermissionID: p.ID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link permission: %w", err)
			}
		}

		return nil
	})
}

func loadModules(tx *gorm.DB, ids []uint) ([]models.Module, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var modules []models.Module
	if err := tx.Where("id IN ?", ids).Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}

	return modules, nil
}

// DeleteRole removes a role and, first, all its RolePermission links.
// The permissions themselves stay: other roles may still reference them.
func (s *Service) DeleteRole(roleID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete role permission links: %w", err)
		}

		result := tx.Select("Modules").Delete(&models.Role{ID: roleID})
		if result.Error != nil {
			return fmt.Errorf("failed to delete role: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return ErrRoleNotFound
		}

		return nil
	})
}
