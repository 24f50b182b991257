package authz

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

// Service provides authorization checks and module visibility resolution
// over the permission tables.
type Service struct {
	db *gorm.DB
}

// NewService creates a new authz service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RolePermissions loads all RolePermission rows of a role with the joined
// permission and its linked modules, the shape visibility resolution works on.
func (s *Service) RolePermissions(roleID uint) ([]models.RolePermission, error) {
	var rolePerms []models.RolePermission

	err := s.db.
		Preload("Permission.Modules").
		Where("role_id = ?", roleID).
		Find(&rolePerms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}

	return rolePerms, nil
}

// PermissionsForRole loads the permissions linked to a role, modules included.
func (s *Service) PermissionsForRole(roleID uint) ([]models.Permission, error) {
	var perms []models.Permission

	err := s.db.
		Preload("Modules").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions for role: %w", err)
	}

	return perms, nil
}

// IsAuthorized checks whether a role may act on the given method and
// request path: true iff some RolePermission links the role to a
// permission whose method equals and whose pattern matches the path.
func (s *Service) IsAuthorized(roleID uint, method, path string) (bool, error) {
	perms, err := s.PermissionsForRole(roleID)
	if err != nil {
		return false, err
	}

	_, ok := BestMatch(perms, method, path)

	return ok, nil
}

// VisibilityForRole recomputes module visibility for a role from its
// current permission set. Never cached; see ResolveActiveModules.
func (s *Service) VisibilityForRole(roleID uint) (Visibility, error) {
	rolePerms, err := s.RolePermissions(roleID)
	if err != nil {
		return nil, err
	}

	return ResolveActiveModules(rolePerms), nil
}
