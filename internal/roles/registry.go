package roles

import (
	"strings"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// Registry is an immutable snapshot of the role catalog and domain mappings,
// loaded once at process start and injected into services. Lookups for
// unknown roles fail closed: callers get a zero bundle, never elevated
// permissions.
type Registry struct {
	byName    map[string]domain.Role
	byDomain  map[string]string
	fallback  string
	catalogue []domain.Role
}

// NewRegistry builds a registry from the loaded catalog and mappings.
// fallbackRole is used when an email domain has no mapping.
func NewRegistry(catalog []domain.Role, mappings []domain.DomainRoleMapping, fallbackRole string) *Registry {
	r := &Registry{
		byName:    make(map[string]domain.Role, len(catalog)),
		byDomain:  make(map[string]string, len(mappings)),
		fallback:  fallbackRole,
		catalogue: append([]domain.Role(nil), catalog...),
	}
	for _, role := range catalog {
		r.byName[role.Name] = role
	}
	for _, m := range mappings {
		r.byDomain[strings.ToLower(m.Domain)] = m.RoleName
	}
	return r
}

// Get returns the role by name.
func (r *Registry) Get(name string) (domain.Role, bool) {
	role, ok := r.byName[name]
	return role, ok
}

// PermissionsFor returns the permission bundle for a role name. Unknown
// names yield an all-false bundle.
func (r *Registry) PermissionsFor(name string) domain.PermissionBundle {
	role, ok := r.byName[name]
	if !ok {
		return domain.PermissionBundle{}
	}
	return role.Permissions
}

// PermissionsForProfile resolves the bundle bound to a profile's role.
func (r *Registry) PermissionsForProfile(p *domain.UserProfile) domain.PermissionBundle {
	if p == nil || p.RoleName == nil {
		return domain.PermissionBundle{}
	}
	return r.PermissionsFor(*p.RoleName)
}

// ResolveDomain maps an email address to a default role name, falling back
// to the registry's fallback role for unmapped domains. Used only at account
// creation; it never overrides an explicitly assigned role.
func (r *Registry) ResolveDomain(email string) string {
	if name, ok := r.byDomain[domain.EmailDomain(email)]; ok {
		return name
	}
	return r.fallback
}

// IsSensitive reports whether invites for the role require admin approval.
func (r *Registry) IsSensitive(name string) bool {
	role, ok := r.byName[name]
	return ok && role.IsSensitive
}

// FixerRolesFor returns role names whose bundle can fix the given category.
func (r *Registry) FixerRolesFor(category domain.Category) []string {
	var names []string
	for _, role := range r.catalogue {
		if role.Permissions.CanFix && role.Permissions.Allows(category) {
			names = append(names, role.Name)
		}
	}
	return names
}

// Catalog returns the loaded roles.
func (r *Registry) Catalog() []domain.Role {
	return append([]domain.Role(nil), r.catalogue...)
}

// SeedCatalog returns the fixed role catalog used to initialize the system.
// The migration seeds the same data; this copy backs tests and first-boot
// verification.
func SeedCatalog() []domain.Role {
	reporter := domain.PermissionBundle{CanReport: true}
	return []domain.Role{
		{Name: domain.RoleStudent, Description: "A student enrolled in the university.", Permissions: reporter},
		{Name: domain.RoleFaculty, Description: "University teaching staff or professors.", Permissions: reporter},
		{Name: domain.RoleAdminStaff, Description: "Administrative staff handling non-academic tasks.", Permissions: reporter},
		{Name: domain.RoleVisitor, Description: "Temporary or guest users with limited access.", Permissions: reporter},
		{Name: domain.RoleJanitorialStaff, Description: "Staff responsible for cleaning duties.", Permissions: domain.PermissionBundle{
			CanReport: true, CanFix: true,
			AllowedCategories: []domain.Category{domain.CategoryCleaning},
		}},
		{Name: domain.RoleUtilityWorker, Description: "Staff handling plumbing, electrical, HVAC, or structural work.", Permissions: domain.PermissionBundle{
			CanReport: true, CanFix: true,
			AllowedCategories: []domain.Category{domain.CategoryPlumbing, domain.CategoryElectrical, domain.CategoryStructural, domain.CategoryHVAC},
		}},
		{Name: domain.RoleITSupport, Description: "Staff responsible for technology and equipment issues.", Permissions: domain.PermissionBundle{
			CanReport: true, CanFix: true,
			AllowedCategories: []domain.Category{domain.CategoryTechnology, domain.CategoryEquipment},
		}},
		{Name: domain.RoleSecurityGuard, Description: "Staff responsible for campus security and disturbances.", IsSensitive: true, Permissions: domain.PermissionBundle{
			CanReport: true, CanFix: true,
			AllowedCategories: []domain.Category{domain.CategoryDisturbance, domain.CategorySecurity, domain.CategoryParking},
		}},
		{Name: domain.RoleMaintenanceOfficer, Description: "Staff managing maintenance tasks and assignments.", IsSensitive: true, Permissions: domain.PermissionBundle{
			CanReport: true, CanAssign: true,
		}},
		{Name: domain.RoleRegistrar, Description: "University registrar with administrative and user management rights.", Permissions: domain.PermissionBundle{
			CanReport: true, CanManageUsers: true, IsAdminLevel: true,
		}},
		{Name: domain.RoleHR, Description: "Human Resources staff with user management permissions.", Permissions: domain.PermissionBundle{
			CanReport: true, CanManageUsers: true, IsAdminLevel: true,
		}},
		{Name: domain.RoleUniversityAdmin, Description: "High-level university admin with full access.", Permissions: domain.PermissionBundle{
			CanReport: true, CanAssign: true, CanManageUsers: true, IsAdminLevel: true,
		}},
	}
}

// SeedDomainMappings returns the default email-domain mappings.
func SeedDomainMappings() []domain.DomainRoleMapping {
	return []domain.DomainRoleMapping{
		{Domain: "student.pirmaed.com", RoleName: domain.RoleStudent},
		{Domain: "faculty.pirmaed.com", RoleName: domain.RoleFaculty},
		{Domain: "admin.pirmaed.com", RoleName: domain.RoleAdminStaff},
	}
}
