package domain

import "time"

// Category enumerates facility issue categories a ticket can carry.
type Category string

const (
	CategoryCleaning    Category = "Cleaning"
	CategoryPlumbing    Category = "Plumbing"
	CategoryElectrical  Category = "Electrical"
	CategoryStructural  Category = "Structural"
	CategoryHVAC        Category = "HVAC"
	CategoryTechnology  Category = "Technology"
	CategoryEquipment   Category = "Equipment"
	CategoryDisturbance Category = "Disturbance"
	CategorySecurity    Category = "Security"
	CategoryParking     Category = "Parking"
)

// Categories lists every valid ticket category.
func Categories() []Category {
	return []Category{
		CategoryCleaning,
		CategoryPlumbing,
		CategoryElectrical,
		CategoryStructural,
		CategoryHVAC,
		CategoryTechnology,
		CategoryEquipment,
		CategoryDisturbance,
		CategorySecurity,
		CategoryParking,
	}
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// PermissionBundle is the set of capability flags attached to a role.
// It is computed once when the role catalog is loaded and never re-derived
// from role name comparisons at call sites.
type PermissionBundle struct {
	CanReport         bool
	CanFix            bool
	CanAssign         bool
	CanManageUsers    bool
	IsAdminLevel      bool
	AllowedCategories []Category
}

// Allows reports whether the bundle permits fixing tickets of the category.
func (p PermissionBundle) Allows(category Category) bool {
	for _, c := range p.AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// RequiresProof reports whether resolutions by this role need a proof image.
// Every fixer role must attach proof of work.
func (p PermissionBundle) RequiresProof() bool {
	return p.CanFix
}

// CanCloseTickets reports whether the role may close tickets.
func (p PermissionBundle) CanCloseTickets() bool {
	return p.IsAdminLevel
}

// Role couples a role name with its permission bundle. Role names are unique
// and the catalog is seeded at system initialization.
type Role struct {
	ID          string
	Name        string
	Description string
	IsSensitive bool
	Permissions PermissionBundle
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fixed role catalog names.
const (
	RoleStudent            = "Student"
	RoleFaculty            = "Faculty"
	RoleAdminStaff         = "Admin Staff"
	RoleVisitor            = "Visitor"
	RoleJanitorialStaff    = "Janitorial Staff"
	RoleUtilityWorker      = "Utility Worker"
	RoleITSupport          = "IT Support"
	RoleSecurityGuard      = "Security Guard"
	RoleMaintenanceOfficer = "Maintenance Officer"
	RoleRegistrar          = "Registrar"
	RoleHR                 = "HR"
	RoleUniversityAdmin    = "University Admin"
)

// DomainRoleMapping maps an email domain (case-insensitive, unique) to the
// default role picked at account creation time. It never affects existing
// accounts.
type DomainRoleMapping struct {
	ID        string
	Domain    string
	RoleName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
