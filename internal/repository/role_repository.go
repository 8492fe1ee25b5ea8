package repository

import (
	"context"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// RoleRepository loads the persisted role catalog and domain mappings. The
// catalog is read once at boot into the immutable registry; it is not part
// of the hot path.
type RoleRepository interface {
	LoadCatalog(ctx context.Context) ([]domain.Role, error)
	LoadDomainMappings(ctx context.Context) ([]domain.DomainRoleMapping, error)
}

type roleRepository struct {
	q Querier
}

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(q Querier) RoleRepository {
	return &roleRepository{q: q}
}

func (r *roleRepository) LoadCatalog(ctx context.Context) ([]domain.Role, error) {
	const query = `
        SELECT r.id, r.name, r.description, r.is_sensitive,
               p.can_report, p.can_fix, p.can_assign, p.can_manage_users, p.is_admin_level,
               p.allowed_categories,
               r.created_at, r.updated_at
        FROM roles r
        JOIN role_permissions p ON p.role_id = r.id
        ORDER BY r.name`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalog []domain.Role
	for rows.Next() {
		var role domain.Role
		var categories []string
		if err := rows.Scan(
			&role.ID,
			&role.Name,
			&role.Description,
			&role.IsSensitive,
			&role.Permissions.CanReport,
			&role.Permissions.CanFix,
			&role.Permissions.CanAssign,
			&role.Permissions.CanManageUsers,
			&role.Permissions.IsAdminLevel,
			&categories,
			&role.CreatedAt,
			&role.UpdatedAt,
		); err != nil {
			return nil, err
		}
		for _, c := range categories {
			role.Permissions.AllowedCategories = append(role.Permissions.AllowedCategories, domain.Category(c))
		}
		catalog = append(catalog, role)
	}
	return catalog, rows.Err()
}

func (r *roleRepository) LoadDomainMappings(ctx context.Context) ([]domain.DomainRoleMapping, error) {
	const query = `
        SELECT m.id, m.domain, r.name, m.created_at, m.updated_at
        FROM domain_role_mappings m
        JOIN roles r ON r.id = m.role_id
        ORDER BY m.domain`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []domain.DomainRoleMapping
	for rows.Next() {
		var m domain.DomainRoleMapping
		if err := rows.Scan(&m.ID, &m.Domain, &m.RoleName, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
