package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oakline/staffdir/internal/models"
)

// ListDepartments returns all departments of an organization, by name.
func (s *Store) ListDepartments(ctx context.Context, orgID string) ([]*models.Department, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, name, description, organization_id, created_at, updated_at
		FROM departments WHERE organization_id = $1 ORDER BY name
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	defer rows.Close()

	var departments []*models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.OrganizationID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, &d)
	}
	return departments, rows.Err()
}

// GetDepartment returns one department by ID within an organization.
func (s *Store) GetDepartment(ctx context.Context, orgID string, id uuid.UUID) (*models.Department, error) {
	var d models.Department
	err := s.q.QueryRow(ctx, `
		SELECT id, name, description, organization_id, created_at, updated_at
		FROM departments WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(&d.ID, &d.Name, &d.Description, &d.OrganizationID, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &d, nil
}

// CreateDepartment inserts a new department.
func (s *Store) CreateDepartment(ctx context.Context, d *models.Department) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO departments (id, name, description, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.Name, d.Description, d.OrganizationID, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

// UpdateDepartment rewrites a department's name and description.
func (s *Store) UpdateDepartment(ctx context.Context, d *models.Department) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE departments SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND organization_id = $4
	`, d.Name, d.Description, d.ID, d.OrganizationID)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDepartment removes a department. Employees referencing it keep
// their row; the foreign key nulls the reference.
func (s *Store) DeleteDepartment(ctx context.Context, orgID string, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM departments WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPositions returns all positions of an organization, by name.
func (s *Store) ListPositions(ctx context.Context, orgID string) ([]*models.Position, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, name, description, organization_id, created_at, updated_at
		FROM positions WHERE organization_id = $1 ORDER BY name
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

// GetPosition returns one position by ID within an organization.
func (s *Store) GetPosition(ctx context.Context, orgID string, id uuid.UUID) (*models.Position, error) {
	var p models.Position
	err := s.q.QueryRow(ctx, `
		SELECT id, name, description, organization_id, created_at, updated_at
		FROM positions WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(&p.ID, &p.Name, &p.Description, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &p, nil
}

// CreatePosition inserts a new position.
func (s *Store) CreatePosition(ctx context.Context, p *models.Position) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO positions (id, name, description, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, p.Description, p.OrganizationID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// UpdatePosition rewrites a position's name and description.
func (s *Store) UpdatePosition(ctx context.Context, p *models.Position) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE positions SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND organization_id = $4
	`, p.Name, p.Description, p.ID, p.OrganizationID)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePosition removes a position.
func (s *Store) DeletePosition(ctx context.Context, orgID string, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM positions WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLocations returns all locations of an organization, by name.
func (s *Store) ListLocations(ctx context.Context, orgID string) ([]*models.Location, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, name, address, city, country, organization_id, created_at, updated_at
		FROM locations WHERE organization_id = $1 ORDER BY name
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.Country, &l.OrganizationID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, &l)
	}
	return locations, rows.Err()
}

// GetLocation returns one location by ID within an organization.
func (s *Store) GetLocation(ctx context.Context, orgID string, id uuid.UUID) (*models.Location, error) {
	var l models.Location
	err := s.q.QueryRow(ctx, `
		SELECT id, name, address, city, country, organization_id, created_at, updated_at
		FROM locations WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.Country, &l.OrganizationID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// CreateLocation inserts a new location.
func (s *Store) CreateLocation(ctx context.Context, l *models.Location) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO locations (id, name, address, city, country, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, l.ID, l.Name, l.Address, l.City, l.Country, l.OrganizationID, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// UpdateLocation rewrites a location's fields.
func (s *Store) UpdateLocation(ctx context.Context, l *models.Location) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE locations SET name = $1, address = $2, city = $3, country = $4, updated_at = NOW()
		WHERE id = $5 AND organization_id = $6
	`, l.Name, l.Address, l.City, l.Country, l.ID, l.OrganizationID)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLocation removes a location.
func (s *Store) DeleteLocation(ctx context.Context, orgID string, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM locations WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
