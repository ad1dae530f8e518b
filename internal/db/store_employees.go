package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oakline/staffdir/internal/models"
	"github.com/oakline/staffdir/internal/search"
)

const employeeSelect = `SELECT e.id, e.name, e.email, e.phone, e.status, e.organization_id,
       e.department_id, e.position_id, e.location_id, e.created_at, e.updated_at,
       d.name AS department_name, p.name AS position_name, l.name AS location_name`

const employeeJoins = `
FROM employees e
LEFT JOIN departments d ON e.department_id = d.id
LEFT JOIN positions p ON e.position_id = p.id
LEFT JOIN locations l ON e.location_id = l.id`

// predicateBuilder contributes zero or one condition for one optional
// filter. Keeping them independent keeps each one testable on its own.
type predicateBuilder func(search.Criteria, *queryArgs)

var employeePredicates = []predicateBuilder{
	filterStatus,
	filterDepartments,
	filterPositions,
	filterLocations,
	filterNameContains,
	filterEmailDomain,
	filterPhonePrefix,
	filterHasEmail,
	filterHasPhone,
	filterCreatedRange,
	filterUpdatedRange,
	filterTerm,
}

// buildEmployeeWhere assembles the AND-combined predicate set. Organization
// scoping is mandatory and always the first condition.
func buildEmployeeWhere(c search.Criteria) *queryArgs {
	q := &queryArgs{}
	q.add("e.organization_id = $%d", c.OrgID)
	for _, build := range employeePredicates {
		build(c, q)
	}
	return q
}

func filterStatus(c search.Criteria, q *queryArgs) {
	if len(c.Status) > 0 {
		q.add("e.status = ANY($%d)", c.Status)
	}
}

func filterDepartments(c search.Criteria, q *queryArgs) {
	if len(c.DepartmentIDs) > 0 {
		q.add("e.department_id = ANY($%d)", c.DepartmentIDs)
	}
}

func filterPositions(c search.Criteria, q *queryArgs) {
	if len(c.PositionIDs) > 0 {
		q.add("e.position_id = ANY($%d)", c.PositionIDs)
	}
}

func filterLocations(c search.Criteria, q *queryArgs) {
	if len(c.LocationIDs) > 0 {
		q.add("e.location_id = ANY($%d)", c.LocationIDs)
	}
}

func filterNameContains(c search.Criteria, q *queryArgs) {
	if c.NameContains != "" {
		q.add("e.name ILIKE $%d", "%"+c.NameContains+"%")
	}
}

func filterEmailDomain(c search.Criteria, q *queryArgs) {
	if c.EmailDomain != "" {
		q.add("e.email LIKE $%d", "%@"+c.EmailDomain)
	}
}

func filterPhonePrefix(c search.Criteria, q *queryArgs) {
	if c.PhonePrefix != "" {
		q.add("e.phone LIKE $%d", c.PhonePrefix+"%")
	}
}

func filterHasEmail(c search.Criteria, q *queryArgs) {
	switch {
	case c.HasEmail == nil:
	case *c.HasEmail:
		q.add("(e.email IS NOT NULL AND e.email <> '')")
	default:
		q.add("(e.email IS NULL OR e.email = '')")
	}
}

func filterHasPhone(c search.Criteria, q *queryArgs) {
	switch {
	case c.HasPhone == nil:
	case *c.HasPhone:
		q.add("(e.phone IS NOT NULL AND e.phone <> '')")
	default:
		q.add("(e.phone IS NULL OR e.phone = '')")
	}
}

func filterCreatedRange(c search.Criteria, q *queryArgs) {
	if c.CreatedAfter != nil {
		q.add("e.created_at >= $%d", *c.CreatedAfter)
	}
	if c.CreatedBefore != nil {
		q.add("e.created_at <= $%d", *c.CreatedBefore)
	}
}

func filterUpdatedRange(c search.Criteria, q *queryArgs) {
	if c.UpdatedAfter != nil {
		q.add("e.updated_at >= $%d", *c.UpdatedAfter)
	}
	if c.UpdatedBefore != nil {
		q.add("e.updated_at <= $%d", *c.UpdatedBefore)
	}
}

// filterTerm builds the OR-group of per-field match conditions for the
// search term, ANDed with the structured predicates.
func filterTerm(c search.Criteria, q *queryArgs) {
	if c.Term == "" {
		return
	}
	idx := q.next(c.Term)

	var ors []string
	for _, field := range c.TermFields {
		col, ok := termColumn(field, c.CaseSensitive)
		if !ok {
			continue
		}
		if c.ExactMatch {
			ors = append(ors, fmt.Sprintf("%s = $%d", col, idx))
		} else {
			ors = append(ors, fmt.Sprintf("%s LIKE '%%' || $%d || '%%'", col, idx))
		}
	}
	if len(ors) == 0 {
		return
	}
	q.conds = append(q.conds, "("+strings.Join(ors, " OR ")+")")
}

// termColumn maps a searchable field to its SQL column, case-folded when the
// comparison is insensitive. The term itself arrives already folded.
func termColumn(field string, caseSensitive bool) (string, bool) {
	cols := map[string]string{
		search.FieldName:       "e.name",
		search.FieldEmail:      "e.email",
		search.FieldDepartment: "d.name",
		search.FieldPosition:   "p.name",
		search.FieldLocation:   "l.name",
	}
	col, ok := cols[field]
	if !ok {
		return "", false
	}
	if !caseSensitive {
		col = "lower(" + col + ")"
	}
	return col, true
}

// relevanceExpr renders the scorer's weight table as a SQL expression so the
// database can order the full matching set by relevance. The Go-side scorer
// produces the per-row score attached to results; both read the same table.
func relevanceExpr(c search.Criteria, q *queryArgs) string {
	if c.Term == "" {
		return ""
	}
	idx := q.next(c.Term)

	var cases []string
	for _, field := range c.TermFields {
		w, ok := search.Weights(field)
		if !ok {
			continue
		}
		col, ok := termColumn(field, c.CaseSensitive)
		if !ok {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "CASE WHEN %s = $%d THEN %.2f", col, idx, w.Exact)
		if w.Prefix > 0 {
			fmt.Fprintf(&b, " WHEN %s LIKE $%d || '%%' THEN %.2f", col, idx, w.Prefix)
		}
		fmt.Fprintf(&b, " WHEN %s LIKE '%%' || $%d || '%%' THEN %.2f ELSE 0 END", col, idx, w.Substring)
		cases = append(cases, b.String())
	}
	if len(cases) == 0 {
		return ""
	}
	return "LEAST(" + strings.Join(cases, " + ") + ", 1.0)"
}

// orderClause resolves the sort spec to an ORDER BY with a stable id
// tiebreak so pagination never repeats or drops rows.
func orderClause(c search.Criteria, sort search.SortSpec, q *queryArgs) string {
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}

	var col string
	switch sort.Field {
	case "", "name":
		col = "e.name"
	case "email":
		col = "e.email"
	case "created_at":
		col = "e.created_at"
	case "updated_at":
		col = "e.updated_at"
	case "department":
		col = "d.name"
	case "position":
		col = "p.name"
	case "location":
		col = "l.name"
	case search.SortRelevance:
		col = relevanceExpr(c, q)
		if col == "" {
			col, dir = "e.name", "ASC"
		}
	default:
		col = "e.name"
	}

	return fmt.Sprintf(" ORDER BY %s %s, e.id", col, dir)
}

// CountMatching counts employees satisfying the full predicate set.
func (s *Store) CountMatching(ctx context.Context, c search.Criteria) (int64, error) {
	q := buildEmployeeWhere(c)
	sql := "SELECT COUNT(*)" + employeeJoins + q.where()

	var count int64
	if err := s.q.QueryRow(ctx, sql, q.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return count, nil
}

// FetchPage returns one page of employees matching the predicate set, in the
// requested order, with reference names joined in.
func (s *Store) FetchPage(ctx context.Context, c search.Criteria, sort search.SortSpec, offset, limit int) ([]*models.Employee, error) {
	q := buildEmployeeWhere(c)
	order := orderClause(c, sort, q)
	offIdx := q.next(offset)
	limIdx := q.next(limit)

	sql := employeeSelect + employeeJoins + q.where() + order +
		fmt.Sprintf(" OFFSET $%d LIMIT $%d", offIdx, limIdx)

	rows, err := s.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(scan func(dest ...any) error) (*models.Employee, error) {
	var e models.Employee
	err := scan(
		&e.ID, &e.Name, &e.Email, &e.Phone, &e.Status, &e.OrganizationID,
		&e.DepartmentID, &e.PositionID, &e.LocationID, &e.CreatedAt, &e.UpdatedAt,
		&e.DepartmentName, &e.PositionName, &e.LocationName,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SuggestValues returns distinct values of one suggestion kind matching the
// term, with the number of employees carrying each value, most popular
// first.
func (s *Store) SuggestValues(ctx context.Context, orgID, kind, term string, limit int) ([]search.Suggestion, error) {
	pattern := "%" + strings.ToLower(term) + "%"

	var sql string
	switch kind {
	case search.FieldName:
		sql = `SELECT e.name, COUNT(*) FROM employees e
			WHERE e.organization_id = $1 AND lower(e.name) LIKE $2
			GROUP BY e.name ORDER BY COUNT(*) DESC LIMIT $3`
	case search.FieldDepartment:
		sql = `SELECT d.name, COUNT(e.id) FROM departments d
			JOIN employees e ON e.department_id = d.id
			WHERE e.organization_id = $1 AND lower(d.name) LIKE $2
			GROUP BY d.name ORDER BY COUNT(e.id) DESC LIMIT $3`
	case search.FieldPosition:
		sql = `SELECT p.name, COUNT(e.id) FROM positions p
			JOIN employees e ON e.position_id = p.id
			WHERE e.organization_id = $1 AND lower(p.name) LIKE $2
			GROUP BY p.name ORDER BY COUNT(e.id) DESC LIMIT $3`
	case search.FieldLocation:
		sql = `SELECT l.name, COUNT(e.id) FROM locations l
			JOIN employees e ON e.location_id = l.id
			WHERE e.organization_id = $1 AND lower(l.name) LIKE $2
			GROUP BY l.name ORDER BY COUNT(e.id) DESC LIMIT $3`
	default:
		return nil, fmt.Errorf("unknown suggestion kind %q", kind)
	}

	rows, err := s.q.Query(ctx, sql, orgID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s suggestions: %w", kind, err)
	}
	defer rows.Close()

	var suggestions []search.Suggestion
	for rows.Next() {
		sg := search.Suggestion{Type: kind}
		if err := rows.Scan(&sg.Suggestion, &sg.Count); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}

// CreateEmployee inserts a new employee.
func (s *Store) CreateEmployee(ctx context.Context, e *models.Employee) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO employees (id, name, email, phone, status, organization_id,
			department_id, position_id, location_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.Name, e.Email, e.Phone, e.Status, e.OrganizationID,
		e.DepartmentID, e.PositionID, e.LocationID, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// GetEmployee returns one employee by ID within an organization.
func (s *Store) GetEmployee(ctx context.Context, orgID string, id uuid.UUID) (*models.Employee, error) {
	row := s.q.QueryRow(ctx, employeeSelect+employeeJoins+`
		WHERE e.id = $1 AND e.organization_id = $2`, id, orgID)

	e, err := scanEmployee(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// UpdateEmployee rewrites an employee's mutable fields within its
// organization.
func (s *Store) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE employees
		SET name = $1, email = $2, phone = $3, status = $4,
			department_id = $5, position_id = $6, location_id = $7, updated_at = NOW()
		WHERE id = $8 AND organization_id = $9
	`, e.Name, e.Email, e.Phone, e.Status,
		e.DepartmentID, e.PositionID, e.LocationID, e.ID, e.OrganizationID)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEmployee removes an employee within an organization.
func (s *Store) DeleteEmployee(ctx context.Context, orgID string, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM employees WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
