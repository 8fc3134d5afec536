package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Lead is the database representation of a lead row.
type Lead struct {
	ID        int64
	TenantID  int64
	Domain    string
	Name      string
	Email     string
	Phone     string
	Website   string
	Niche     string
	Geo       string
	Source    string
	CreatedAt time.Time
}

const insertLead = `
INSERT INTO leads (tenant_id, domain, name, email, phone, website, niche, geo, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (tenant_id, domain) DO NOTHING
RETURNING id
`

// InsertLeadParams are the inputs for InsertLead.
type InsertLeadParams struct {
	TenantID int64
	Domain   string
	Name     string
	Email    string
	Phone    string
	Website  string
	Niche    string
	Geo      string
	Source   string
}

// InsertLead saves a lead, skipping silently when the tenant already has a
// lead for the same domain. Returns false when the row was a duplicate.
func (q *Queries) InsertLead(ctx context.Context, arg InsertLeadParams) (bool, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, insertLead,
		arg.TenantID, arg.Domain, arg.Name, arg.Email, arg.Phone,
		arg.Website, arg.Niche, arg.Geo, arg.Source,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const leadExists = `
SELECT EXISTS(SELECT 1 FROM leads WHERE tenant_id = $1 AND domain = $2)
`

// LeadExists reports whether the tenant already stored a lead for domain.
func (q *Queries) LeadExists(ctx context.Context, tenantID int64, domain string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, leadExists, tenantID, domain).Scan(&exists)
	return exists, err
}

const getLeadByID = `
SELECT id, tenant_id, domain, name, email, phone, website, niche, geo, source, created_at
FROM leads WHERE id = $1 AND tenant_id = $2
`

func (q *Queries) GetLeadByID(ctx context.Context, id, tenantID int64) (Lead, error) {
	var l Lead
	err := q.db.QueryRowContext(ctx, getLeadByID, id, tenantID).Scan(
		&l.ID, &l.TenantID, &l.Domain, &l.Name, &l.Email, &l.Phone,
		&l.Website, &l.Niche, &l.Geo, &l.Source, &l.CreatedAt,
	)
	return l, err
}

const listLeadsByTenant = `
SELECT id, tenant_id, domain, name, email, phone, website, niche, geo, source, created_at
FROM leads WHERE tenant_id = $1
ORDER BY created_at DESC, id DESC
`

// ListLeadsByTenant returns every lead the tenant has saved, newest first.
func (q *Queries) ListLeadsByTenant(ctx context.Context, tenantID int64) ([]Lead, error) {
	rows, err := q.db.QueryContext(ctx, listLeadsByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(
			&l.ID, &l.TenantID, &l.Domain, &l.Name, &l.Email, &l.Phone,
			&l.Website, &l.Niche, &l.Geo, &l.Source, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
