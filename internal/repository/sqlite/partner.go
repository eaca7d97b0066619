package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/repository"
)

var _ repository.PartnerRepository = (*PartnerStore)(nil)

// PartnerStore is the legacy business-partner facet of DB.
type PartnerStore struct {
	conn *sql.DB
}

const partnerColumns = `id, name, email, company, phone, website, active, created_at, updated_at`

// Create inserts a new partner. A duplicate email surfaces as a Conflict,
// enforced by the UNIQUE constraint rather than a check-then-insert race.
func (db *PartnerStore) Create(ctx context.Context, partner *model.Partner) error {
	now := time.Now()
	partner.ID = xid.New().String()
	partner.CreatedAt = now
	partner.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO partners (id, name, email, company, phone, website, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		partner.ID,
		partner.Name,
		partner.Email,
		partner.Company,
		partner.Phone,
		partner.Website,
		partner.Active,
		partner.CreatedAt,
		partner.UpdatedAt,
	)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return apperror.Conflict("partner", "email already registered")
		}
		return fmt.Errorf("sqlite: inserting partner: %w", err)
	}

	return nil
}

// GetByID retrieves a single partner.
func (db *PartnerStore) GetByID(ctx context.Context, id string) (*model.Partner, error) {
	var p model.Partner

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.Company, &p.Phone, &p.Website, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("partner", id)
		}
		return nil, fmt.Errorf("sqlite: getting partner %s: %w", id, err)
	}

	return &p, nil
}

// List returns partners newest first, optionally active only.
func (db *PartnerStore) List(ctx context.Context, opts repository.ListOptions, activeOnly bool) ([]model.Partner, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + partnerColumns + ` FROM partners`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing partners: %w", err)
	}
	defer rows.Close()

	partners := make([]model.Partner, 0, limit)
	for rows.Next() {
		var p model.Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Company, &p.Phone, &p.Website, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning partner row: %w", err)
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating partners: %w", err)
	}

	return partners, nil
}

// Update persists changes to a partner. Changing the email to one another
// partner already holds is a Conflict, same as Create.
func (db *PartnerStore) Update(ctx context.Context, partner *model.Partner) error {
	partner.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE partners SET name = ?, email = ?, company = ?, phone = ?, website = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		partner.Name,
		partner.Email,
		partner.Company,
		partner.Phone,
		partner.Website,
		partner.Active,
		partner.UpdatedAt,
		partner.ID,
	)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return apperror.Conflict("partner", "email already registered")
		}
		return fmt.Errorf("sqlite: updating partner %s: %w", partner.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("partner", partner.ID)
	}

	return nil
}

// Delete removes a partner; absent partners are a NotFound.
func (db *PartnerStore) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM partners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting partner %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("partner", id)
	}

	return nil
}
