package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/entity"
)

var _ export.CustomerRepository = (*CustomerRepo)(nil)

type CustomerRepo struct {
	q Querier
}

func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

func (r *CustomerRepo) ByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `
		SELECT id, company_id, name,
		       COALESCE(street, ''), COALESCE(zip, ''), COALESCE(city, ''), COALESCE(country_id, 'DE'),
		       COALESCE(vat_id, ''), COALESCE(email, ''), COALESCE(phone, ''),
		       created_at, updated_at
		FROM customers
		WHERE id = $1`

	c := &entity.Customer{}
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.CompanyID, &c.Name,
		&c.Street, &c.ZIP, &c.City, &c.CountryID,
		&c.VATID, &c.Email, &c.Phone,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.MissingDataError{Entity: "customer", ID: id}
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO customers (id, company_id, name, street, zip, city, country_id,
		                       vat_id, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Name,
		nullIfEmpty(c.Street), nullIfEmpty(c.ZIP), nullIfEmpty(c.City), nullIfEmpty(c.CountryID),
		nullIfEmpty(c.VATID), nullIfEmpty(c.Email), nullIfEmpty(c.Phone),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}
