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

var _ export.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo loads issuer master data including the bank account the
// GiroCode is built from.
type CompanyRepo struct {
	q Querier
}

func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

func (r *CompanyRepo) ByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, COALESCE(legal_name, ''), COALESCE(owner, ''),
		       COALESCE(street, ''), COALESCE(zip, ''), COALESCE(city, ''), COALESCE(country_id, 'DE'),
		       COALESCE(phone, ''), COALESCE(email, ''),
		       COALESCE(tax_number, ''), COALESCE(vat_id, ''), small_business,
		       COALESCE(account_holder, ''), COALESCE(iban, ''), COALESCE(bic, ''),
		       created_at, updated_at
		FROM companies
		WHERE id = $1`

	c := &entity.Company{}
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.LegalName, &c.Owner,
		&c.Street, &c.ZIP, &c.City, &c.CountryID,
		&c.Phone, &c.Email,
		&c.TaxNumber, &c.VATID, &c.SmallBusiness,
		&c.Bank.AccountHolder, &c.Bank.IBAN, &c.Bank.BIC,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.MissingDataError{Entity: "company", ID: id}
		}
		return nil, fmt.Errorf("select company: %w", err)
	}
	return c, nil
}

func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO companies (id, name, legal_name, owner, street, zip, city, country_id,
		                       phone, email, tax_number, vat_id, small_business,
		                       account_holder, iban, bic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, nullIfEmpty(c.LegalName), nullIfEmpty(c.Owner),
		nullIfEmpty(c.Street), nullIfEmpty(c.ZIP), nullIfEmpty(c.City), nullIfEmpty(c.CountryID),
		nullIfEmpty(c.Phone), nullIfEmpty(c.Email),
		nullIfEmpty(c.TaxNumber), nullIfEmpty(c.VATID), c.SmallBusiness,
		nullIfEmpty(c.Bank.AccountHolder), nullIfEmpty(c.Bank.IBAN), nullIfEmpty(c.Bank.BIC),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}
