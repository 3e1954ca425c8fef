package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/entity"
)

var _ export.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo loads and stores invoice aggregates. Works with a pool or a tx
// (anything satisfying Querier).
type InvoiceRepo struct {
	q Querier
}

func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// AggregateByID reads the header, the line items and the down payments of one
// invoice. The items come back ordered by position; exports rely on that.
func (r *InvoiceRepo) AggregateByID(ctx context.Context, id string) (*entity.InvoiceAggregate, error) {
	header := `
		SELECT id, company_id, customer_id, number, issue_date, due_date,
		       COALESCE(theme, ''), COALESCE(remittance, ''), COALESCE(footer_text, ''),
		       discount_type, discount_value,
		       created_at, updated_at
		FROM invoices
		WHERE id = $1`

	inv := &entity.Invoice{}
	var discountType *string
	var discountValue *decimal.Decimal
	err := r.q.QueryRow(ctx, header, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.CustomerID, &inv.Number, &inv.IssueDate, &inv.DueDate,
		&inv.Theme, &inv.Remittance, &inv.FooterText,
		&discountType, &discountValue,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.MissingDataError{Entity: "invoice", ID: id}
		}
		return nil, fmt.Errorf("select invoice: %w", err)
	}

	agg := &entity.InvoiceAggregate{Invoice: inv}
	if discountType != nil && discountValue != nil {
		agg.Discount = &entity.Discount{Type: *discountType, Value: *discountValue}
	}

	if agg.Items, err = r.itemsFor(ctx, id); err != nil {
		return nil, err
	}
	if agg.DownPayments, err = r.downPaymentsFor(ctx, id); err != nil {
		return nil, err
	}
	return agg, nil
}

func (r *InvoiceRepo) itemsFor(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	query := `
		SELECT id, invoice_id, position, description, quantity, unit_price, vat_rate
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position`

	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("select invoice items: %w", err)
	}
	defer rows.Close()

	var items []entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.Description, &it.Quantity, &it.UnitPrice, &it.VATRate); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *InvoiceRepo) downPaymentsFor(ctx context.Context, invoiceID string) ([]entity.DownPayment, error) {
	query := `
		SELECT id, invoice_id, amount, COALESCE(description, ''), paid_at
		FROM down_payments
		WHERE invoice_id = $1
		ORDER BY paid_at NULLS LAST, id`

	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("select down payments: %w", err)
	}
	defer rows.Close()

	var payments []entity.DownPayment
	for rows.Next() {
		var p entity.DownPayment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Description, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan down payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Create persists a full aggregate. Callers run it inside a transaction via
// TxRunner so the header never exists without its items.
func (r *InvoiceRepo) Create(ctx context.Context, agg *entity.InvoiceAggregate) error {
	inv := agg.Invoice
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}

	var discountType, discountValue any
	if agg.Discount != nil {
		discountType = agg.Discount.Type
		discountValue = agg.Discount.Value
	}

	header := `
		INSERT INTO invoices (id, company_id, customer_id, number, issue_date, due_date,
		                      theme, remittance, footer_text, discount_type, discount_value,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, header,
		inv.ID, inv.CompanyID, inv.CustomerID, inv.Number, inv.IssueDate, inv.DueDate,
		nullIfEmpty(inv.Theme), nullIfEmpty(inv.Remittance), nullIfEmpty(inv.FooterText),
		discountType, discountValue,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number already exists: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	for i := range agg.Items {
		it := &agg.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.InvoiceID = inv.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, vat_rate)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.InvoiceID, it.Position, it.Description, it.Quantity, it.UnitPrice, it.VATRate,
		)
		if err != nil {
			return fmt.Errorf("insert invoice item %d: %w", it.Position, err)
		}
	}

	for i := range agg.DownPayments {
		p := &agg.DownPayments[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.InvoiceID = inv.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO down_payments (id, invoice_id, amount, description, paid_at)
			VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.InvoiceID, p.Amount, nullIfEmpty(p.Description), p.PaidAt,
		)
		if err != nil {
			return fmt.Errorf("insert down payment: %w", err)
		}
	}
	return nil
}
