// seed inserts a demo company, customer and invoice so the export endpoints
// can be exercised against a fresh database.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jkellner/faktura-api/internal/domain/entity"
	"github.com/jkellner/faktura-api/internal/infrastructure/postgres"
	"github.com/jkellner/faktura-api/pkg/config"
	"github.com/jkellner/faktura-api/pkg/money"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	now := time.Now().UTC()

	company := &entity.Company{
		Name:      "Webwerk Nord",
		LegalName: "Webwerk Nord GmbH",
		Owner:     "Jana Kellner",
		Street:    "Hafenstr. 12",
		ZIP:       "20095",
		City:      "Hamburg",
		CountryID: "DE",
		TaxNumber: "22/815/08155",
		VATID:     "DE123456789",
		Bank: entity.BankAccount{
			IBAN: "DE02120300000000202051",
			BIC:  "BYLADEM1001",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	customer := &entity.Customer{
		Name:      "Muster AG",
		Street:    "Lindenallee 3",
		ZIP:       "10115",
		City:      "Berlin",
		CountryID: "DE",
		CreatedAt: now,
		UpdatedAt: now,
	}

	runner := postgres.NewTxRunner(pool)
	err = runner.Run(ctx, func(invoices *postgres.InvoiceRepo, companies *postgres.CompanyRepo, customers *postgres.CustomerRepo) error {
		if err := companies.Create(ctx, company); err != nil {
			return err
		}
		customer.CompanyID = company.ID
		if err := customers.Create(ctx, customer); err != nil {
			return err
		}

		agg := &entity.InvoiceAggregate{
			Invoice: &entity.Invoice{
				CompanyID:  company.ID,
				CustomerID: customer.ID,
				Number:     "R-2024-001",
				IssueDate:  now,
				DueDate:    now.AddDate(0, 0, 14),
				Theme:      entity.ThemeClassic,
				CreatedAt:  now,
				UpdatedAt:  now,
			},
			Items: []entity.LineItem{
				{Position: 1, Description: "Beratung", Quantity: money.MustFromString("3"), UnitPrice: money.MustFromString("10.00"), VATRate: money.MustFromString("19")},
				{Position: 2, Description: "Konzeption", Quantity: money.MustFromString("1"), UnitPrice: money.MustFromString("50.00"), VATRate: money.MustFromString("19")},
			},
		}
		return invoices.Create(ctx, agg)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded company %s, customer %s\n", company.ID, customer.ID)
	fmt.Println("export: GET /api/invoices/<id>/export?mode=hybrid")
}
