package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/billing"
	"github.com/jkellner/faktura-api/internal/domain/entity"
	"github.com/jkellner/faktura-api/pkg/money"
)

func item(pos int, qty, price, rate string) entity.LineItem {
	return entity.LineItem{
		Position:    pos,
		Description: "Position " + qty + "x" + price,
		Quantity:    money.MustFromString(qty),
		UnitPrice:   money.MustFromString(price),
		VATRate:     money.MustFromString(rate),
	}
}

// scenarioA: qty 3 @ 10.00 (19%) + qty 1 @ 50.00 (19%).
func scenarioA() []entity.LineItem {
	return []entity.LineItem{
		item(1, "3", "10.00", "19"),
		item(2, "1", "50.00", "19"),
	}
}

func TestCalculate_ScenarioA(t *testing.T) {
	totals, err := billing.Calculate(scenarioA(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "80.00", totals.TotalNet.StringFixed(2))
	assert.Equal(t, "15.20", totals.TotalVAT.StringFixed(2))
	assert.Equal(t, "95.20", totals.TotalGross.StringFixed(2))
	assert.Equal(t, "95.20", totals.AmountDue.StringFixed(2), "no down payments: amount due equals gross")
}

func TestCalculate_ScenarioB_PercentDiscount(t *testing.T) {
	discount := &entity.Discount{Type: entity.DiscountPercent, Value: money.MustFromString("10")}

	totals, err := billing.Calculate(scenarioA(), discount, nil)
	require.NoError(t, err)

	assert.Equal(t, "8.00", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "72.00", totals.NetAfterDiscount.StringFixed(2))
	assert.Equal(t, "13.68", totals.TotalVAT.StringFixed(2), "VAT is computed on the net after discount")
	assert.Equal(t, "85.68", totals.TotalGross.StringFixed(2))
}

func TestCalculate_ScenarioC_DownPayment(t *testing.T) {
	discount := &entity.Discount{Type: entity.DiscountPercent, Value: money.MustFromString("10")}
	paid := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	down := []entity.DownPayment{{Amount: money.MustFromString("50.00"), Description: "Anzahlung", PaidAt: &paid}}

	totals, err := billing.Calculate(scenarioA(), discount, down)
	require.NoError(t, err)

	assert.Equal(t, "50.00", totals.TotalDownPayments.StringFixed(2))
	assert.Equal(t, "35.68", totals.AmountDue.StringFixed(2))
	assert.Equal(t, "35.68", totals.PaymentAmount().StringFixed(2),
		"GiroCode must ask for what is still owed, not the nominal gross")
}

func TestCalculate_ScenarioD_SmallBusiness(t *testing.T) {
	totals, err := billing.Calculate(billing.ForceZeroRate(scenarioA()), nil, nil)
	require.NoError(t, err)

	assert.True(t, totals.VATRate.IsZero(), "exempt issuer reports rate 0, fields are not omitted")
	assert.Equal(t, "0.00", totals.TotalVAT.StringFixed(2))
	assert.Equal(t, "80.00", totals.TotalGross.StringFixed(2))
}

func TestCalculate_GrossEqualsNetPlusVAT(t *testing.T) {
	cases := [][]entity.LineItem{
		scenarioA(),
		{item(1, "0.5", "19.99", "19")},
		{item(1, "7", "3.33", "7"), item(2, "13", "0.07", "7")},
		{item(1, "1", "0.01", "19")},
		nil, // empty invoice: all totals zero
	}
	for _, items := range cases {
		totals, err := billing.Calculate(items, nil, nil)
		require.NoError(t, err)
		assert.True(t, totals.TotalGross.Equal(totals.NetAfterDiscount.Add(totals.TotalVAT)),
			"gross %s must equal net %s + vat %s",
			totals.TotalGross, totals.NetAfterDiscount, totals.TotalVAT)
	}
}

func TestCalculate_FullDiscountYieldsZeroNet(t *testing.T) {
	items := []entity.LineItem{item(1, "1", "200.00", "19")}
	discount := &entity.Discount{Type: entity.DiscountPercent, Value: money.MustFromString("100")}

	totals, err := billing.Calculate(items, discount, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.00", totals.NetAfterDiscount.StringFixed(2))
	assert.Equal(t, "0.00", totals.TotalVAT.StringFixed(2))
	assert.Equal(t, "0.00", totals.TotalGross.StringFixed(2))
}

func TestCalculate_AbsoluteDiscountCappedAtNet(t *testing.T) {
	items := []entity.LineItem{item(1, "1", "50.00", "19")}
	discount := &entity.Discount{Type: entity.DiscountAbsolute, Value: money.MustFromString("80.00")}

	totals, err := billing.Calculate(items, discount, nil)
	require.NoError(t, err)

	assert.True(t, totals.DiscountCapped, "oversized absolute discount must be reported as capped")
	assert.Equal(t, "50.00", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "0.00", totals.NetAfterDiscount.StringFixed(2))
}

func TestCalculate_RejectsMalformedDiscount(t *testing.T) {
	tests := []struct {
		name     string
		discount *entity.Discount
	}{
		{"negative percent", &entity.Discount{Type: entity.DiscountPercent, Value: money.MustFromString("-50")}},
		{"negative absolute", &entity.Discount{Type: entity.DiscountAbsolute, Value: money.MustFromString("-10.00")}},
		{"percent above 100", &entity.Discount{Type: entity.DiscountPercent, Value: money.MustFromString("150")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := billing.Calculate(scenarioA(), tt.discount, nil)
			require.Error(t, err, "a malformed discount must never inflate the totals")

			var invalid *domain.InvalidAmountError
			assert.ErrorAs(t, err, &invalid)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCalculate_MixedRatesGovernedByFirstItem(t *testing.T) {
	items := []entity.LineItem{
		item(1, "2", "50.00", "19"),
		item(2, "1", "100.00", "7"),
	}

	totals, err := billing.Calculate(items, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "19", totals.VATRate.String(),
		"the first line item's rate governs the VAT summary")
	assert.Equal(t, "200.00", totals.TotalNet.StringFixed(2))
	assert.Equal(t, "38.00", totals.TotalVAT.StringFixed(2),
		"the single governing rate applies to the whole net, not per line")
	assert.Equal(t, "238.00", totals.TotalGross.StringFixed(2))
}

func TestCalculate_OverpaymentGoesNegative(t *testing.T) {
	down := []entity.DownPayment{
		{Amount: money.MustFromString("60.00")},
		{Amount: money.MustFromString("60.00")},
	}

	totals, err := billing.Calculate(scenarioA(), nil, down)
	require.NoError(t, err)

	assert.Equal(t, "-24.80", totals.AmountDue.StringFixed(2),
		"pathological overpayment must surface as a negative amount due, never be clamped")
}

func TestCalculate_Idempotent(t *testing.T) {
	items := scenarioA()
	discount := &entity.Discount{Type: entity.DiscountPercent, Value: money.MustFromString("10")}
	down := []entity.DownPayment{{Amount: money.MustFromString("50.00")}}

	t1, err1 := billing.Calculate(items, discount, down)
	t2, err2 := billing.Calculate(items, discount, down)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, t1, t2, "unchanged input must yield identical totals")
}

func TestCalculate_RejectsNegativeInput(t *testing.T) {
	tests := []struct {
		name  string
		items []entity.LineItem
	}{
		{"negative quantity", []entity.LineItem{item(1, "-1", "10.00", "19")}},
		{"negative unit price", []entity.LineItem{item(1, "1", "-10.00", "19")}},
		{"negative vat rate", []entity.LineItem{item(1, "1", "10.00", "-19")}},
		{"vat rate above 100", []entity.LineItem{item(1, "1", "10.00", "101")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := billing.Calculate(tt.items, nil, nil)
			require.Error(t, err, "negative financial input is a validation error, not silently clamped")

			var invalid *domain.InvalidAmountError
			assert.ErrorAs(t, err, &invalid)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCalculate_LineLevelRoundingAccumulates(t *testing.T) {
	// 3 x 0.335 rounds to 1.01 at line level (0.005 rounds up, not to even).
	items := []entity.LineItem{item(1, "3", "0.335", "0")}

	totals, err := billing.Calculate(items, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.01", totals.TotalNet.StringFixed(2), "commercial half-up rounding, not banker's")
}

func TestForceZeroRate_DoesNotMutateInput(t *testing.T) {
	items := scenarioA()
	_ = billing.ForceZeroRate(items)
	assert.True(t, items[0].VATRate.Equal(decimal.NewFromInt(19)), "input slice must stay untouched")
}
