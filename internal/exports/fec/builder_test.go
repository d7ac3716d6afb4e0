package fec

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexacrm/ledgerd/internal/accounting/shared"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func assertBalanced(t *testing.T, lines []Line) {
	t.Helper()
	debits := map[string]decimal.Decimal{}
	credits := map[string]decimal.Decimal{}
	for _, l := range lines {
		debits[l.EntryNumber] = debits[l.EntryNumber].Add(l.Debit)
		credits[l.EntryNumber] = credits[l.EntryNumber].Add(l.Credit)
		nonZero := 0
		if !l.Debit.IsZero() {
			nonZero++
		}
		if !l.Credit.IsZero() {
			nonZero++
		}
		assert.LessOrEqual(t, nonZero, 1, "line %s %s has both sides", l.EntryNumber, l.AccountNumber)
	}
	for num, debit := range debits {
		assert.True(t, debit.Equal(credits[num]), "entry %s debit %s credit %s", num, debit, credits[num])
	}
}

func TestScenarioPaidInvoice(t *testing.T) {
	paid := day(2024, 3, 20)
	lines, err := Build(Sources{Invoices: []Invoice{{
		ID: "1", Number: "FAC-2024-000123", Date: day(2024, 3, 1), Status: StatusPaid,
		CustomerID: "42", CustomerName: "ACME",
		Subtotal: d("100.00"), TaxAmount: d("20.00"), Total: d("120.00"),
		PaidDate: &paid,
	}}})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assertBalanced(t, lines)

	customer, sales, vat := lines[0], lines[1], lines[2]
	assert.Equal(t, "VE", customer.JournalCode)
	assert.Equal(t, "411000", customer.AccountNumber)
	assert.Equal(t, "120,00", FormatAmount(customer.Debit))
	assert.Equal(t, "0,00", FormatAmount(customer.Credit))
	assert.Equal(t, "C42", customer.AuxAccountNum)
	assert.Equal(t, "ACME", customer.AuxAccountLabel)
	assert.Equal(t, "L000123", customer.LetteringCode)
	require.NotNil(t, customer.LetteringDate)
	assert.Equal(t, paid, *customer.LetteringDate)
	assert.Equal(t, "Facture FAC-2024-000123 - ACME", customer.Label)

	assert.Equal(t, "706000", sales.AccountNumber)
	assert.Equal(t, "100,00", FormatAmount(sales.Credit))
	assert.Empty(t, sales.AuxAccountNum)
	assert.Empty(t, sales.LetteringCode)

	assert.Equal(t, "445710", vat.AccountNumber)
	assert.Equal(t, "20,00", FormatAmount(vat.Credit))
}

func TestUnpaidInvoiceHasNoLettering(t *testing.T) {
	lines, err := Build(Sources{Invoices: []Invoice{{
		ID: "1", Number: "F1", Date: day(2024, 1, 5), Status: "sent",
		CustomerID: "7", Subtotal: d("10"), TaxAmount: d("2"), Total: d("12"),
	}}})
	require.NoError(t, err)
	assert.Empty(t, lines[0].LetteringCode)
	assert.Nil(t, lines[0].LetteringDate)
	assert.Empty(t, lines[0].AuxAccountLabel)
	assert.Equal(t, "Facture F1 - Client", lines[0].Label)
}

func TestZeroTaxInvoiceOmitsVATLine(t *testing.T) {
	lines, err := Build(Sources{Invoices: []Invoice{{
		ID: "1", Number: "F1", Date: day(2024, 1, 5), Status: "sent",
		CustomerID: "7", Subtotal: d("50"), TaxAmount: decimal.Zero, Total: d("50"),
	}}})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assertBalanced(t, lines)
	for _, l := range lines {
		assert.NotEqual(t, "445710", l.AccountNumber)
	}
}

func TestScenarioPartialCreditNote(t *testing.T) {
	lines, err := Build(Sources{CreditNotes: []CreditNote{{
		ID: "9", Number: "AV-2024-0001", Date: day(2024, 3, 25), Status: "issued",
		CustomerID: "42", CustomerName: "ACME",
		Subtotal: d("41.67"), TaxAmount: d("8.33"), Total: d("50.00"),
	}}})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assertBalanced(t, lines)

	assert.Equal(t, "411000", lines[0].AccountNumber)
	assert.Equal(t, "50,00", FormatAmount(lines[0].Credit))
	assert.Equal(t, "C42", lines[0].AuxAccountNum)
	assert.Equal(t, "Avoir AV-2024-0001", lines[0].Label)
	assert.Equal(t, "706000", lines[1].AccountNumber)
	assert.Equal(t, "41,67", FormatAmount(lines[1].Debit))
	assert.Equal(t, "Annulation ventes AV-2024-0001", lines[1].Label)
	assert.Equal(t, "445710", lines[2].AccountNumber)
	assert.Equal(t, "8,33", FormatAmount(lines[2].Debit))
}

func TestScenarioCashPayment(t *testing.T) {
	lines, err := Build(Sources{Payments: []Payment{{
		ID: "55", Date: day(2024, 4, 2), Amount: d("45.00"), Method: MethodCash,
		InvoiceNumber: "FAC-2024-000123", CustomerID: "42", CustomerName: "ACME",
	}}})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assertBalanced(t, lines)

	cash, customer := lines[0], lines[1]
	assert.Equal(t, "BQ", cash.JournalCode)
	assert.Equal(t, "530000", cash.AccountNumber)
	assert.Equal(t, "45,00", FormatAmount(cash.Debit))
	assert.Empty(t, cash.AuxAccountNum)
	assert.Equal(t, "REG-55", cash.PieceRef)
	assert.Equal(t, "Règlement FAC-2024-000123 - ACME", cash.Label)

	assert.Equal(t, "411000", customer.AccountNumber)
	assert.Equal(t, "45,00", FormatAmount(customer.Credit))
	assert.Equal(t, "C42", customer.AuxAccountNum)
	assert.Equal(t, "L000123", customer.LetteringCode)
	require.NotNil(t, customer.LetteringDate)
	assert.Equal(t, day(2024, 4, 2), *customer.LetteringDate)
}

func TestBankPaymentWithoutInvoice(t *testing.T) {
	lines, err := Build(Sources{Payments: []Payment{{
		ID: "56", Date: day(2024, 4, 3), Amount: d("10"), Method: "transfer",
	}}})
	require.NoError(t, err)
	assert.Equal(t, "512000", lines[0].AccountNumber)
	assert.Equal(t, "Règlement facture - Client", lines[0].Label)
	assert.Empty(t, lines[1].AuxAccountNum)
	assert.Empty(t, lines[1].LetteringCode)
}

func TestScenarioZeroTaxExpense(t *testing.T) {
	lines, err := Build(Sources{Expenses: []Expense{{
		ID: "77", Date: day(2024, 5, 10), Status: "approved",
		SupplierID: "3", SupplierName: "Papeterie",
		Amount: d("200.00"), TaxAmount: decimal.Zero,
	}}})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assertBalanced(t, lines)

	charge, supplier := lines[0], lines[1]
	assert.Equal(t, "AC", charge.JournalCode)
	assert.Equal(t, "611000", charge.AccountNumber)
	assert.Equal(t, "Sous-traitance générale", charge.AccountLabel)
	assert.Equal(t, "200,00", FormatAmount(charge.Debit))
	assert.Equal(t, "DEP-77", charge.PieceRef)
	assert.Equal(t, "Dépense DEP-77", charge.Label)

	assert.Equal(t, "401000", supplier.AccountNumber)
	assert.Equal(t, "200,00", FormatAmount(supplier.Credit))
	assert.Equal(t, "F3", supplier.AuxAccountNum)
	assert.Equal(t, "Papeterie", supplier.AuxAccountLabel)
	assert.Empty(t, supplier.LetteringCode)
}

func TestPaidExpenseWithTaxAndCategory(t *testing.T) {
	paidAt := day(2024, 5, 30)
	lines, err := Build(Sources{Expenses: []Expense{{
		ID: "78", Reference: "FF-99812", Date: day(2024, 5, 12), Status: "approved",
		PaymentStatus: StatusPaid, PaymentDate: &paidAt,
		Description: "Hébergement serveur", CategoryName: "Informatique",
		Amount: d("80.00"), TaxAmount: d("16.00"),
	}}})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assertBalanced(t, lines)
	assert.Equal(t, "Informatique", lines[0].AccountLabel)
	assert.Equal(t, "Hébergement serveur", lines[0].Label)
	assert.Equal(t, "445660", lines[1].AccountNumber)
	assert.Equal(t, "96,00", FormatAmount(lines[2].Credit))
	assert.Empty(t, lines[2].AuxAccountNum)
	assert.Equal(t, "L-99812", lines[2].LetteringCode)
	assert.Equal(t, &paidAt, lines[2].LetteringDate)
}

func TestEntryNumbersAreSharedAcrossSources(t *testing.T) {
	src := Sources{
		Invoices:    []Invoice{{ID: "1", Number: "F1", Date: day(2024, 1, 1), Subtotal: d("10"), TaxAmount: d("2"), Total: d("12")}},
		CreditNotes: []CreditNote{{ID: "2", Number: "A1", Date: day(2024, 1, 2), Subtotal: d("5"), Total: d("5")}},
		Payments:    []Payment{{ID: "3", Date: day(2024, 1, 3), Amount: d("7")}},
		Expenses:    []Expense{{ID: "4", Date: day(2024, 1, 4), Amount: d("3"), TaxAmount: d("0.60")}},
	}
	lines, err := Build(src)
	require.NoError(t, err)
	assertBalanced(t, lines)

	var order []string
	for _, l := range lines {
		if len(order) == 0 || order[len(order)-1] != l.EntryNumber {
			order = append(order, l.EntryNumber)
		}
	}
	assert.Equal(t, []string{"00000001", "00000002", "00000003", "00000004"}, order)
	assert.Equal(t, "VE", lines[0].JournalCode)
	assert.Equal(t, "AC", lines[len(lines)-1].JournalCode)
}

func TestCountersAreIsolatedPerRun(t *testing.T) {
	src := Sources{Payments: []Payment{{ID: "1", Date: day(2024, 1, 1), Amount: d("1")}}}
	first, err := Build(src)
	require.NoError(t, err)
	second, err := Build(src)
	require.NoError(t, err)
	assert.Equal(t, "00000001", first[0].EntryNumber)
	assert.Equal(t, "00000001", second[0].EntryNumber)
	assert.Equal(t, Render(first), Render(second))
}

func TestUnbalancedInvoiceFailsRun(t *testing.T) {
	_, err := Build(Sources{Invoices: []Invoice{{
		ID: "1", Number: "F-BAD", Date: day(2024, 1, 1),
		Subtotal: d("100"), TaxAmount: d("20"), Total: d("119.99"),
	}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnbalanced))
	assert.Contains(t, err.Error(), "F-BAD")
}

func TestLetteringCode(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"   ":             "",
		"F1":              "LF1",
		"123456":          "L123456",
		"FAC-2024-000123": "L000123",
		"FACTÜRE-ÉÀ":      "LÜRE-ÉÀ",
	}
	for in, want := range cases {
		assert.Equal(t, want, letteringCode(in), fmt.Sprintf("ref %q", in))
	}
}

func TestCounterFormatting(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, "00000001", c.Next())
	assert.Equal(t, "00000002", c.Next())
}
