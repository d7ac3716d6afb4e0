// Package fec turns billing records into the French statutory ledger file
// (Fichier des Écritures Comptables).
package fec

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document statuses and payment methods that drive entry generation.
const (
	StatusPaid      = "paid"
	MethodCash      = "cash"
	DefaultSIREN    = "000000000"
	DefaultCurrency = "EUR"
)

// Invoice is a customer invoice selected for the export.
type Invoice struct {
	ID           string
	Number       string
	Date         time.Time
	Status       string
	CustomerID   string
	CustomerName string
	Subtotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
	PaidDate     *time.Time
}

// CreditNote is a customer credit note selected for the export.
type CreditNote struct {
	ID           string
	Number       string
	Date         time.Time
	Status       string
	CustomerID   string
	CustomerName string
	Subtotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
}

// Payment is a customer payment received, optionally linked to an invoice.
type Payment struct {
	ID            string
	Date          time.Time
	Amount        decimal.Decimal
	Method        string
	InvoiceNumber string
	CustomerID    string
	CustomerName  string
}

// Expense is a supplier expense; Amount is pre-tax.
type Expense struct {
	ID            string
	Reference     string
	Date          time.Time
	Status        string
	PaymentStatus string
	PaymentDate   *time.Time
	Description   string
	SupplierID    string
	SupplierName  string
	CategoryName  string
	Amount        decimal.Decimal
	TaxAmount     decimal.Decimal
}

// Sources groups the aggregated documents of one export run.
type Sources struct {
	Invoices    []Invoice
	CreditNotes []CreditNote
	Payments    []Payment
	Expenses    []Expense
}

// Documents returns the number of source documents.
func (s Sources) Documents() int {
	return len(s.Invoices) + len(s.CreditNotes) + len(s.Payments) + len(s.Expenses)
}

// Line is one row of the ledger file.
type Line struct {
	JournalCode     string
	JournalLabel    string
	EntryNumber     string
	EntryDate       time.Time
	AccountNumber   string
	AccountLabel    string
	AuxAccountNum   string
	AuxAccountLabel string
	PieceRef        string
	PieceDate       time.Time
	Label           string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	LetteringCode   string
	LetteringDate   *time.Time
	ValidationDate  time.Time
	ForeignAmount   string
	CurrencyCode    string
}
