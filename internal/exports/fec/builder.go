package fec

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexacrm/ledgerd/internal/accounting/accounts"
	"github.com/nexacrm/ledgerd/internal/accounting/journals"
	"github.com/nexacrm/ledgerd/internal/accounting/shared"
)

const (
	letteringPrefix    = "L"
	letteringSuffixLen = 6
	customerAuxPrefix  = "C"
	supplierAuxPrefix  = "F"
	paymentRefPrefix   = "REG-"
	expenseRefPrefix   = "DEP-"
)

// Counter allocates entry numbers for a single export run.
type Counter struct {
	next int64
}

// NewCounter starts numbering at 1.
func NewCounter() *Counter {
	return &Counter{next: 1}
}

// Next returns the next zero-padded entry number.
func (c *Counter) Next() string {
	n := c.next
	c.next++
	return fmt.Sprintf("%08d", n)
}

// Builder converts source documents into balanced ledger entries.
// A Builder is owned by one export run and is not safe for concurrent use.
type Builder struct {
	counter *Counter
	lines   []Line
}

// NewBuilder returns a builder with a fresh counter.
func NewBuilder() *Builder {
	return &Builder{counter: NewCounter()}
}

// Build emits the lines for every source document: invoices, credit notes,
// payments then expenses. Any unbalanced entry fails the whole run.
func Build(src Sources) ([]Line, error) {
	b := NewBuilder()
	for _, inv := range src.Invoices {
		if err := b.AddInvoice(inv); err != nil {
			return nil, err
		}
	}
	for _, cn := range src.CreditNotes {
		if err := b.AddCreditNote(cn); err != nil {
			return nil, err
		}
	}
	for _, p := range src.Payments {
		if err := b.AddPayment(p); err != nil {
			return nil, err
		}
	}
	for _, e := range src.Expenses {
		if err := b.AddExpense(e); err != nil {
			return nil, err
		}
	}
	return b.Lines(), nil
}

// Lines returns the lines emitted so far.
func (b *Builder) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// AddInvoice debits the customer for TTC, credits sales for HT and VAT collected for the tax.
func (b *Builder) AddInvoice(inv Invoice) error {
	ref := inv.Number
	e := b.begin(journals.KeySales, ref, inv.Date)

	customer := e.debit(accounts.RoleCustomer, inv.Total, fmt.Sprintf("Facture %s - %s", ref, orDefault(inv.CustomerName, "Client")))
	customer.AuxAccountNum = auxAccount(customerAuxPrefix, inv.CustomerID)
	customer.AuxAccountLabel = inv.CustomerName
	if inv.Status == StatusPaid {
		customer.LetteringCode = letteringCode(ref)
	}
	customer.LetteringDate = inv.PaidDate

	e.credit(accounts.RoleServiceSales, inv.Subtotal, "Ventes "+ref)
	if inv.TaxAmount.IsPositive() {
		e.credit(accounts.RoleVATCollected, inv.TaxAmount, "TVA sur "+ref)
	}
	return b.commit(e)
}

// AddCreditNote books the reverse of an invoice.
func (b *Builder) AddCreditNote(cn CreditNote) error {
	ref := cn.Number
	e := b.begin(journals.KeySales, ref, cn.Date)

	customer := e.credit(accounts.RoleCustomer, cn.Total, "Avoir "+ref)
	customer.AuxAccountNum = auxAccount(customerAuxPrefix, cn.CustomerID)
	customer.AuxAccountLabel = cn.CustomerName

	e.debit(accounts.RoleServiceSales, cn.Subtotal, "Annulation ventes "+ref)
	if cn.TaxAmount.IsPositive() {
		e.debit(accounts.RoleVATCollected, cn.TaxAmount, "TVA sur avoir "+ref)
	}
	return b.commit(e)
}

// AddPayment debits bank or cash and settles the customer account.
func (b *Builder) AddPayment(p Payment) error {
	ref := paymentRefPrefix + p.ID
	e := b.begin(journals.KeyBank, ref, p.Date)

	treasury := accounts.RoleBank
	if p.Method == MethodCash {
		treasury = accounts.RoleCash
	}
	e.debit(treasury, p.Amount, fmt.Sprintf("Règlement %s - %s", orDefault(p.InvoiceNumber, "facture"), orDefault(p.CustomerName, "Client")))

	customer := e.credit(accounts.RoleCustomer, p.Amount, "Règlement "+p.InvoiceNumber)
	customer.AuxAccountNum = auxAccount(customerAuxPrefix, p.CustomerID)
	customer.AuxAccountLabel = p.CustomerName
	customer.LetteringCode = letteringCode(p.InvoiceNumber)
	pieceDate := p.Date
	customer.LetteringDate = &pieceDate
	return b.commit(e)
}

// AddExpense debits the charge and deductible VAT and credits the supplier for TTC.
func (b *Builder) AddExpense(x Expense) error {
	ref := orDefault(x.Reference, expenseRefPrefix+x.ID)
	e := b.begin(journals.KeyPurchases, ref, x.Date)

	charge := e.debit(accounts.RoleExternalServices, x.Amount, orDefault(x.Description, "Dépense "+ref))
	if strings.TrimSpace(x.CategoryName) != "" {
		charge.AccountLabel = x.CategoryName
	}
	if x.TaxAmount.IsPositive() {
		e.debit(accounts.RoleVATDeductible, x.TaxAmount, "TVA déductible "+ref)
	}

	supplier := e.credit(accounts.RoleSupplier, x.Amount.Add(x.TaxAmount), "Facture fournisseur "+ref)
	supplier.AuxAccountNum = auxAccount(supplierAuxPrefix, x.SupplierID)
	supplier.AuxAccountLabel = x.SupplierName
	if x.PaymentStatus == StatusPaid {
		supplier.LetteringCode = letteringCode(ref)
	}
	supplier.LetteringDate = x.PaymentDate
	return b.commit(e)
}

type entry struct {
	journal  journals.Journal
	number   string
	date     time.Time
	pieceRef string
	lines    []*Line
}

func (b *Builder) begin(key journals.Key, pieceRef string, date time.Time) *entry {
	return &entry{
		journal:  journals.MustLookup(key),
		number:   b.counter.Next(),
		date:     date,
		pieceRef: pieceRef,
	}
}

func (e *entry) debit(role accounts.Role, amount decimal.Decimal, label string) *Line {
	return e.add(role, amount.Round(2), decimal.Zero, label)
}

func (e *entry) credit(role accounts.Role, amount decimal.Decimal, label string) *Line {
	return e.add(role, decimal.Zero, amount.Round(2), label)
}

func (e *entry) add(role accounts.Role, debit, credit decimal.Decimal, label string) *Line {
	account := accounts.MustLookup(role)
	line := &Line{
		JournalCode:    e.journal.Code,
		JournalLabel:   e.journal.Label,
		EntryNumber:    e.number,
		EntryDate:      e.date,
		AccountNumber:  account.Number,
		AccountLabel:   account.Label,
		PieceRef:       e.pieceRef,
		PieceDate:      e.date,
		Label:          label,
		Debit:          debit,
		Credit:         credit,
		ValidationDate: e.date,
		CurrencyCode:   DefaultCurrency,
	}
	e.lines = append(e.lines, line)
	return line
}

func (b *Builder) commit(e *entry) error {
	if err := e.balanced(); err != nil {
		return err
	}
	for _, line := range e.lines {
		b.lines = append(b.lines, *line)
	}
	return nil
}

func (e *entry) balanced() error {
	if len(e.lines) < 2 {
		return fmt.Errorf("fec: entry %s (%s): %w", e.number, e.pieceRef, shared.ErrTooFewLines)
	}
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range e.lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return fmt.Errorf("fec: entry %s (%s) debit %s credit %s: %w",
			e.number, e.pieceRef, debit.StringFixed(2), credit.StringFixed(2), shared.ErrUnbalanced)
	}
	return nil
}

// letteringCode derives the reconciliation code from the tail of a reference.
// References shorter than the suffix length are used whole.
func letteringCode(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	runes := []rune(ref)
	if len(runes) > letteringSuffixLen {
		runes = runes[len(runes)-letteringSuffixLen:]
	}
	return letteringPrefix + string(runes)
}

func auxAccount(prefix, id string) string {
	if strings.TrimSpace(id) == "" {
		return ""
	}
	return prefix + id
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
