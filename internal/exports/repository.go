package exports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nexacrm/ledgerd/internal/exports/fec"
	"github.com/nexacrm/ledgerd/internal/exports/tabular"
)

// PostgresRepository reads the billing tables of an organization.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const listInvoicesSQL = `
	SELECT i.id::text, COALESCE(i.invoice_number, ''), i.invoice_date, COALESCE(i.status, ''),
		COALESCE(i.customer_id::text, ''), COALESCE(c.name, ''),
		COALESCE(i.subtotal, 0)::text, COALESCE(i.tax_amount, 0)::text, COALESCE(i.total_amount, 0)::text,
		i.paid_date
	FROM invoices i
	LEFT JOIN customers c ON c.id = i.customer_id
	WHERE i.organization_id = $1
		AND i.invoice_date >= $2 AND i.invoice_date <= $3
		AND i.status NOT IN ('draft', 'cancelled')
	ORDER BY i.invoice_date, i.id`

// ListInvoices returns the issued invoices of the period.
func (r *PostgresRepository) ListInvoices(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.Invoice, error) {
	rows, err := r.pool.Query(ctx, listInvoicesSQL, org, from, to)
	if err != nil {
		return nil, fmt.Errorf("exports: list invoices: %w", err)
	}
	defer rows.Close()

	var out []fec.Invoice
	for rows.Next() {
		var (
			inv                  fec.Invoice
			subtotal, tax, total string
		)
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Date, &inv.Status,
			&inv.CustomerID, &inv.CustomerName,
			&subtotal, &tax, &total, &inv.PaidDate); err != nil {
			return nil, fmt.Errorf("exports: scan invoice: %w", err)
		}
		if err := parseAmounts([]string{subtotal, tax, total}, &inv.Subtotal, &inv.TaxAmount, &inv.Total); err != nil {
			return nil, fmt.Errorf("exports: invoice %s: %w", inv.ID, err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exports: list invoices: %w", err)
	}
	return out, nil
}

const listCreditNotesSQL = `
	SELECT cn.id::text, COALESCE(cn.credit_note_number, ''), cn.credit_note_date, COALESCE(cn.status, ''),
		COALESCE(cn.customer_id::text, ''), COALESCE(c.name, ''),
		COALESCE(cn.subtotal, 0)::text, COALESCE(cn.tax_amount, 0)::text, COALESCE(cn.total_amount, 0)::text
	FROM credit_notes cn
	LEFT JOIN customers c ON c.id = cn.customer_id
	WHERE cn.organization_id = $1
		AND cn.credit_note_date >= $2 AND cn.credit_note_date <= $3
		AND cn.status NOT IN ('draft', 'cancelled')
		AND cn.deleted_at IS NULL
	ORDER BY cn.credit_note_date, cn.id`

// ListCreditNotes returns the issued, non deleted credit notes of the period.
func (r *PostgresRepository) ListCreditNotes(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.CreditNote, error) {
	rows, err := r.pool.Query(ctx, listCreditNotesSQL, org, from, to)
	if err != nil {
		return nil, fmt.Errorf("exports: list credit notes: %w", err)
	}
	defer rows.Close()

	var out []fec.CreditNote
	for rows.Next() {
		var (
			cn                   fec.CreditNote
			subtotal, tax, total string
		)
		if err := rows.Scan(&cn.ID, &cn.Number, &cn.Date, &cn.Status,
			&cn.CustomerID, &cn.CustomerName,
			&subtotal, &tax, &total); err != nil {
			return nil, fmt.Errorf("exports: scan credit note: %w", err)
		}
		if err := parseAmounts([]string{subtotal, tax, total}, &cn.Subtotal, &cn.TaxAmount, &cn.Total); err != nil {
			return nil, fmt.Errorf("exports: credit note %s: %w", cn.ID, err)
		}
		out = append(out, cn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exports: list credit notes: %w", err)
	}
	return out, nil
}

const listPaymentsSQL = `
	SELECT p.id::text, p.payment_date, COALESCE(p.amount, 0)::text, COALESCE(p.payment_method, ''),
		COALESCE(i.invoice_number, ''), COALESCE(i.customer_id::text, ''), COALESCE(c.name, '')
	FROM payments p
	LEFT JOIN invoices i ON i.id = p.invoice_id
	LEFT JOIN customers c ON c.id = i.customer_id
	WHERE p.organization_id = $1
		AND p.payment_date >= $2 AND p.payment_date <= $3
	ORDER BY p.payment_date, p.id`

// ListPayments returns every payment received in the period.
func (r *PostgresRepository) ListPayments(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.Payment, error) {
	rows, err := r.pool.Query(ctx, listPaymentsSQL, org, from, to)
	if err != nil {
		return nil, fmt.Errorf("exports: list payments: %w", err)
	}
	defer rows.Close()

	var out []fec.Payment
	for rows.Next() {
		var (
			p      fec.Payment
			amount string
		)
		if err := rows.Scan(&p.ID, &p.Date, &amount, &p.Method,
			&p.InvoiceNumber, &p.CustomerID, &p.CustomerName); err != nil {
			return nil, fmt.Errorf("exports: scan payment: %w", err)
		}
		if err := parseAmounts([]string{amount}, &p.Amount); err != nil {
			return nil, fmt.Errorf("exports: payment %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exports: list payments: %w", err)
	}
	return out, nil
}

const listExpensesSQL = `
	SELECT e.id::text, COALESCE(e.reference, ''), e.expense_date, COALESCE(e.status, ''),
		COALESCE(e.payment_status, ''), e.payment_date, COALESCE(e.description, ''),
		COALESCE(e.supplier_id::text, ''), COALESCE(s.name, ''), COALESCE(ec.name, ''),
		COALESCE(e.amount, 0)::text, COALESCE(e.tax_amount, 0)::text
	FROM expenses e
	LEFT JOIN suppliers s ON s.id = e.supplier_id
	LEFT JOIN expense_categories ec ON ec.id = e.category_id
	WHERE e.organization_id = $1
		AND e.expense_date >= $2 AND e.expense_date <= $3
		AND e.status != 'draft'
		AND e.deleted_at IS NULL
	ORDER BY e.expense_date, e.id`

// ListExpenses returns the non draft, non deleted expenses of the period.
func (r *PostgresRepository) ListExpenses(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.Expense, error) {
	rows, err := r.pool.Query(ctx, listExpensesSQL, org, from, to)
	if err != nil {
		return nil, fmt.Errorf("exports: list expenses: %w", err)
	}
	defer rows.Close()

	var out []fec.Expense
	for rows.Next() {
		var (
			x           fec.Expense
			amount, tax string
		)
		if err := rows.Scan(&x.ID, &x.Reference, &x.Date, &x.Status,
			&x.PaymentStatus, &x.PaymentDate, &x.Description,
			&x.SupplierID, &x.SupplierName, &x.CategoryName,
			&amount, &tax); err != nil {
			return nil, fmt.Errorf("exports: scan expense: %w", err)
		}
		if err := parseAmounts([]string{amount, tax}, &x.Amount, &x.TaxAmount); err != nil {
			return nil, fmt.Errorf("exports: expense %s: %w", x.ID, err)
		}
		out = append(out, x)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exports: list expenses: %w", err)
	}
	return out, nil
}

const summarizeSQL = `
	SELECT
		(SELECT COUNT(*) FROM invoices
			WHERE organization_id = $1 AND invoice_date >= $2 AND invoice_date <= $3
				AND status NOT IN ('draft', 'cancelled')),
		(SELECT COALESCE(SUM(total_amount), 0)::float8 FROM invoices
			WHERE organization_id = $1 AND invoice_date >= $2 AND invoice_date <= $3
				AND status NOT IN ('draft', 'cancelled')),
		(SELECT COUNT(*) FROM credit_notes
			WHERE organization_id = $1 AND credit_note_date >= $2 AND credit_note_date <= $3
				AND status NOT IN ('draft', 'cancelled') AND deleted_at IS NULL),
		(SELECT COALESCE(SUM(total_amount), 0)::float8 FROM credit_notes
			WHERE organization_id = $1 AND credit_note_date >= $2 AND credit_note_date <= $3
				AND status NOT IN ('draft', 'cancelled') AND deleted_at IS NULL),
		(SELECT COUNT(*) FROM payments
			WHERE organization_id = $1 AND payment_date >= $2 AND payment_date <= $3),
		(SELECT COALESCE(SUM(amount), 0)::float8 FROM payments
			WHERE organization_id = $1 AND payment_date >= $2 AND payment_date <= $3),
		(SELECT COUNT(*) FROM expenses
			WHERE organization_id = $1 AND expense_date >= $2 AND expense_date <= $3
				AND status != 'draft' AND deleted_at IS NULL),
		(SELECT COALESCE(SUM(amount), 0)::float8 FROM expenses
			WHERE organization_id = $1 AND expense_date >= $2 AND expense_date <= $3
				AND status != 'draft' AND deleted_at IS NULL)`

// Summarize counts and totals the documents the export would include.
func (r *PostgresRepository) Summarize(ctx context.Context, org uuid.UUID, from, to time.Time) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, summarizeSQL, org, from, to).Scan(
		&s.Invoices.Count, &s.Invoices.Total,
		&s.CreditNotes.Count, &s.CreditNotes.Total,
		&s.Payments.Count, &s.Payments.Total,
		&s.Expenses.Count, &s.Expenses.Total,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("exports: summarize: %w", err)
	}
	return s, nil
}

const (
	invoicesDatasetSQL = `
	SELECT COALESCE(i.invoice_number, ''), i.invoice_date, c.name,
		i.subtotal::text, i.tax_amount::text, i.total_amount::text, COALESCE(i.status, '')
	FROM invoices i
	LEFT JOIN customers c ON c.id = i.customer_id
	WHERE i.organization_id = $1 AND i.invoice_date >= $2 AND i.invoice_date <= $3
	ORDER BY i.invoice_date DESC, i.id DESC`

	paymentsDatasetSQL = `
	SELECT p.payment_date, i.invoice_number, c.name, p.amount::text, COALESCE(p.payment_method, '')
	FROM payments p
	LEFT JOIN invoices i ON i.id = p.invoice_id
	LEFT JOIN customers c ON c.id = i.customer_id
	WHERE p.organization_id = $1 AND p.payment_date >= $2 AND p.payment_date <= $3
	ORDER BY p.payment_date DESC, p.id DESC`

	expensesDatasetSQL = `
	SELECT e.expense_date, e.reference, s.name, ec.name,
		e.amount::text, e.tax_amount::text, COALESCE(e.status, '')
	FROM expenses e
	LEFT JOIN suppliers s ON s.id = e.supplier_id
	LEFT JOIN expense_categories ec ON ec.id = e.category_id
	WHERE e.organization_id = $1 AND e.expense_date >= $2 AND e.expense_date <= $3
		AND e.deleted_at IS NULL
	ORDER BY e.expense_date DESC, e.id DESC`
)

// Dataset loads one flat dataset, most recent first.
func (r *PostgresRepository) Dataset(ctx context.Context, org uuid.UUID, ds Dataset, from, to time.Time) (tabular.Table, error) {
	switch ds {
	case DatasetInvoices:
		table := tabular.Table{Name: "factures", Columns: []string{"Numéro", "Date", "Client", "HT", "TVA", "TTC", "Statut"}}
		err := r.collect(ctx, invoicesDatasetSQL, org, from, to, func(rows pgx.Rows) error {
			var (
				number, status       string
				date                 *time.Time
				client               *string
				subtotal, tax, total *string
			)
			if err := rows.Scan(&number, &date, &client, &subtotal, &tax, &total, &status); err != nil {
				return err
			}
			row, err := cells(number, date, client, amount(subtotal), amount(tax), amount(total), status)
			if err != nil {
				return err
			}
			table.Append(row...)
			return nil
		})
		return table, err
	case DatasetPayments:
		table := tabular.Table{Name: "paiements", Columns: []string{"Date", "Facture", "Client", "Montant", "Mode"}}
		err := r.collect(ctx, paymentsDatasetSQL, org, from, to, func(rows pgx.Rows) error {
			var (
				date            *time.Time
				invoice, client *string
				total           *string
				method          string
			)
			if err := rows.Scan(&date, &invoice, &client, &total, &method); err != nil {
				return err
			}
			row, err := cells(date, invoice, client, amount(total), method)
			if err != nil {
				return err
			}
			table.Append(row...)
			return nil
		})
		return table, err
	case DatasetExpenses:
		table := tabular.Table{Name: "depenses", Columns: []string{"Date", "Référence", "Fournisseur", "Catégorie", "Montant HT", "TVA", "Statut"}}
		err := r.collect(ctx, expensesDatasetSQL, org, from, to, func(rows pgx.Rows) error {
			var (
				date                        *time.Time
				reference, supplier, family *string
				total, tax                  *string
				status                      string
			)
			if err := rows.Scan(&date, &reference, &supplier, &family, &total, &tax, &status); err != nil {
				return err
			}
			row, err := cells(date, reference, supplier, family, amount(total), amount(tax), status)
			if err != nil {
				return err
			}
			table.Append(row...)
			return nil
		})
		return table, err
	default:
		return tabular.Table{}, fmt.Errorf("exports: unknown dataset %q", ds)
	}
}

func (r *PostgresRepository) collect(ctx context.Context, query string, org uuid.UUID, from, to time.Time, scan func(pgx.Rows) error) error {
	rows, err := r.pool.Query(ctx, query, org, from, to)
	if err != nil {
		return fmt.Errorf("exports: dataset query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("exports: dataset row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("exports: dataset rows: %w", err)
	}
	return nil
}

// rawAmount marks a nullable numeric column rendered as text.
type rawAmount struct {
	value *string
}

func amount(v *string) rawAmount {
	return rawAmount{value: v}
}

// cells converts nullable scan targets into table cells.
func cells(values ...any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case *string:
			if val != nil {
				out[i] = *val
			}
		case *time.Time:
			out[i] = tabular.NullDate(val)
		case rawAmount:
			if val.value == nil {
				continue
			}
			d, err := decimal.NewFromString(*val.value)
			if err != nil {
				return nil, err
			}
			out[i] = d
		default:
			out[i] = val
		}
	}
	return out, nil
}

func parseAmounts(raw []string, dest ...*decimal.Decimal) error {
	for i, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", v, err)
		}
		*dest[i] = d
	}
	return nil
}
