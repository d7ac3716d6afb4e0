// Package accounts holds the fixed chart-of-accounts roles used by the ledger exports.
package accounts

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Role names the semantic purpose of a general ledger account.
type Role int

const (
	RoleCustomer Role = iota + 1
	RoleDoubtfulCustomer
	RoleSupplier
	RoleVATCollected
	RoleVATDeductible
	RoleBank
	RoleCash
	RoleGoodsPurchases
	RoleExternalServices
	RoleMerchandiseSales
	RoleServiceSales
)

// Account models a chart of accounts node.
type Account struct {
	Number string
	Label  string
	Type   AccountType
}

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool {
	return a.Number == ""
}

var roleNames = map[Role]string{
	RoleCustomer:         "customer",
	RoleDoubtfulCustomer: "doubtful_customer",
	RoleSupplier:         "supplier",
	RoleVATCollected:     "vat_collected",
	RoleVATDeductible:    "vat_deductible",
	RoleBank:             "bank",
	RoleCash:             "cash",
	RoleGoodsPurchases:   "goods_purchases",
	RoleExternalServices: "external_services",
	RoleMerchandiseSales: "merchandise_sales",
	RoleServiceSales:     "service_sales",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}
