package accounts

import "fmt"

// French Plan Comptable Général accounts, classes 4 to 7.
var chart = [...]struct {
	role    Role
	account Account
}{
	{RoleCustomer, Account{Number: "411000", Label: "Clients", Type: AccountTypeAsset}},
	{RoleDoubtfulCustomer, Account{Number: "416000", Label: "Clients douteux", Type: AccountTypeAsset}},
	{RoleSupplier, Account{Number: "401000", Label: "Fournisseurs", Type: AccountTypeLiability}},
	{RoleVATCollected, Account{Number: "445710", Label: "TVA collectée", Type: AccountTypeLiability}},
	{RoleVATDeductible, Account{Number: "445660", Label: "TVA déductible sur ABS", Type: AccountTypeAsset}},
	{RoleBank, Account{Number: "512000", Label: "Banque", Type: AccountTypeAsset}},
	{RoleCash, Account{Number: "530000", Label: "Caisse", Type: AccountTypeAsset}},
	{RoleGoodsPurchases, Account{Number: "607000", Label: "Achats de marchandises", Type: AccountTypeExpense}},
	{RoleExternalServices, Account{Number: "611000", Label: "Sous-traitance générale", Type: AccountTypeExpense}},
	{RoleMerchandiseSales, Account{Number: "707000", Label: "Ventes de marchandises", Type: AccountTypeRevenue}},
	{RoleServiceSales, Account{Number: "706000", Label: "Prestations de services", Type: AccountTypeRevenue}},
}

// Lookup returns the account bound to role.
func Lookup(role Role) (Account, bool) {
	for _, item := range chart {
		if item.role == role {
			return item.account, true
		}
	}
	return Account{}, false
}

// MustLookup returns the account bound to role and panics on unknown roles.
func MustLookup(role Role) Account {
	account, ok := Lookup(role)
	if !ok {
		panic(fmt.Sprintf("accounts: no account for role %d", role))
	}
	return account
}

// All lists every account of the chart in declaration order.
func All() []Account {
	out := make([]Account, 0, len(chart))
	for _, item := range chart {
		out = append(out, item.account)
	}
	return out
}
