// Package journals holds the fixed registry of accounting journals.
package journals

// Key identifies a journal in the registry.
type Key string

const (
	KeySales         Key = "VE"
	KeyPurchases     Key = "AC"
	KeyBank          Key = "BQ"
	KeyCash          Key = "CA"
	KeyMiscellaneous Key = "OD"
	KeyCarryForward  Key = "AN"
)

// Journal is a named ledger partition.
type Journal struct {
	Code  string
	Label string
}

var registry = [...]Journal{
	{Code: string(KeySales), Label: "Ventes"},
	{Code: string(KeyPurchases), Label: "Achats"},
	{Code: string(KeyBank), Label: "Banque"},
	{Code: string(KeyCash), Label: "Caisse"},
	{Code: string(KeyMiscellaneous), Label: "Opérations Diverses"},
	{Code: string(KeyCarryForward), Label: "À Nouveaux"},
}

// Lookup resolves a journal by key.
func Lookup(key Key) (Journal, bool) {
	for _, j := range registry {
		if j.Code == string(key) {
			return j, true
		}
	}
	return Journal{}, false
}

// MustLookup resolves a journal and panics when the key is not registered.
func MustLookup(key Key) Journal {
	j, ok := Lookup(key)
	if !ok {
		panic("journals: unknown key " + string(key))
	}
	return j
}

// All lists the registry in declaration order.
func All() []Journal {
	out := make([]Journal, len(registry))
	copy(out, registry[:])
	return out
}
