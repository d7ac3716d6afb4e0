package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownRoles(t *testing.T) {
	cases := map[Role]string{
		RoleCustomer:         "411000",
		RoleDoubtfulCustomer: "416000",
		RoleSupplier:         "401000",
		RoleVATCollected:     "445710",
		RoleVATDeductible:    "445660",
		RoleBank:             "512000",
		RoleCash:             "530000",
		RoleGoodsPurchases:   "607000",
		RoleExternalServices: "611000",
		RoleMerchandiseSales: "707000",
		RoleServiceSales:     "706000",
	}
	for role, number := range cases {
		account, ok := Lookup(role)
		require.True(t, ok, role.String())
		assert.Equal(t, number, account.Number)
		assert.NotEmpty(t, account.Label)
	}
	assert.Len(t, All(), len(cases))
}

func TestLookupUnknownRole(t *testing.T) {
	_, ok := Lookup(Role(99))
	assert.False(t, ok)
	assert.Panics(t, func() { MustLookup(Role(99)) })
}

func TestAllReturnsCopy(t *testing.T) {
	list := All()
	list[0].Number = "999999"
	assert.Equal(t, "411000", MustLookup(RoleCustomer).Number)
}
