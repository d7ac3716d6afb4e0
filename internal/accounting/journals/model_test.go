package journals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	want := map[Key]string{
		KeySales:         "Ventes",
		KeyPurchases:     "Achats",
		KeyBank:          "Banque",
		KeyCash:          "Caisse",
		KeyMiscellaneous: "Opérations Diverses",
		KeyCarryForward:  "À Nouveaux",
	}
	for key, label := range want {
		j, ok := Lookup(key)
		require.True(t, ok, string(key))
		assert.Equal(t, string(key), j.Code)
		assert.Equal(t, label, j.Label)
	}
	assert.Len(t, All(), len(want))
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("ZZ")
	assert.False(t, ok)
	assert.Panics(t, func() { MustLookup("ZZ") })
}
