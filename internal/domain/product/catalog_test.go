package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/db"
)

func TestDecodeCatalog(t *testing.T) {
	data := []byte(`[
		{"id":"aata_1","name":"Chakki Atta","price":"₹80","image":"images/aata.png","rating":4,"reviews":12,"isNew":false,"category":"Aata"},
		{"id":"imp_1","name":"Maple Syrup","price":"112$","category":"Daily Essentials","inStock":false},
		{"id":"dal_1","name":"Toor Dal","price":120.5,"currency":"INR","category":"Dal","unknown":{"nested":[1,2]}}
	]`)

	products, err := DecodeCatalog(data)
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "80", products[0].Price.String())
	assert.Equal(t, "INR", products[0].Currency)
	assert.Equal(t, 4, products[0].Rating)
	assert.True(t, products[0].InStock)

	assert.Equal(t, "112", products[1].Price.String())
	assert.Equal(t, "USD", products[1].Currency)
	assert.False(t, products[1].InStock)

	assert.Equal(t, "120.5", products[2].Price.String())
}

func TestDecodeCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"duplicate id": `[{"id":"a","name":"A","price":"1"},{"id":"a","name":"B","price":"2"}]`,
		"missing name": `[{"id":"a","price":"1"}]`,
		"bad price":    `[{"id":"a","name":"A","price":"free"}]`,
		"bad rating":   `[{"id":"a","name":"A","price":"1","rating":9}]`,
		"not array":    `{"id":"a"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCatalog([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestEmbeddedCatalog(t *testing.T) {
	products, err := DecodeCatalog(db.Catalog)
	require.NoError(t, err)
	require.Len(t, products, 62)

	var names []string
	for _, c := range Categories(products) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Sale", "New", "Aata", "Dal", "Ghee & Oils", "Spices", "Daily Essentials"}, names)

	for _, p := range products {
		assert.Equal(t, "INR", p.Currency, p.ID)
		assert.True(t, p.Price.IsPositive(), p.ID)
	}
}
