package partner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParty(t *testing.T) {
	t.Run("creates active registered customer", func(t *testing.T) {
		p, err := NewParty(PartyTypeCustomer, " Acme Traders ", "Karnataka", true)
		require.NoError(t, err)
		assert.Equal(t, "Acme Traders", p.Name)
		assert.True(t, p.IsActive)
		assert.Equal(t, GSTRegistered, p.GSTRegistrationStatus)
		assert.Equal(t, DefaultCreditDays, p.CreditDays)
	})

	t.Run("unregistered when gst disabled", func(t *testing.T) {
		p, err := NewParty(PartyTypeVendor, "Local Supplier", "Kerala", false)
		require.NoError(t, err)
		assert.Equal(t, GSTUnregistered, p.GSTRegistrationStatus)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewParty(PartyTypeCustomer, "  ", "Kerala", true)
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewParty(PartyType("employee"), "Bob", "Kerala", true)
		assert.Error(t, err)
	})
}

func TestParsePartyType(t *testing.T) {
	got, err := ParsePartyType("Customer")
	require.NoError(t, err)
	assert.Equal(t, PartyTypeCustomer, got)

	_, err = ParsePartyType("other")
	assert.Error(t, err)
}

func TestParty_DeactivateKeepsTradeRole(t *testing.T) {
	p, err := NewParty(PartyTypeVendor, "Supplier", "Goa", true)
	require.NoError(t, err)

	p.Deactivate()
	assert.False(t, p.IsActive)
	assert.True(t, p.CanTrade(PartyTypeVendor))
	assert.False(t, p.CanTrade(PartyTypeCustomer))
}

func TestParty_EffectiveCreditDays(t *testing.T) {
	p := &Party{CreditDays: 0}
	assert.Equal(t, DefaultCreditDays, p.EffectiveCreditDays())
	p.CreditDays = 15
	assert.Equal(t, 15, p.EffectiveCreditDays())
}
