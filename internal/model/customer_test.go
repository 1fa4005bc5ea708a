package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		count int
		want  CustomerType
		ok    bool
	}{
		{0, "", false},
		{1, CustomerRegular, true},
		{2, CustomerRepeat, true},
		{4, CustomerRepeat, true},
		{5, CustomerVIP, true},
		{6, CustomerVIP, true},
	}
	for _, tt := range tests {
		got, ok := TierFor(tt.count)
		assert.Equal(t, tt.ok, ok, "count=%d", tt.count)
		assert.Equal(t, tt.want, got, "count=%d", tt.count)
	}
}

func TestLoyaltyPointsFor_Truncates(t *testing.T) {
	assert.Equal(t, int64(1000), LoyaltyPointsFor(MustMoney("1000")))
	assert.Equal(t, int64(1499), LoyaltyPointsFor(MustMoney("1499.99")))
	assert.Equal(t, int64(0), LoyaltyPointsFor(MustMoney("0.75")))
	assert.Equal(t, int64(0), LoyaltyPointsFor(MustMoney("-3")))
}

func TestMoney_JSONIsPlainNumber(t *testing.T) {
	out, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MustMoney("950.50")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":950.5}`, string(out))

	var in struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.30"}`), &in))
	assert.True(t, in.Amount.Equal(MustMoney("12.3")))
	require.NoError(t, json.Unmarshal([]byte(`{"amount":7}`), &in))
	assert.True(t, in.Amount.Equal(MoneyFromInt(7)))
}

func TestBookingChanges_Apply(t *testing.T) {
	b := Booking{ID: 1, Status: BookingPending, PaymentStatus: PaymentUnpaid, TotalAmount: MoneyFromInt(100)}
	confirmed := BookingConfirmed
	paid := PaymentPaid
	email := "a@example.com"

	got := BookingChanges{Status: &confirmed, PaymentStatus: &paid, Email: &email}.Apply(b)

	assert.True(t, got.Qualifies())
	assert.Equal(t, "a@example.com", got.Contact.Email)
	assert.True(t, got.TotalAmount.Equal(MoneyFromInt(100)))
	assert.False(t, b.Qualifies(), "original must not be mutated")
	assert.True(t, BookingChanges{}.Empty())
}
