package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(150, " inr ")
	require.NoError(t, err)
	assert.Equal(t, "INR", m.Currency)

	_, err = New(1, "RUPEE")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAdd(t *testing.T) {
	sum, err := Must(100, "INR").Add(Must(250, "INR"))
	require.NoError(t, err)
	assert.Equal(t, int64(350), sum.Amount)

	_, err = Must(100, "INR").Add(Must(100, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = Money{Amount: 1}.Add(Must(1, "INR"))
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestFromMajorAndString(t *testing.T) {
	rent, err := FromMajor(25000, "INR")
	require.NoError(t, err)
	assert.Equal(t, int64(2500000), rent.Amount)
	assert.Equal(t, int64(50000), rent.Multiply(2).Major())
	assert.Equal(t, "25000.00 INR", rent.String())
}
