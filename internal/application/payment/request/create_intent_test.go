package request

import (
	"errors"
	"testing"

	"wcpay-checkout/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest(t *testing.T) *CreateIntent {
	t.Helper()
	r := NewCreateIntent()
	require.NoError(t, r.SetAmount(1000))
	require.NoError(t, r.SetCurrency("USD"))
	require.NoError(t, r.SetCustomer("cus_123"))
	require.NoError(t, r.SetPaymentMethod("pm_123"))
	return r
}

func TestCreateIntent_Setters(t *testing.T) {
	r := validRequest(t)

	assert.Equal(t, int64(1000), r.Amount())
	assert.Equal(t, "usd", r.Currency())
	assert.Equal(t, "cus_123", r.Customer())
	assert.Equal(t, "pm_123", r.PaymentMethod())
	assert.False(t, r.IsSetup())
	assert.NoError(t, r.Validate())
}

func TestCreateIntent_InvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		apply func(r *CreateIntent) error
		param string
	}{
		{name: "negative amount", apply: func(r *CreateIntent) error { return r.SetAmount(-1) }, param: ParamAmount},
		{name: "bad currency", apply: func(r *CreateIntent) error { return r.SetCurrency("dollars") }, param: ParamCurrency},
		{name: "bad customer", apply: func(r *CreateIntent) error { return r.SetCustomer("123") }, param: ParamCustomer},
		{name: "empty payment method", apply: func(r *CreateIntent) error { return r.SetPaymentMethod("") }, param: ParamPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.apply(NewCreateIntent())

			var invalid *payment.InvalidRequestParameterError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.param, invalid.Param)
		})
	}
}

func TestCreateIntent_ImmutableParameter(t *testing.T) {
	r := validRequest(t)

	assert.NoError(t, r.SetAmount(1000), "setting the same value again is allowed")

	var immutable *payment.ImmutableParameterError
	require.ErrorAs(t, r.SetAmount(2000), &immutable)
	assert.Equal(t, ParamAmount, immutable.Param)
	assert.Equal(t, int64(1000), r.Amount())

	assert.NoError(t, r.SetDescription("first"))
	assert.NoError(t, r.SetDescription("second"), "description is mutable")
}

func TestCreateIntent_ValidateMissing(t *testing.T) {
	r := NewCreateIntent()
	require.NoError(t, r.SetAmount(0))

	var invalid *payment.InvalidRequestParameterError
	require.ErrorAs(t, r.Validate(), &invalid)
	assert.Equal(t, ParamCurrency, invalid.Param)
	assert.True(t, r.IsSetup())
}

func TestApplyExtensions(t *testing.T) {
	pctx := payment.NewContext(42)

	t.Run("extension adjusts mutable params", func(t *testing.T) {
		r := validRequest(t)
		err := ApplyExtensions(r, pctx, []Extension{{
			Name: "description",
			Apply: func(r *CreateIntent, pctx *payment.Context) error {
				r.AddMetadata("source", "checkout")
				return r.SetDescription("Order 42")
			},
		}})

		assert.NoError(t, err)
		assert.Equal(t, "Order 42", r.Description())
		assert.Equal(t, "checkout", r.Metadata()["source"])
	})

	t.Run("extension changing an immutable param", func(t *testing.T) {
		r := validRequest(t)
		err := ApplyExtensions(r, pctx, []Extension{{
			Name:  "discount",
			Apply: func(r *CreateIntent, pctx *payment.Context) error { return r.SetAmount(1) },
		}})

		var immutable *payment.ImmutableParameterError
		assert.ErrorAs(t, err, &immutable)
	})

	t.Run("failing extension", func(t *testing.T) {
		r := validRequest(t)
		err := ApplyExtensions(r, pctx, []Extension{{
			Name:  "broken",
			Apply: func(r *CreateIntent, pctx *payment.Context) error { return errors.New("boom") },
		}})

		var extendErr *payment.ExtendRequestError
		require.ErrorAs(t, err, &extendErr)
		assert.Equal(t, "broken", extendErr.Extension)
	})
}
