package request

import (
	"errors"

	"wcpay-checkout/internal/domain/payment"
)

// Extension lets other components adjust a request before it is sent
type Extension struct {
	Name  string
	Apply func(r *CreateIntent, pctx *payment.Context) error
}

// ApplyExtensions runs every extension in order. An immutable parameter change is reported
// as is; any other failure, including leaving the request invalid, becomes an ExtendRequestError.
func ApplyExtensions(r *CreateIntent, pctx *payment.Context, extensions []Extension) error {
	for _, ext := range extensions {
		if err := ext.Apply(r, pctx); err != nil {
			var immutable *payment.ImmutableParameterError
			if errors.As(err, &immutable) {
				return err
			}
			return &payment.ExtendRequestError{Extension: ext.Name, Err: err}
		}

		if err := r.Validate(); err != nil {
			return &payment.ExtendRequestError{Extension: ext.Name, Err: err}
		}
	}
	return nil
}
