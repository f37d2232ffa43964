package state

import "context"

// ProcessedState has a successful intent that is not yet recorded on the order
type ProcessedState struct {
	base
	orders OrderService
}

func (s *ProcessedState) Complete(ctx context.Context) (State, error) {
	if err := s.orders.UpdateOrderFromSuccessfulIntent(ctx, s.pctx.OrderID(), s.pctx.Intent(), s.pctx); err != nil {
		return nil, err
	}
	return s.createState(ctx, Completed)
}
