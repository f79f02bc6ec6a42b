package app

import "context"

// Payer is the abstract payment rail. How funds actually move (internal
// wallet credit, external transfer) is outside the core; a failed Pay
// aborts the surrounding transaction.
type Payer interface {
	Pay(ctx context.Context, identity string, amount int64) error
}
