package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingProfile means the buyer has no name or email on file; the
	// caller should send them to profile completion.
	ErrMissingProfile = errors.New("profile is missing required name or email")

	// ErrOrderCreationFailed means the order and its lines could not be
	// persisted. Nothing was written; the user may retry.
	ErrOrderCreationFailed = errors.New("failed to create order")

	// ErrPaymentProvider means preference creation failed or returned no
	// redirect URL. The order stays pending and the cart is kept intact.
	ErrPaymentProvider = errors.New("payment provider error")
)

// CartInvalidError reports every offending cart line at once, in cart order,
// rather than failing on the first problem.
type CartInvalidError struct {
	Problems []string
}

func (e *CartInvalidError) Error() string {
	return fmt.Sprintf("cart is invalid: %s", strings.Join(e.Problems, "; "))
}
