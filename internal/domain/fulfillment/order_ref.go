package fulfillment

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const orderRefPrefix = "ORD-"

// NewOrderRef generates an order reference of the form ORD-XXXXXXXX with a
// random eight-digit uppercase hex suffix. Collisions are practically
// unreachable; the unique index on order_ref is the backstop.
func NewOrderRef() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return orderRefPrefix + strings.ToUpper(hex.EncodeToString(buf))
}
