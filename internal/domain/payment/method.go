package payment

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMethod = errors.New("payment: invalid payment method")

// Method is how a customer settled an order.
type Method string

const (
	MethodCard         Method = "CARD"
	MethodCash         Method = "CASH"
	MethodPayPal       Method = "PAYPAL"
	MethodBankTransfer Method = "BANK_TRANSFER"
)

var methods = map[Method]struct{}{
	MethodCard:         {},
	MethodCash:         {},
	MethodPayPal:       {},
	MethodBankTransfer: {},
}

// ParseMethod matches raw against the accepted methods, ignoring case and surrounding space.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := methods[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, raw)
	}
	return m, nil
}
