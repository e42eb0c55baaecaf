package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	for raw, want := range map[string]Method{
		"CARD":          MethodCard,
		"card":          MethodCard,
		" Cash ":        MethodCash,
		"paypal":        MethodPayPal,
		"bank_transfer": MethodBankTransfer,
	} {
		got, err := ParseMethod(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "BITCOIN", "credit card"} {
		_, err := ParseMethod(raw)
		assert.ErrorIs(t, err, ErrInvalidMethod, raw)
	}
}
