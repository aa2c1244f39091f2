package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Insufficient funds", T("en", ErrorKey("INSUFFICIENT_FUNDS")))
	assert.Equal(t, "Saldo insuficiente", T("es", ErrorKey("INSUFFICIENT_FUNDS")))
	assert.Equal(t, "Invalid amount", T("en", KeyValidationInvalid, "amount"))

	// unknown language falls back to English
	assert.Equal(t, "Wallet not found", T("fr", ErrorKey("WALLET_NOT_FOUND")))

	// unknown key is returned as is
	assert.Equal(t, "missing.key", T("en", "missing.key"))

	assert.ElementsMatch(t, []string{"en", "es"}, GetSupportedLanguages())
}
