package services

import (
	"testing"
	"time"

	"wcpay-checkout/internal/common/configs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutEncryptionService_RoundTrip(t *testing.T) {
	svc := NewCheckoutEncryptionService("master-key")

	encrypted, err := svc.EncryptClientSecret("cus_123", "pi_1_secret_abc")
	require.NoError(t, err)
	assert.NotEqual(t, "pi_1_secret_abc", encrypted)
	assert.NotContains(t, encrypted, ":")

	plain, err := svc.DecryptClientSecret("cus_123", encrypted)
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_abc", plain)

	again, err := svc.EncryptClientSecret("cus_123", "pi_1_secret_abc")
	require.NoError(t, err)
	assert.NotEqual(t, encrypted, again)
}

func TestCheckoutEncryptionService_BoundToCustomer(t *testing.T) {
	svc := NewCheckoutEncryptionService("master-key")

	encrypted, err := svc.EncryptClientSecret("cus_123", "pi_1_secret_abc")
	require.NoError(t, err)

	_, err = svc.DecryptClientSecret("cus_456", encrypted)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = NewCheckoutEncryptionService("other-key").DecryptClientSecret("cus_123", encrypted)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = svc.DecryptClientSecret("cus_123", "not-base64!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNonceService_Verify(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewNonceService("nonce-secret")
	svc.now = func() time.Time { return now }

	nonce := svc.Create(configs.UpdateOrderStatusNonceAction, "42")

	assert.Len(t, nonce, nonceLength)
	assert.True(t, svc.Verify(nonce, configs.UpdateOrderStatusNonceAction, "42"))
	assert.False(t, svc.Verify(nonce, configs.UpdateOrderStatusNonceAction, "43"))
	assert.False(t, svc.Verify(nonce, "other_action", "42"))
	assert.False(t, svc.Verify("", configs.UpdateOrderStatusNonceAction, "42"))
	assert.False(t, NewNonceService("other").Verify(nonce, configs.UpdateOrderStatusNonceAction, "42"))
}

func TestNonceService_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewNonceService("nonce-secret")
	svc.now = func() time.Time { return now }

	nonce := svc.Create(configs.UpdateOrderStatusNonceAction, "42")

	svc.now = func() time.Time { return now.Add(13 * time.Hour) }
	assert.True(t, svc.Verify(nonce, configs.UpdateOrderStatusNonceAction, "42"))

	svc.now = func() time.Time { return now.Add(25 * time.Hour) }
	assert.False(t, svc.Verify(nonce, configs.UpdateOrderStatusNonceAction, "42"))
}
