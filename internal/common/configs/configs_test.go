package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDuplicateWindow(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset uses default", value: "", want: DefaultDuplicateWindow},
		{name: "valid duration", value: "90s", want: 90 * time.Second},
		{name: "invalid duration uses default", value: "soon", want: DefaultDuplicateWindow},
		{name: "negative duration uses default", value: "-1m", want: DefaultDuplicateWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DuplicateWindowEnvKey, tt.value)
			assert.Equal(t, tt.want, GetDuplicateWindow())
		})
	}
}

func TestGetKafkaBrokers(t *testing.T) {
	t.Setenv(KafkaBrokersEnvKey, "broker1:9092, broker2:9092")
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, GetKafkaBrokers())

	t.Setenv(KafkaBrokersEnvKey, "")
	assert.Nil(t, GetKafkaBrokers())
}

func TestGetPaymentsAPIMode(t *testing.T) {
	t.Setenv(PaymentsAPIModeEnvKey, "")
	t.Setenv(StripeSecretKeyEnvKey, "")
	assert.Equal(t, PaymentsAPIModeMock, GetPaymentsAPIMode())

	t.Setenv(StripeSecretKeyEnvKey, "sk_test_123")
	assert.Equal(t, PaymentsAPIModeStripe, GetPaymentsAPIMode())

	t.Setenv(PaymentsAPIModeEnvKey, PaymentsAPIModeMock)
	assert.Equal(t, PaymentsAPIModeMock, GetPaymentsAPIMode())
}

func TestGetSiteURL_TrimsTrailingSlash(t *testing.T) {
	t.Setenv(SiteURLEnvKey, "https://shop.example/")
	assert.Equal(t, "https://shop.example", GetSiteURL())
}

func TestGetManualCapture(t *testing.T) {
	t.Setenv(ManualCaptureEnvKey, "")
	assert.False(t, GetManualCapture())

	t.Setenv(ManualCaptureEnvKey, "TRUE")
	assert.True(t, GetManualCapture())
}
