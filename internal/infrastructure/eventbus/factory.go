package eventbus

import (
	"wcpay-checkout/internal/common/configs"
	"wcpay-checkout/internal/common/logger"
)

// NewEventBus connects to the brokers in KAFKA_BROKERS, or localhost:19092 when unset
func NewEventBus(l logger.Logger) (EventBus, error) {
	return newKafkaEventBus(configs.GetKafkaBrokers(), l)
}
