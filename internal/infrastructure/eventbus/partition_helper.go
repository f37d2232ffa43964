package eventbus

import (
	"fmt"
	"hash/fnv"

	"wcpay-checkout/internal/domain/events"

	"github.com/segmentio/kafka-go"
)

// PartitionKey is the message key of event. Every event of one order shares it.
func PartitionKey(event events.Event) ([]byte, error) {
	key := event.AggregateID()
	if key == "" {
		return nil, fmt.Errorf("cannot determine partition for %s: missing aggregate id", event.Type())
	}
	return []byte(key), nil
}

// AggregateBalancer is the writer balancer: it keeps every message with the same key on the
// same partition of the topic.
type AggregateBalancer struct{}

var _ kafka.Balancer = AggregateBalancer{}

func (AggregateBalancer) Balance(msg kafka.Message, partitions ...int) int {
	if len(partitions) == 0 {
		return 0
	}
	return partitions[hashKey(msg.Key)%len(partitions)]
}

func hashKey(key []byte) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() & 0x7fffffff)
}
