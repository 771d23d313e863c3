package schema

import "time"

const PaymentEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.payments",
	"name": "payment_event",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "intent_id", "type": "string"},
		{"name": "type", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "amount", "type": "long"},
		{"name": "currency", "type": "string"},
		{"name": "email", "type": "string"},
		{"name": "customer_name", "type": "string"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type PaymentEventV1 struct {
	EventID      string    `avro:"event_id"`
	IntentID     string    `avro:"intent_id"`
	Type         string    `avro:"type"`
	Status       string    `avro:"status"`
	Amount       int64     `avro:"amount"`
	Currency     string    `avro:"currency"`
	Email        string    `avro:"email"`
	CustomerName string    `avro:"customer_name"`
	OccurredAt   time.Time `avro:"occurred_at"`
}
