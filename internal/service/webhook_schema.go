package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/target/escrow-api/internal/domain/model"
)

// Shapes of the data.object fields each handler reads. Anything else the
// processor sends is ignored.
const (
	paymentIntentSchema = `{
		"type": "object",
		"required": ["id", "object", "status", "amount"],
		"properties": {
			"id": {"type": "string", "pattern": "^pi_"},
			"object": {"const": "payment_intent"},
			"status": {"type": "string"},
			"amount": {"type": "integer", "minimum": 0},
			"amount_received": {"type": "integer", "minimum": 0},
			"last_payment_error": {"type": ["object", "null"]}
		}
	}`
	chargeSchema = `{
		"type": "object",
		"required": ["id", "object", "payment_intent", "amount", "amount_refunded"],
		"properties": {
			"id": {"type": "string", "pattern": "^(ch|py)_"},
			"object": {"const": "charge"},
			"payment_intent": {"type": "string", "pattern": "^pi_"},
			"amount": {"type": "integer", "minimum": 0},
			"amount_refunded": {"type": "integer", "minimum": 0},
			"refunded": {"type": "boolean"}
		}
	}`
	transferSchema = `{
		"type": "object",
		"required": ["id", "object", "amount", "destination"],
		"properties": {
			"id": {"type": "string", "pattern": "^tr_"},
			"object": {"const": "transfer"},
			"amount": {"type": "integer", "minimum": 0},
			"amount_reversed": {"type": "integer", "minimum": 0},
			"destination": {"type": ["string", "object"]},
			"reversed": {"type": "boolean"}
		}
	}`
	payoutSchema = `{
		"type": "object",
		"required": ["id", "object", "status"],
		"properties": {
			"id": {"type": "string", "pattern": "^po_"},
			"object": {"const": "payout"},
			"status": {"type": "string"},
			"arrival_date": {"type": "integer"},
			"failure_message": {"type": ["string", "null"]}
		}
	}`
	accountSchema = `{
		"type": "object",
		"required": ["id", "object"],
		"properties": {
			"id": {"type": "string", "pattern": "^acct_"},
			"object": {"const": "account"},
			"charges_enabled": {"type": "boolean"},
			"payouts_enabled": {"type": "boolean"},
			"capabilities": {"type": "object"}
		}
	}`
	applicationSchema = `{
		"type": "object",
		"required": ["id"],
		"properties": {
			"id": {"type": "string"}
		}
	}`
)

// eventSchemas validates event objects by event type.
type eventSchemas map[model.EventType]*jsonschema.Schema

func compileEventSchemas() (eventSchemas, error) {
	sources := map[string]string{
		"payment_intent.json": paymentIntentSchema,
		"charge.json":         chargeSchema,
		"transfer.json":       transferSchema,
		"payout.json":         payoutSchema,
		"account.json":        accountSchema,
		"application.json":    applicationSchema,
	}
	compiler := jsonschema.NewCompiler()
	for name, src := range sources {
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(sources))
	for name := range sources {
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		compiled[name] = schema
	}

	return eventSchemas{
		model.EventHoldCapturable:      compiled["payment_intent.json"],
		model.EventHoldSucceeded:       compiled["payment_intent.json"],
		model.EventHoldFailed:          compiled["payment_intent.json"],
		model.EventHoldCanceled:        compiled["payment_intent.json"],
		model.EventChargeRefunded:      compiled["charge.json"],
		model.EventTransferCreated:     compiled["transfer.json"],
		model.EventTransferUpdated:     compiled["transfer.json"],
		model.EventTransferReversed:    compiled["transfer.json"],
		model.EventPayoutPaid:          compiled["payout.json"],
		model.EventPayoutFailed:        compiled["payout.json"],
		model.EventAccountUpdated:      compiled["account.json"],
		model.EventAccountDeauthorized: compiled["application.json"],
	}, nil
}

// validate checks raw against the schema for t. Types without a schema pass.
func (s eventSchemas) validate(t model.EventType, raw json.RawMessage) error {
	schema, ok := s[t]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode event object: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("event object does not match schema: %w", err)
	}
	return nil
}
