package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

var ErrInvalidSignature = errors.New("stripe signature invalid")

// Verifier checks webhook signatures. With an empty secret payloads are accepted
// unverified, which is only meant for local runs.
type Verifier struct {
	Secret string
}

func (v Verifier) VerifyAndParse(payload []byte, signature string) (*stripe.Event, error) {
	if v.Secret == "" {
		return ParseEvent(payload)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &event, nil
}

// ParseEvent decodes an already verified payload, e.g. one read back from the queue.
func ParseEvent(payload []byte) (*stripe.Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}
	if event.Data == nil {
		return nil, fmt.Errorf("stripe event %s has no data", event.ID)
	}
	return &event, nil
}

// RoutingKey picks the key that keeps one donor's events in order: the customer
// id when the object has one, otherwise the object id.
func RoutingKey(event *stripe.Event) string {
	if event.Data == nil {
		return event.ID
	}
	var object struct {
		ID       string          `json:"id"`
		Customer json.RawMessage `json:"customer"`
	}
	if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
		return event.ID
	}
	if customer := expandableID(object.Customer); customer != "" {
		return customer
	}
	if object.ID != "" {
		return object.ID
	}
	return event.ID
}

// expandableID reads a field Stripe sends either as an id string or as an object.
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
