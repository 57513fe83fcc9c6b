// Package extractor turns a free-text payment claim into a structured
// amount, direction and remarks triple using an external completion
// service. It is pure translation: no ledger state is touched here.
package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nihalm/duetrack/pkg/apperr"
)

// Common errors
var (
	ErrInvalidClaim = apperr.InvalidClaim("could not extract a usable amount from the message")
	ErrUnavailable  = apperr.Upstream("amount extraction service unavailable")
)

// PaidBy identifies which party made the claimed payment.
type PaidBy string

const (
	PaidByMe    PaidBy = "me"
	PaidByOther PaidBy = "other"
)

// Result is the structured form of a payment claim.
type Result struct {
	Amount  float64 `json:"amount"`
	PaidBy  PaidBy  `json:"paidBy"`
	Remarks string  `json:"remarks"`
}

// Client produces a raw completion for a system/user prompt pair. The
// extractor treats the reply as opaque text and parses it itself.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Extractor parses payment claims via a completion client.
type Extractor struct {
	client Client
}

// New creates an extractor backed by the given completion client.
func New(client Client) *Extractor {
	return &Extractor{client: client}
}

// Extract classifies a free-text claim. The reply must be strict JSON
// with a positive amount; anything else fails with an invalid-claim
// error and no side effects.
func (e *Extractor) Extract(ctx context.Context, message string) (*Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperr.Validation("message is required")
	}

	raw, err := e.client.Complete(ctx, systemPrompt, message)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}

	result, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parse decodes the model reply. Models occasionally wrap the JSON in a
// markdown fence; strip it before decoding.
func parse(raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, ErrInvalidClaim.WithCause(err)
	}

	if result.Amount <= 0 {
		return nil, ErrInvalidClaim
	}
	if result.PaidBy != PaidByOther {
		// Ambiguous direction defaults to self paid.
		result.PaidBy = PaidByMe
	}
	return &result, nil
}
