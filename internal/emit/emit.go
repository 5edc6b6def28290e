// Package emit hands finished facts to an output sink. The emitter is the
// only component allowed to touch the sink, and it never does so for an
// empty batch: downstream must see absence of output, not zero-row files.
package emit

import (
	"context"

	"github.com/gyeh/pricefacts/internal/model"
)

// Sink consumes one hospital's finished facts. Implementations write one
// file or stream per hospital with the fixed column order
// hospital_id, concept_id, price_type, amount.
type Sink interface {
	Write(ctx context.Context, hospitalID int64, facts []model.PriceFact) (int64, error)
}

// Emit forwards a non-empty fact batch to the sink and returns the row
// count. An empty batch is a no-op: the sink is not called.
func Emit(ctx context.Context, hospitalID int64, facts []model.PriceFact, sink Sink) (int64, error) {
	if len(facts) == 0 {
		return 0, nil
	}
	return sink.Write(ctx, hospitalID, facts)
}
