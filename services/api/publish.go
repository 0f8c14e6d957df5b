package api

import (
	"context"
	"time"
)

// publishJSON emits an event to the bus on a best-effort basis. Persistence
// already succeeded by the time this runs; a publish failure is logged, not
// surfaced to the producer.
func (a *API) publishJSON(subject string, payload any) {
	if a.store.Bus == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := a.store.Bus.Publish(ctx, subject, payload); err != nil {
		a.log.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}
