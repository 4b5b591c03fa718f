package events

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gantry-sh/gantry/pkg/state"
)

// Emitter fans lifecycle events out to the structured log and, when a store
// is attached, to the state database. A zero Emitter is usable and drops
// everything.
type Emitter struct {
	RunID  string
	Logger *logrus.Entry
	Store  state.EventStore

	// Now overrides the clock for tests.
	Now func() time.Time
}

// Emit dispatches one event. Store errors are logged, never propagated: a
// failed event write must not take the supervisor down.
func (em *Emitter) Emit(event Event) {
	if em == nil {
		return
	}
	if em.Logger != nil {
		entry := em.Logger.WithFields(event.Fields())
		switch event.Severity() {
		case SeverityError:
			entry.Error(event.Message())
		case SeverityWarning:
			entry.Warn(event.Message())
		default:
			entry.Info(event.Message())
		}
	}
	if em.Store != nil {
		now := time.Now()
		if em.Now != nil {
			now = em.Now()
		}
		err := em.Store.AppendEvent(&state.Event{
			RunID:    em.RunID,
			Service:  event.Service(),
			Kind:     event.Kind(),
			Severity: event.Severity().String(),
			Message:  event.Message(),
			At:       now,
		})
		if err != nil && em.Logger != nil {
			em.Logger.WithError(err).Warn("failed to persist lifecycle event")
		}
	}
}
