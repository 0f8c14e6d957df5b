// Package evaluator drives the periodic alert cycle: it loads the recent
// measurement window, applies the threshold and ML rules, and publishes
// raised/cleared transitions to the bus.
package evaluator

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/alerts"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/api"
)

type stateKey struct {
	equipment string
	rule      string
}

// Service owns the evaluation loop. Alert state lives in memory: after a
// restart the first cycle re-raises everything still firing, which keeps the
// feed correct at the cost of duplicate raise events.
type Service struct {
	store     *api.Store
	bus       *bus.Bus
	eval      *alerts.Evaluator
	predictor *Predictor
	log       zerolog.Logger

	window   time.Duration
	interval time.Duration

	cycleMu sync.Mutex

	activeMu sync.Mutex
	active   map[stateKey]alerts.Alert
}

// NewService creates an evaluation service bound to the provided dependencies.
// The predictor may be nil.
func NewService(store *api.Store, b *bus.Bus, rules alerts.Config, predictor *Predictor, window, interval time.Duration, log zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &Service{
		store:     store,
		bus:       b,
		eval:      alerts.NewEvaluator(rules),
		predictor: predictor,
		log:       log,
		window:    window,
		interval:  interval,
		active:    make(map[stateKey]alerts.Alert),
	}, nil
}

// Run executes evaluation cycles until ctx is cancelled. The first cycle
// fires immediately.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle skips the tick when the previous cycle is still working a large
// window, rather than stacking evaluations.
func (s *Service) runCycle(ctx context.Context) {
	if !s.cycleMu.TryLock() {
		cyclesSkipped.Inc()
		s.log.Warn().Msg("previous cycle still running, skipping tick")
		return
	}
	defer s.cycleMu.Unlock()

	if err := s.Cycle(ctx, time.Now().UTC()); err != nil {
		cycleFailures.Inc()
		s.log.Error().Err(err).Msg("evaluation cycle failed")
	}
}

// Cycle runs one evaluation over the window ending at now and publishes the
// raised and cleared transitions since the previous cycle.
func (s *Service) Cycle(ctx context.Context, now time.Time) error {
	since := now.Add(-s.window)

	window, err := s.store.RecentWindow(ctx, since)
	if err != nil {
		return err
	}

	probabilities := s.predictor.Probabilities(ctx, equipmentIDs(window))

	current, evalErr := s.eval.Evaluate(window, probabilities)
	if evalErr != nil {
		s.log.Warn().Err(evalErr).Msg("some measurements were skipped during evaluation")
	}

	raised, cleared := s.transition(current)

	for _, alert := range raised {
		s.notify(alert)
		s.publish(ctx, bus.SubjectAlertsRaised, alert)
	}
	for _, alert := range cleared {
		s.log.Info().
			Str("equipment_id", alert.EquipmentID).
			Str("rule", alert.Rule).
			Msg("alert cleared")
		s.publish(ctx, bus.SubjectAlertsCleared, alert)
	}

	activeAlerts.Set(float64(len(current)))
	cyclesCompleted.Inc()

	return nil
}

// transition swaps the active set for the current one and reports which
// alerts appeared and which disappeared.
func (s *Service) transition(current []alerts.Alert) (raised, cleared []alerts.Alert) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()

	next := make(map[stateKey]alerts.Alert, len(current))
	for _, alert := range current {
		k := stateKey{alert.EquipmentID, alert.Rule}
		next[k] = alert
		if _, ok := s.active[k]; !ok {
			raised = append(raised, alert)
		}
	}

	for k, alert := range s.active {
		if _, ok := next[k]; !ok {
			cleared = append(cleared, alert)
		}
	}

	s.active = next
	return raised, cleared
}

// notify is the operator-facing sink. CRITICAL conditions log at error level
// so they page through the log pipeline.
func (s *Service) notify(alert alerts.Alert) {
	evt := s.log.Warn()
	if alert.Severity == alerts.SeverityCritical {
		evt = s.log.Error()
	}

	evt.
		Str("equipment_id", alert.EquipmentID).
		Str("rule", alert.Rule).
		Str("severity", string(alert.Severity)).
		Float64("value", alert.Value).
		Float64("threshold", alert.Threshold).
		Time("timestamp", alert.Timestamp).
		Msg(alert.Message)
}

func (s *Service) publish(ctx context.Context, subject string, alert alerts.Alert) {
	if s.bus == nil {
		return
	}

	event := map[string]any{
		"event_id": uuid.NewString(),
		"alert":    alert,
	}
	if err := s.bus.Publish(ctx, subject, event); err != nil {
		publishFailures.Inc()
		s.log.Warn().Err(err).Str("subject", subject).Msg("alert publish failed")
	}
}

func equipmentIDs(window []reading.Stored) []string {
	seen := make(map[string]struct{}, 8)
	var ids []string
	for i := range window {
		id := window[i].EquipmentID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
