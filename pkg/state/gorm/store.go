package gorm

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gantry-sh/gantry/pkg/state"
)

// Ensure Store implements state.Store
var _ state.Store = (*Store)(nil)

// Store implements state.Store using GORM.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateRun records a new run with outcome running.
func (s *Store) CreateRun(run *state.Run) error {
	if run.Outcome == "" {
		run.Outcome = state.OutcomeRunning
	}
	return s.db.Create(&runRecord{
		ID:        run.ID,
		StackPath: run.StackPath,
		StartedAt: run.StartedAt,
		Outcome:   run.Outcome,
		Error:     run.Error,
	}).Error
}

// FinishRun closes a run with its outcome and optional error text.
func (s *Store) FinishRun(runID, outcome, errText string, finishedAt time.Time) error {
	tx := s.db.Model(&runRecord{}).Where("id = ?", runID).Updates(map[string]interface{}{
		"finished_at": finishedAt,
		"outcome":     outcome,
		"error":       errText,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return state.ErrRunNotFound
	}
	return nil
}

// GetRun fetches one run.
func (s *Store) GetRun(runID string) (*state.Run, error) {
	var rec runRecord
	tx := s.db.Where("id = ?", runID).First(&rec)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, state.ErrRunNotFound
		}
		return nil, tx.Error
	}
	return runFromRecord(&rec), nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun() (*state.Run, error) {
	var rec runRecord
	tx := s.db.Order("started_at desc").First(&rec)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, state.ErrRunNotFound
		}
		return nil, tx.Error
	}
	return runFromRecord(&rec), nil
}

// ListRuns returns runs most recent first, at most limit.
func (s *Store) ListRuns(limit int) ([]state.Run, error) {
	var recs []runRecord
	tx := s.db.Order("started_at desc").Limit(limit).Find(&recs)
	if tx.Error != nil {
		return nil, tx.Error
	}
	runs := make([]state.Run, 0, len(recs))
	for i := range recs {
		runs = append(runs, *runFromRecord(&recs[i]))
	}
	return runs, nil
}

// UpsertServiceState records the current state of a service in a run.
func (s *Store) UpsertServiceState(st *state.ServiceState) error {
	rec := serviceStateRecord{
		RunID:     st.RunID,
		Service:   st.Service,
		Status:    st.Status.String(),
		PID:       st.PID,
		ExitCode:  st.ExitCode,
		Error:     st.Error,
		UpdatedAt: st.UpdatedAt,
	}
	tx := s.db.Model(&serviceStateRecord{}).
		Where("run_id = ? AND service = ?", st.RunID, st.Service).
		Updates(map[string]interface{}{
			"status":     rec.Status,
			"pid":        rec.PID,
			"exit_code":  rec.ExitCode,
			"error":      rec.Error,
			"updated_at": rec.UpdatedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return s.db.Create(&rec).Error
	}
	return nil
}

// ListServiceStates returns the states of a run ordered by service name.
func (s *Store) ListServiceStates(runID string) ([]state.ServiceState, error) {
	var recs []serviceStateRecord
	tx := s.db.Where("run_id = ?", runID).Order("service").Find(&recs)
	if tx.Error != nil {
		return nil, tx.Error
	}
	states := make([]state.ServiceState, 0, len(recs))
	for _, rec := range recs {
		status, err := state.StatusString(rec.Status)
		if err != nil {
			return nil, err
		}
		states = append(states, state.ServiceState{
			RunID:     rec.RunID,
			Service:   rec.Service,
			Status:    status,
			PID:       rec.PID,
			ExitCode:  rec.ExitCode,
			Error:     rec.Error,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return states, nil
}

// RecordProbeAttempt appends one attempt.
func (s *Store) RecordProbeAttempt(a *state.ProbeAttempt) error {
	return s.db.Create(&probeAttemptRecord{
		RunID:     a.RunID,
		Service:   a.Service,
		Attempt:   a.Attempt,
		Success:   a.Success,
		Error:     a.Error,
		ElapsedMs: a.Elapsed.Milliseconds(),
		At:        a.At,
	}).Error
}

// ListProbeAttempts returns the attempts for a run in order, optionally
// filtered to one service.
func (s *Store) ListProbeAttempts(runID, service string) ([]state.ProbeAttempt, error) {
	query := s.db.Where("run_id = ?", runID)
	if service != "" {
		query = query.Where("service = ?", service)
	}
	var recs []probeAttemptRecord
	tx := query.Order("id").Find(&recs)
	if tx.Error != nil {
		return nil, tx.Error
	}
	attempts := make([]state.ProbeAttempt, 0, len(recs))
	for _, rec := range recs {
		attempts = append(attempts, state.ProbeAttempt{
			RunID:   rec.RunID,
			Service: rec.Service,
			Attempt: rec.Attempt,
			Success: rec.Success,
			Error:   rec.Error,
			Elapsed: time.Duration(rec.ElapsedMs) * time.Millisecond,
			At:      rec.At,
		})
	}
	return attempts, nil
}

// AppendEvent appends one event.
func (s *Store) AppendEvent(e *state.Event) error {
	rec := eventRecord{
		RunID:    e.RunID,
		Service:  e.Service,
		Kind:     e.Kind,
		Severity: e.Severity,
		Message:  e.Message,
		At:       e.At,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return err
	}
	e.ID = rec.ID
	return nil
}

// ListEvents returns a run's events in append order.
func (s *Store) ListEvents(runID string) ([]state.Event, error) {
	var recs []eventRecord
	tx := s.db.Where("run_id = ?", runID).Order("id").Find(&recs)
	if tx.Error != nil {
		return nil, tx.Error
	}
	events := make([]state.Event, 0, len(recs))
	for _, rec := range recs {
		events = append(events, state.Event{
			ID:       rec.ID,
			RunID:    rec.RunID,
			Service:  rec.Service,
			Kind:     rec.Kind,
			Severity: rec.Severity,
			Message:  rec.Message,
			At:       rec.At,
		})
	}
	return events, nil
}

// CheckConnectivity verifies database connectivity.
func (s *Store) CheckConnectivity() error {
	return s.db.Exec("SELECT 1").Error
}

func runFromRecord(rec *runRecord) *state.Run {
	return &state.Run{
		ID:         rec.ID,
		StackPath:  rec.StackPath,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Outcome:    rec.Outcome,
		Error:      rec.Error,
	}
}
