package goImpersonate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const activityWriteTimeout = 5 * time.Second

// stampAudit assigns the record identity and timestamp immediately before a
// write.
func (e *Engine) stampAudit(rec *AuditRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = e.now().UTC()
	}
}

// recordAudit persists a lifecycle audit record synchronously and mirrors it
// to the dispatcher. Start and End call this on their own request path.
func (e *Engine) recordAudit(ctx context.Context, rec *AuditRecord) error {
	e.stampAudit(rec)
	if err := e.log.AppendAudit(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	e.audit.Emit(ctx, *rec)
	return nil
}

// recordActivityAsync persists an activity audit record off the request
// path. Failures are logged and counted, never surfaced to the request.
func (e *Engine) recordActivityAsync(rec *AuditRecord) {
	e.stampAudit(rec)
	e.audit.Emit(context.Background(), *rec)

	e.bg.Add(1)
	go func() {
		defer e.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), activityWriteTimeout)
		defer cancel()

		if err := e.log.AppendAudit(ctx, rec); err != nil {
			log.Print("goImpersonate: activity audit write failed")
			e.metricInc(MetricAuditWriteFailure)
		}
	}()
}

// QueryAudit returns audit records matching the filter, newest first.
func (e *Engine) QueryAudit(ctx context.Context, f AuditFilter) ([]*AuditRecord, error) {
	if e == nil || e.log == nil {
		return nil, ErrEngineNotReady
	}
	return e.log.QueryAudit(ctx, f)
}
