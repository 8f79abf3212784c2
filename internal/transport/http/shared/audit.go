package shared

import (
	"net/http"

	"ets/internal/domain/audit"
	"ets/internal/platform/logging"
	"ets/internal/requestctx"
)

// RecordAudit writes an audit event for a mutation. Failures are logged only.
func RecordAudit(r *http.Request, rec audit.Recorder, actorID, action, entityType, entityID string, before, after any) {
	if rec == nil {
		return
	}
	ctx := r.Context()
	if err := rec.Record(ctx, actorID, action, entityType, entityID, requestctx.GetRequestID(ctx), ClientIP(r), before, after); err != nil {
		logging.From(ctx).Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
