package archive

import (
	"context"
	"time"

	"replicator/pkg/logx"
	"replicator/pkg/metrics"
	"replicator/pkg/workflow"
)

var retryLogger = logx.NewLogger("archive")

// RetryPending re-attempts every previously failed archive call once and
// returns the rebuilt error list: records that succeeded are dropped, records
// that failed again are kept with their error text refreshed.
//
// Records without a usable stage id are preserved untouched and never retried;
// silently retrying malformed data would mask it.
func RetryPending(ctx context.Context, state *workflow.State, archiver Archiver) []workflow.ArchiveErrorRecord {
	if len(state.ArchiveErrors) == 0 {
		return nil
	}

	remaining := make([]workflow.ArchiveErrorRecord, 0, len(state.ArchiveErrors))
	for _, rec := range state.ArchiveErrors {
		if rec.StageID == "" {
			retryLogger.Warn("archive error record without stage id preserved, not retried")
			remaining = append(remaining, rec)
			continue
		}

		if err := archiver.ArchiveStage(ctx, state, rec.StageID); err != nil {
			retryLogger.Warn("archive retry for stage %s failed again: %v", rec.StageID, err)
			metrics.ArchiveRetries.WithLabelValues("failure").Inc()
			remaining = append(remaining, workflow.ArchiveErrorRecord{
				StageID:   rec.StageID,
				Error:     err.Error(),
				Timestamp: time.Now().UTC(),
			})
			continue
		}

		retryLogger.Info("archive retry for stage %s succeeded", rec.StageID)
		metrics.ArchiveRetries.WithLabelValues("success").Inc()
	}

	return remaining
}

// NewFailure builds an error record for a freshly failed archive call, using
// the same record shape the retry path consumes.
func NewFailure(stageID string, err error) workflow.ArchiveErrorRecord {
	return workflow.ArchiveErrorRecord{
		StageID:   stageID,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
