package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is one run of a periodic task.
type Job func(ctx context.Context) error

// Every runs job at each interval until ctx is done. A failed run is logged
// and the next tick runs again.
func Every(ctx context.Context, name string, interval time.Duration, job Job) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Str("job", name).Dur("interval", interval).Msg("worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("job", name).Msg("worker stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if err := job(ctx); err != nil {
				log.Error().Err(err).Str("job", name).Msg("worker run failed")
				continue
			}
			log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("worker run finished")
		}
	}
}

// AuditPruner deletes audit entries older than a cutoff.
type AuditPruner interface {
	Prune(ctx context.Context, before int64) (int64, error)
}

// PruneAuditLogs removes entries older than retention.
func PruneAuditLogs(p AuditPruner, retention time.Duration) Job {
	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-retention).Unix()
		n, err := p.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int64("deleted", n).Int64("before", cutoff).Msg("pruned audit logs")
		}
		return nil
	}
}
