package jobs

import (
	"context"

	"book-network-backend/internal/logger"
)

const JobPurgeExpiredTokens = "purge-expired-tokens"

// PurgeExpiredTokens deletes activation tokens that expired unvalidated before
// the configured retention window.
func (jr *JobRunner) PurgeExpiredTokens() error {
	return jr.runWithRecovery("PurgeExpiredTokens", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		retention := jr.config.TokenRetention()
		n, err := jr.services.Auth.PurgeExpiredTokens(ctx, retention)
		if err != nil {
			return err
		}
		logger.Info("Purged expired activation tokens", "count", n, "retention", retention.String())
		return nil
	})
}
