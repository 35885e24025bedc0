package lifecycle

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/models"
)

// waitRunning polls name at a fixed interval until it reports running, the
// attempt budget runs out or ctx ends.
func (o *Orchestrator) waitRunning(ctx context.Context, name string) error {
	attempts := 0
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.opts.PollInterval), uint64(o.opts.PollAttempts-1)),
		ctx,
	)

	err := backoff.RetryNotify(func() error {
		attempts++
		st, err := o.runtime.Inspect(ctx, name)
		if err != nil {
			return err
		}
		if !st.Running {
			return models.NewError(models.KindRuntimeOperation, "container %q is %s", name, st.Status)
		}
		return nil
	}, b, func(err error, next time.Duration) {
		o.logger.Debug("waiting for container",
			zap.String("name", name),
			zap.Int("attempt", attempts),
			zap.Duration("next", next),
			zap.Error(err),
		)
	})
	if err != nil {
		return models.WrapError(models.KindRuntimeOperation, err, "container %q not running after %d attempts", name, attempts)
	}
	return nil
}
