package bmc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default pacing for the post-restart settings poll. BIOS config jobs on
// rack servers routinely take several minutes including the reboot.
const (
	DefaultJobInterval = 15 * time.Second
	DefaultJobTimeout  = 10 * time.Minute
)

// PollFunc reports whether the asynchronous job has completed. Returning an
// error aborts the wait immediately.
type PollFunc func(ctx context.Context) (done bool, err error)

var errJobPending = errors.New("job has not completed")

// WaitForJob polls at a fixed interval until poll reports completion, poll
// fails, or the deadline expires. The final state is returned as the error:
// nil for completion, a wrapped timeout or poll error otherwise.
func WaitForJob(ctx context.Context, interval, timeout time.Duration, poll PollFunc) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	operation := func() error {
		done, err := poll(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errJobPending
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.NewConstantBackOff(interval), ctx))
	if err != nil {
		if errors.Is(err, errJobPending) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("job did not complete within %s: %w", timeout, err)
		}
		return fmt.Errorf("job polling failed: %w", err)
	}
	return nil
}
