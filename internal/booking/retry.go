package booking

import (
    "context"
    "errors"
    "time"
)

// Lock-contention retry bounds.  A lock wait timeout means another
// transaction held the session row longer than the store's limit; one or two
// retries normally succeed once the winner commits.
const (
    maxContentionRetries = 3
    contentionBackoff    = 50 * time.Millisecond
)

// retryOnContention runs fn, retrying on ErrConcurrentModification with a
// linearly growing pause.  Any other outcome is returned as-is, so retries
// stay invisible to the caller unless they are exhausted.
func retryOnContention(ctx context.Context, fn func(ctx context.Context) error) error {
    var err error
    for attempt := 1; attempt <= maxContentionRetries; attempt++ {
        err = fn(ctx)
        if !errors.Is(err, ErrConcurrentModification) {
            return err
        }
        if attempt == maxContentionRetries {
            break
        }
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(time.Duration(attempt) * contentionBackoff):
        }
    }
    return err
}
