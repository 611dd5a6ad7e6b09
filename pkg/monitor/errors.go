package monitor

import "errors"

// ErrRetriesExhausted ends the loop after MaxRetries consecutive transport failures.
var ErrRetriesExhausted = errors.New("monitor: maximum connection retries reached")
