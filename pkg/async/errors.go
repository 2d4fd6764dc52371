package async

import "errors"

// ErrTimeout is returned by AwaitWithTimeout when the computation did not
// complete in time. The computation itself keeps running.
var ErrTimeout = errors.New("async: operation timed out waiting for future completion")
