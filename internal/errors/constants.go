package errors

import "time"

const flushTimeout = 2 * time.Second
