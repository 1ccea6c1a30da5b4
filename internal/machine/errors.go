package machine

import "errors"

// ErrNoMemForCall is reported to stderr when a procedure call is attempted
// with a full call stack. It never stops the run: the call is simply
// skipped and the thread continues at the instruction after it.
var ErrNoMemForCall = errors.New("no mem for call")
