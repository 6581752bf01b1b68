package jus

import "time"

// timeNow is overridden in tests that need deterministic freshness
// calculations without a full clock abstraction threaded through every
// constructor.
var timeNow = time.Now
