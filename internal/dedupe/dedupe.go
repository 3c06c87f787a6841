package dedupe

// Package dedupe provides the shared singleflight group used to collapse
// concurrent resolution sweeps. processDue is request-triggered, so two
// page loads by the same player can race into the same batch of due
// operations; the per-operation transactions make the race harmless, but
// collapsing the duplicate sweep avoids burning a transaction just to
// discover every operation was already claimed.

import "golang.org/x/sync/singleflight"

// ProcessDueGroup deduplicates concurrent processDue sweeps keyed by the
// requesting user's id.
var ProcessDueGroup singleflight.Group
