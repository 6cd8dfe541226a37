package driver

import "time"

// nowFunc is a var so tests can substitute a fixed clock if needed.
var nowFunc = time.Now
