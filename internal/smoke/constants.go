package smoke

import "time"

// Defaults applied by Config.withDefaults.
const (
	DefaultBaseURL     = "http://localhost:5000"
	DefaultSets        = 1000
	DefaultMaxSubjects = 8
	DefaultTimeout     = 10 * time.Second
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)
