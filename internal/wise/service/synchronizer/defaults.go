package synchronizer

import "time"

const (
	defaultConcurrency     = 4
	defaultHistoryPageSize = 1000

	// One Steem block every three seconds.
	defaultPollInterval = 3 * time.Second

	defaultRetryTimeout = 5 * time.Minute
	retryBackoffFactor  = 500 * time.Millisecond
	retryMaxBackoff     = 30 * time.Second

	journalBatcherSize          = 500
	journalBatcherFlushInterval = 5 * time.Second
	journalBatcherRPS           = 20
)
