// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly calls to the
// judge-platform API.
//
// Retrying stops at whichever bound is hit first: the attempt count
// (MaxAttempts) or the total time budget (MaxElapsedTime). Each wait is
// counted against the time budget before it is taken, so a retry never
// starts a wait it cannot afford.
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.Ping()
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts:    10,
//		MaxElapsedTime: 60 * time.Second,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    1 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	page, err := retry.DoWithResult(fetchPage, cfg)
//
// The default retry predicate retries network, rate-limit and server errors
// and gives up immediately on parsing, checkpoint and storage errors.
package retry
