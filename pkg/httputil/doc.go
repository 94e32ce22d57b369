// Package httputil provides retry-with-backoff for transient upstream
// failures.
//
// # Retry
//
// [Retry] wraps an operation with automatic retry for transient failures.
// Only errors wrapped with [RetryableError] (via the [Retryable] helper)
// trigger another attempt; anything else is returned immediately:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    if resp.StatusCode >= 500 {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return nil
//	})
//
// Delay doubles after each failed attempt (1s, 2s, 4s, ...); a cancelled
// context aborts the wait immediately. [RetryWithBackoff] is a shorthand
// for 3 attempts starting at a 1 second delay.
package httputil
