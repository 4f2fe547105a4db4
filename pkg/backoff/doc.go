// Package backoff computes exponential retry delays with jitter.
//
// The time-sync client uses it between failed SNTP queries:
//
//	b := backoff.New()
//	for {
//	    if err := query(); err == nil {
//	        b.Reset()
//	        break
//	    }
//	    if err := b.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
package backoff
