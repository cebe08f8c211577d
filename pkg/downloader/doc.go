// Package downloader drives the sequential page fetch loop over the KFDA
// food API.
//
// The loop is an explicit three-state machine (fetching, done, aborted)
// with a bounded per-page attempt ceiling. Failures are handled per page:
// transport and auth failures back off linearly, unexpected result codes
// back off by a fixed delay, and the in-band rate limit signal waits a
// long fixed period before retrying the same page. Exhausting the ceiling
// aborts the run but keeps everything accumulated so far; partial results
// are an intentional outcome, not an error.
//
// Example usage:
//
//	client, _ := api.New(api.DefaultConfig(serviceKey))
//	dl := downloader.New(client, downloader.DefaultConfig())
//	result, err := dl.Run(ctx)
//
// Fetching is strictly sequential: one request outstanding at a time,
// with a courtesy delay between pages.
package downloader
