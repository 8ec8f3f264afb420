// Package pipeline scans batches of URLs concurrently.
//
// A BatchProcessor fans URLs out to a Detector with a bounded number of
// workers using errgroup. Results keep the input order, and a URL that
// fails to scan is recorded in its Result without stopping the batch.
// Every batch gets a run ID so that log lines and reports from one
// invocation can be correlated.
package pipeline
