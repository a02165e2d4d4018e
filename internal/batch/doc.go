// Package batch runs many generation requests concurrently with a bounded
// number of workers, per-item retries, cooperative cancellation and progress
// reporting, and folds the per-item outcomes into one Result.
//
// A Coordinator runs at most one batch at a time. Start returns a Handle that
// owns the running batch; cancelling it stops admission of new items and
// abandons pending retries, while calls already in progress are allowed to
// finish. Items that never started are reported as cancelled failures, so a
// Result always accounts for every request.
package batch
