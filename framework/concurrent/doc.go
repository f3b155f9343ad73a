// Package concurrent provides small helpers for running the same
// operation across a slice of items in parallel, used when collecting
// logs from many pods and when tearing down tracked cluster resources.
package concurrent
