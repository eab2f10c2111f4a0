// Package httpx provides a resilient HTTP client adapter for the brk
// library.
//
// Client wraps a standard http.Client with a brk pipeline and a
// user-provided status code classifier that maps HTTP response codes to
// success, retryable failure, or fatal failure. Transport-level faults and
// classified non-success statuses both count as failures toward the
// breaker; fatal statuses stop the retry loop early.
package httpx
