// Package brk guards calls to a single downstream dependency with a circuit
// breaker composed with a bounded retry loop.
//
// The central type is Pipeline[T], built with [NewPipeline] and functional
// options. The breaker always wraps the retry loop: an open circuit rejects
// the call before any attempt is made, and the breaker records exactly one
// verdict per external call regardless of how many internal attempts ran.
package brk
