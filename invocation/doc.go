// Package invocation holds the per-call channels between a host and a guest
// entry point: the ordered argument slots the guest reads, and the single
// return slot it may write.
//
// Both channels carry tagged payloads in the clvalue encoding. Reads of an
// argument are side-effect free; the return slot accepts exactly one value
// and validates it before accepting it.
package invocation
