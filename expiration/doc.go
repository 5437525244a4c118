// Package expiration provides pluggable validity policies for cached entries.
//
// A Policy decides whether an entry with a given absolute expiration time is
// still valid at a given moment. Policies only affect validity probes; the
// eviction scan of a strategy always works on the raw deadline.
package expiration
