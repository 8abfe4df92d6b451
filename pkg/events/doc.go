// Package events holds special event packets: a header with running
// counters and a fixed array of 8-byte records.
//
// A producer allocates a packet, fills a slot through the SpecialEvent
// accessors and commits it with Validate. A consumer fetches slots with
// Event, reads them back and widens timestamps with Timestamp64. Misuse
// (out of range index, negative timestamp, validating twice) never panics:
// the call returns a sentinel error, leaves state untouched and reports to
// the packet's diag.Sink at Critical severity.
package events
