// Package initseq parses and replays controller initialization programs.
//
// Vendors ship init programs as a flat list of integers where negative
// values are markers:
//
//	-1, cmd, data...   send command cmd followed by its data bytes
//	-2, ms             sleep for ms milliseconds
//	-3                 end of program
//
// Parse turns such a stream into a Sequence of Command and Delay values once,
// at configuration time. A malformed stream is rejected as a whole, so a
// driver never starts sending half a program.
package initseq
