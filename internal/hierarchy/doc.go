// Package hierarchy turns flat element/parent/operator/multiplier rows into
// a validated forest of report-structure nodes.
//
// A Builder moves through Empty, Building and then Valid or Invalid. Only a
// Valid build yields a Forest; a Forest is immutable and safe for concurrent
// readers, so one build can serve any number of rollups.
package hierarchy
