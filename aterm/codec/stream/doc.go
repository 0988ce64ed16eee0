// Package stream implements a compressed bit stream of many terms that
// share one back-reference table, for dumps where consecutive terms have
// most of their structure in common.
//
// Every node is either a reference to an earlier node, stored as a signed
// delta against the second most recently used table position, or a new
// node. New nodes and references both count as uses. Numbers are written
// with exponential-Golomb codes whose order adapts per context to the
// running mean of the values seen so far; the reader tracks the same
// statistics, so no parameters are transmitted.
package stream
