// Package mmfile maps term files into memory for decoding.
package mmfile
