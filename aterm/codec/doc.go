// Package codec reads and writes the shared binary term format.
//
// A file starts with a single magic byte followed by zero or more terms.
// Each term is encoded depth first; every subterm whose header is written
// gets the next term id and every symbol the next symbol id, so a repeated
// subterm costs one header byte and its id. Ids restart with every term.
//
//	buf, _ := codec.Marshal(s, t)
//	u, _ := codec.Unmarshal(other, buf)
package codec
