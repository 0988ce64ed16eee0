package afun

// hash seeds with the arity and folds every name byte with multiplier 251.
// Bytes are sign-extended, so names above ASCII hash as signed chars.
func hash(name string, arity int) uint32 {
	h := uint32(arity) * 3
	for i := 0; i < len(name); i++ {
		h = 251*h + uint32(int8(name[i]))
	}
	return h * 7
}
