package writer

// MemWriter captures encoded files in memory.
type MemWriter struct {
	Buf    []byte
	Writes int
}

// WriteTerms keeps a copy of buf, replacing any previous file.
func (w *MemWriter) WriteTerms(buf []byte) error {
	w.Buf = append(w.Buf[:0], buf...)
	w.Writes++
	return nil
}
