package chain

// journal keeps the undo closures recorded by state mutations during a call.
// Entries are replayed newest first on revert.
type journal struct {
	entries []func()
}

func (j *journal) append(undo func()) {
	j.entries = append(j.entries, undo)
}

func (j *journal) snapshot() int {
	return len(j.entries)
}

func (j *journal) revertTo(id int) {
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i]()
		j.entries[i] = nil
	}
	j.entries = j.entries[:id]
}

func (j *journal) reset() {
	clear(j.entries)
	j.entries = j.entries[:0]
}
