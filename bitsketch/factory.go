package bitsketch

// Factory produces fresh, empty BitSketches all sharing the same
// (ksize, tablesize, n_tables) parameters. A Factory is immutable and
// freely shareable across goroutines.
type Factory struct {
	Ksize     uint32
	Tablesize uint64
	NTables   uint32
}

// NewFactory returns a Factory bound to the given parameters.
func NewFactory(ksize uint32, tablesize uint64, nTables uint32) *Factory {
	return &Factory{Ksize: ksize, Tablesize: tablesize, NTables: nTables}
}

// New returns a fresh, empty BitSketch.
func (f *Factory) New() *BitSketch {
	return newBitSketch(f.Ksize, f.Tablesize, f.NTables)
}

// Compatible reports whether other was built by an equivalent factory.
func (f *Factory) Compatible(other *Factory) bool {
	return f.Ksize == other.Ksize && f.Tablesize == other.Tablesize && f.NTables == other.NTables
}
