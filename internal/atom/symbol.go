package atom

import "bytes"

// symbolDelimiters is the delimiter set from spec §3.4.
var symbolDelimiters = []byte("{}()[],;\n")

func isSymbolDelimiter(b byte) bool {
	return bytes.IndexByte(symbolDelimiters, b) >= 0
}

// SymbolAtomizer splits the reducible region on a fixed set of ASCII
// delimiters, preserving delimiters as atom boundaries: each atom is the
// run of non-delimiter bytes before a delimiter together with that
// delimiter (spec §3.4). A delimiter that directly follows another
// delimiter forms an atom on its own, and any bytes after the last
// delimiter form a final atom.
type SymbolAtomizer struct{}

func init() {
	Register(SymbolAtomizer{})
}

// Name returns the registry key "symbol".
func (SymbolAtomizer) Name() string { return "symbol" }

// Atomize splits data on delimiter boundaries. DDBEGIN/DDEND are not
// recognized here: spec §6.4 restricts marker handling to the atomizers
// that work at line granularity and the Char atomizer, which Symbol is
// neither.
func (SymbolAtomizer) Atomize(data []byte) (*Testcase, error) {
	var parts []Atom

	start := 0
	for i := 0; i < len(data); i++ {
		if isSymbolDelimiter(data[i]) {
			if i+1 > start {
				parts = append(parts, Atom{Text: data[start : i+1]})
			}

			start = i + 1
		}
	}

	if start < len(data) {
		parts = append(parts, Atom{Text: data[start:]})
	}

	return New(simpleSegments(nil, nil, len(parts)), parts), nil
}
