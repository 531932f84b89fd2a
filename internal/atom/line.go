package atom

import "bytes"

// LineAtomizer splits the reducible region on newline boundaries; each atom
// keeps its trailing newline (spec §3.1).
type LineAtomizer struct{}

func init() {
	Register(LineAtomizer{})
}

// Name returns the registry key "line".
func (LineAtomizer) Name() string { return "line" }

// Atomize splits data into one atom per line.
func (LineAtomizer) Atomize(data []byte) (*Testcase, error) {
	before, region, after, err := splitDDRegion(data)
	if err != nil {
		return nil, err
	}

	var parts []Atom

	pos := 0
	for pos < len(region) {
		nl := bytes.IndexByte(region[pos:], '\n')
		if nl < 0 {
			parts = append(parts, Atom{Text: region[pos:]})

			break
		}

		parts = append(parts, Atom{Text: region[pos : pos+nl+1]})
		pos += nl + 1
	}

	return New(simpleSegments(before, after, len(parts)), parts), nil
}
