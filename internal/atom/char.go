package atom

import "unicode/utf8"

// CharAtomizer atomizes the reducible region one Unicode code point at a
// time (spec §3.2, §9 "pick code points for text files and document").
// Invalid UTF-8 bytes are each treated as their own single-byte atom, so
// Atomize never fails on binary input.
type CharAtomizer struct{}

func init() {
	Register(CharAtomizer{})
}

// Name returns the registry key "char".
func (CharAtomizer) Name() string { return "char" }

// Atomize splits data into one atom per code point.
func (CharAtomizer) Atomize(data []byte) (*Testcase, error) {
	before, region, after, err := splitDDRegion(data)
	if err != nil {
		return nil, err
	}

	var parts []Atom

	pos := 0
	for pos < len(region) {
		_, size := utf8.DecodeRune(region[pos:])
		if size == 0 {
			break
		}

		parts = append(parts, Atom{Text: region[pos : pos+size]})
		pos += size
	}

	return New(simpleSegments(before, after, len(parts)), parts), nil
}
