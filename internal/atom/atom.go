// Package atom implements the Testcase model: the mutable sequence of
// removable atoms a reduction strategy operates on, and the atomizers that
// carve an input file into atoms (spec §3, §4.1).
package atom

// Atom is the unit of removal. It is an opaque byte slice; the engine never
// inspects its content except by comparing bytes (the bracket matching of
// the balanced-pair and collapse-brace strategies).
type Atom struct {
	Text []byte
}

// Equal reports whether two atoms serialize to the same bytes.
func (a Atom) Equal(b Atom) bool {
	return string(a.Text) == string(b.Text)
}
