package atom

import "bytes"

// AttributeAtomizer atomizes HTML/XML-like attribute assignments inside
// tags (spec §3.5). An atom is one `name`, `name=value`, or
// `name="quoted value"` token; everything else — tag names, angle
// brackets, attribute-separating whitespace, and text outside tags — is
// non-removable literal text interleaved between atoms.
type AttributeAtomizer struct{}

func init() {
	Register(AttributeAtomizer{})
}

// Name returns the registry key "attribute".
func (AttributeAtomizer) Name() string { return "attribute" }

// Atomize splits data into one atom per attribute assignment. DDBEGIN/
// DDEND are not recognized here: spec §6.4 restricts marker handling to
// the atomizers that work at line granularity and the Char atomizer,
// which Attribute is neither.
func (AttributeAtomizer) Atomize(data []byte) (*Testcase, error) {
	region := data

	var (
		parts   []Atom
		leading [][]byte
		pending []byte
	)

	i := 0
	for i < len(region) {
		lt := bytes.IndexByte(region[i:], '<')
		if lt < 0 {
			pending = append(pending, region[i:]...)

			break
		}

		pending = append(pending, region[i:i+lt]...)
		i += lt

		tagEnd := findTagClose(region, i)
		if tagEnd < 0 {
			pending = append(pending, region[i:]...)

			break
		}

		nameEnd := i + 1
		if nameEnd < tagEnd && region[nameEnd] == '/' {
			nameEnd++
		}

		for nameEnd < tagEnd && !isAttrSpace(region[nameEnd]) && region[nameEnd] != '>' && region[nameEnd] != '/' {
			nameEnd++
		}

		pending = append(pending, region[i:nameEnd]...)

		attrEnd := tagEnd
		if attrEnd-1 >= nameEnd && region[attrEnd-1] == '/' {
			attrEnd--
		}

		k := nameEnd
		for k < attrEnd {
			wsStart := k
			for k < attrEnd && isAttrSpace(region[k]) {
				k++
			}

			ws := region[wsStart:k]

			if k >= attrEnd {
				pending = append(pending, ws...)

				break
			}

			tokStart := k
			for k < attrEnd && region[k] != '=' && !isAttrSpace(region[k]) {
				k++
			}

			if k < attrEnd && region[k] == '=' {
				k++
				if k < attrEnd && (region[k] == '"' || region[k] == '\'') {
					q := region[k]
					k++

					for k < attrEnd && region[k] != q {
						k++
					}

					if k < attrEnd {
						k++
					}
				} else {
					for k < attrEnd && !isAttrSpace(region[k]) {
						k++
					}
				}
			}

			leading = append(leading, append(append([]byte{}, pending...), ws...))
			pending = nil
			parts = append(parts, Atom{Text: region[tokStart:k]})
		}

		pending = append(pending, region[attrEnd:tagEnd+1]...)
		i = tagEnd + 1
	}

	segments := make([][]byte, len(parts)+1)

	if len(parts) == 0 {
		segments[0] = pending

		return New(segments, parts), nil
	}

	segments[0] = leading[0]
	for idx := 1; idx < len(parts); idx++ {
		segments[idx] = leading[idx]
	}

	segments[len(parts)] = pending

	return New(segments, parts), nil
}

func isAttrSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// findTagClose finds the index of the '>' closing the tag opened at
// region[lt] == '<', ignoring '>' bytes inside single- or double-quoted
// attribute values. Returns -1 if the tag is never closed.
func findTagClose(region []byte, lt int) int {
	var quote byte

	for i := lt + 1; i < len(region); i++ {
		c := region[i]

		if quote != 0 {
			if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return i
		}
	}

	return -1
}
