package atom

import "bytes"

// splitDDRegion locates the DDBEGIN/DDEND markers in data, per spec §3.
// It returns the fixed prefix (everything up to and including the
// DDBEGIN line), the reducible region (the bytes strictly between the
// markers), and the fixed suffix (the DDEND line onward).
//
// If no line contains "DDBEGIN", the entire file is the reducible region
// and before/after are empty. It is an error for DDBEGIN to appear without
// a later DDEND.
func splitDDRegion(data []byte) (before, region, after []byte, err error) {
	beginIdx := findMarkerLineEnd(data, 0, []byte("DDBEGIN"))
	if beginIdx < 0 {
		return nil, data, nil, nil
	}

	endIdx := findMarkerLineStart(data, beginIdx, []byte("DDEND"))
	if endIdx < 0 {
		return nil, nil, nil, ErrMissingDDEND
	}

	return data[:beginIdx], data[beginIdx:endIdx], data[endIdx:], nil
}

// findMarkerLineEnd scans lines starting at offset, returning the index
// just past the newline of the first line containing marker, or -1.
func findMarkerLineEnd(data []byte, offset int, marker []byte) int {
	pos := offset

	for pos < len(data) {
		nl := bytes.IndexByte(data[pos:], '\n')

		var line []byte

		var next int

		if nl < 0 {
			line = data[pos:]
			next = len(data)
		} else {
			line = data[pos : pos+nl+1]
			next = pos + nl + 1
		}

		if bytes.Contains(line, marker) {
			return next
		}

		pos = next
	}

	return -1
}

// findMarkerLineStart scans lines starting at offset, returning the index
// of the start of the first line containing marker, or -1.
func findMarkerLineStart(data []byte, offset int, marker []byte) int {
	pos := offset

	for pos < len(data) {
		nl := bytes.IndexByte(data[pos:], '\n')

		var line []byte

		var next int

		if nl < 0 {
			line = data[pos:]
			next = len(data)
		} else {
			line = data[pos : pos+nl+1]
			next = pos + nl + 1
		}

		if bytes.Contains(line, marker) {
			return pos
		}

		pos = next
	}

	return -1
}
