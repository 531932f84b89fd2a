package strategy

import "github.com/MozillaSecurity/lithium/internal/atom"

var closingFor = map[string]string{"{": "}", "(": ")", "[": "]", "<": ">"}

// matchBrackets scans tc's atoms for single-character bracket tokens
// ("(", ")", "{", "}", "[", "]", "<", ">") and returns, for each index, the
// index of its matching partner with nesting respected, or -1 if the atom
// is not a bracket or has no match (unbalanced input). Used by
// MinimizeBalancedPairs to remove a bracket together with its partner and
// everything between them in one speculative step.
//
// Only atoms whose entire text is a single bracket character participate.
// Every Char atom is a single character; with the other atomizers only an
// atom that happens to be a lone bracket takes part (for example a Symbol
// delimiter that directly follows another delimiter, or a bracket inside a
// JsStr string literal).
func matchBrackets(tc *atom.Testcase) []int {
	parts := tc.Parts()
	matches := make([]int, len(parts))

	for i := range matches {
		matches[i] = -1
	}

	var stack []int

	for i, p := range parts {
		text := string(p.Text)

		switch text {
		case "{", "(", "[", "<":
			stack = append(stack, i)
		case "}", ")", "]", ">":
			if len(stack) == 0 {
				continue
			}

			top := stack[len(stack)-1]
			if closingFor[string(parts[top].Text)] != text {
				continue
			}

			stack = stack[:len(stack)-1]
			matches[top] = i
			matches[i] = top
		}
	}

	return matches
}
