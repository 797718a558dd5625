package ssa

import "strconv"

// itoa and atoi are thin strconv wrappers used by the builder when
// synthesizing temporary names and decoding immediate operand counts;
// kept local so builder.go reads at the same vocabulary level as the
// C++ original's std::to_string/std::stoi call sites.
func itoa(n int) string {
	return strconv.Itoa(n)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
