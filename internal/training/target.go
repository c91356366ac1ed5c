package training

import (
	"strings"
)

// NormalizeTarget converts raw target cells into 0/1 labels.
//
// A textual target (any non-missing cell that does not parse as a number)
// maps each distinct trimmed-lowercased value: positive iff it contains
// "rain" without "no", or is one of the affirmative tokens. The mapping is
// returned for the bundle metadata. A numeric target truncates to integer
// and returns a nil mapping.
//
// valid marks rows with a usable target; callers drop the rest.
func NormalizeTarget(values []string) (labels []int, mapping map[string]int, valid []bool) {
	labels = make([]int, len(values))
	valid = make([]bool, len(values))

	numeric := true
	for _, v := range values {
		if isMissing(v) {
			continue
		}
		if _, ok := parseCell(v); !ok {
			numeric = false
			break
		}
	}

	if numeric {
		for i, v := range values {
			if isMissing(v) {
				continue
			}
			f, _ := parseCell(v)
			labels[i] = int(f)
			valid[i] = true
		}
		return labels, nil, valid
	}

	mapping = make(map[string]int)
	for i, v := range values {
		if isMissing(v) {
			continue
		}
		norm := strings.ToLower(strings.TrimSpace(v))
		label, seen := mapping[norm]
		if !seen {
			label = 0
			if isPositiveTarget(norm) {
				label = 1
			}
			mapping[norm] = label
		}
		labels[i] = label
		valid[i] = true
	}
	return labels, mapping, valid
}

// affirmativeTokens are standalone values treated as the positive class.
var affirmativeTokens = map[string]bool{
	"yes": true, "y": true, "true": true, "t": true, "1": true,
}

func isPositiveTarget(norm string) bool {
	if strings.Contains(norm, "rain") && !strings.Contains(norm, "no") {
		return true
	}
	return affirmativeTokens[norm]
}
