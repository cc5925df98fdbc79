package sequencer

import "aria/composition"

// DefaultPattern is the fallback rhythm for roles without a mapped
// pattern: E(3,8), three onsets spread over eight steps.
var DefaultPattern = Euclid(3, 8)

// Euclid returns a Euclidean rhythm pattern of n steps with k onsets
// distributed as evenly as possible, as a 0/1 slice.
func Euclid(k, n int) []int {
	pattern := make([]int, n)
	if n <= 0 || k <= 0 {
		return pattern
	}
	if k > n {
		k = n
	}
	// Bresenham-style spread: an onset lands wherever the running
	// accumulator crosses a multiple of n.
	prev := -1
	for i := 0; i < n; i++ {
		cur := i * k / n
		if cur != prev {
			pattern[i] = 1
			prev = cur
		}
	}
	return pattern
}

// ResolvePattern returns the rhythm pattern for an instrument's role,
// falling back to DefaultPattern when the role has no mapped pattern.
// The second result is false when the instrument has no role at all,
// which is the hard "no resolvable track" condition.
func ResolvePattern(c *composition.Composition, inst composition.Instrument) ([]int, bool) {
	role, ok := c.Role(inst)
	if !ok {
		return nil, false
	}
	if pattern, ok := c.EuclideanPatterns[role]; ok && len(pattern) > 0 {
		return pattern, true
	}
	return DefaultPattern, true
}

// SectionTranspose returns the upward semitone shift for a form section
// label relative to the first section: four semitones per letter step
// ("B" sections sit above "A" sections) and two per prime mark ("A'" a
// step above "A").
func SectionTranspose(form []string, index int) int {
	if index < 0 || index >= len(form) || len(form) == 0 {
		return 0
	}
	base := sectionLetter(form[0])
	letter := sectionLetter(form[index])
	shift := 0
	if letter > base {
		shift = int(letter-base) * 4
	}
	for i := 0; i < len(form[index]); i++ {
		if form[index][i] == '\'' {
			shift += 2
		}
	}
	return shift
}

func sectionLetter(label string) byte {
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch >= 'A' && ch <= 'Z' {
			return ch
		}
	}
	return 'A'
}
