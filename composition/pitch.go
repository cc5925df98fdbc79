package composition

import "fmt"

// semitone offsets of the natural note letters within an octave.
var letterSemitone = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParsePitch converts a note name of the form letter[#|b]octave into a MIDI
// note number (C4 = 60). Octaves may be negative ("C-1" = 0).
func ParsePitch(name string) (int, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("pitch %q too short", name)
	}
	letter := name[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	semi, ok := letterSemitone[letter]
	if !ok {
		return 0, fmt.Errorf("pitch %q: bad note letter", name)
	}
	rest := name[1:]
	switch rest[0] {
	case '#':
		semi++
		rest = rest[1:]
	case 'b':
		semi--
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return 0, fmt.Errorf("pitch %q: missing octave", name)
	}
	octave, neg := 0, false
	if rest[0] == '-' {
		neg = true
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return 0, fmt.Errorf("pitch %q: missing octave", name)
	}
	for i := 0; i < len(rest); i++ {
		d := rest[i]
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("pitch %q: bad octave", name)
		}
		octave = octave*10 + int(d-'0')
	}
	if neg {
		octave = -octave
	}
	note := (octave+1)*12 + semi
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("pitch %q: MIDI note %d out of range", name, note)
	}
	return note, nil
}

// MustParsePitch is ParsePitch for known-good constants.
func MustParsePitch(name string) int {
	n, err := ParsePitch(name)
	if err != nil {
		panic(err)
	}
	return n
}
