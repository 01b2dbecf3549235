// Package pitch maps pitch labels such as "A4", "C#5" or "Bb3" to
// equal-tempered frequencies anchored at A4 = 440 Hz.
package pitch

import (
	"math"
	"strconv"
	"strings"
)

const (
	// Reference is the frequency of A4.
	Reference = 440.0
	// Default is returned by FrequencyOr callers when a label cannot be read.
	Default = Reference

	referenceKey = 69
)

var noteOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Key returns the MIDI key number for a pitch label. Accidentals '#' or 's'
// raise a semitone, 'b' lowers one, and may be repeated. The octave follows
// scientific pitch notation, so "C4" is key 60.
func Key(label string) (int, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return 0, false
	}
	base, ok := noteOffsets[upper(s[0])]
	if !ok {
		return 0, false
	}
	i := 1
	shift := 0
accidentals:
	for ; i < len(s); i++ {
		switch s[i] {
		case '#', 's', 'S':
			shift++
		case 'b':
			shift--
		default:
			break accidentals
		}
	}
	oct, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, false
	}
	return (oct+1)*12 + base + shift, true
}

// Frequency returns the frequency in Hz for a pitch label.
func Frequency(label string) (float64, bool) {
	key, ok := Key(label)
	if !ok {
		return 0, false
	}
	return KeyFrequency(key), true
}

// FrequencyOr returns the label's frequency, or def when it cannot be read.
func FrequencyOr(label string, def float64) float64 {
	if f, ok := Frequency(label); ok {
		return f
	}
	return def
}

func KeyFrequency(key int) float64 {
	return Reference * math.Pow(2, float64(key-referenceKey)/12)
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
