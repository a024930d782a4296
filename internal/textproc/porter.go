package textproc

import "strings"

// PorterStem implements the Porter stemming algorithm (Porter, 1980) for
// lowercase ASCII English words. It mirrors the classic five-step
// suffix-stripping algorithm; y is treated as a consonant at the start of a
// word or after a vowel, and as a vowel after a consonant.

func isConsonant(w []byte, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !isConsonant(w, i-1)
	default:
		return true
	}
}

// measure computes the Porter "m" value: the number of consonant-vowel
// sequences in the word.
func measure(w []byte) int {
	n := len(w)
	i := 0
	m := 0
	// skip leading consonants
	for i < n && isConsonant(w, i) {
		i++
	}
	for i < n {
		// skip vowels
		for i < n && !isConsonant(w, i) {
			i++
		}
		if i >= n {
			break
		}
		m++
		// skip consonants
		for i < n && isConsonant(w, i) {
			i++
		}
	}
	return m
}

func containsVowel(w []byte) bool {
	for i := range w {
		if !isConsonant(w, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(w []byte) bool {
	n := len(w)
	if n < 2 {
		return false
	}
	return w[n-1] == w[n-2] && isConsonant(w, n-1)
}

// endsCVC reports the *o condition: ends consonant-vowel-consonant where the
// final consonant is not w, x, or y.
func endsCVC(w []byte) bool {
	n := len(w)
	if n < 3 {
		return false
	}
	if !isConsonant(w, n-3) || isConsonant(w, n-2) || !isConsonant(w, n-1) {
		return false
	}
	switch w[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

func hasSuffix(w []byte, suf string) bool {
	return len(w) >= len(suf) && string(w[len(w)-len(suf):]) == suf
}

func trimSuffix(w []byte, suf string) []byte {
	return w[:len(w)-len(suf)]
}

// PorterStem returns the Porter stem of a single lowercase word.
func PorterStem(word string) string {
	w := []byte(strings.ToLower(word))
	if len(w) <= 2 {
		return string(w)
	}

	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5a(w)
	w = step5b(w)
	return string(w)
}

func step1a(w []byte) []byte {
	switch {
	case hasSuffix(w, "sses"):
		return append(trimSuffix(w, "sses"), 's', 's')
	case hasSuffix(w, "ies"):
		return append(trimSuffix(w, "ies"), 'i')
	case hasSuffix(w, "ss"):
		return w
	case hasSuffix(w, "s") && len(w) > 2:
		return trimSuffix(w, "s")
	}
	return w
}

func step1b(w []byte) []byte {
	switch {
	case hasSuffix(w, "eed"):
		stem := trimSuffix(w, "eed")
		if measure(stem) > 0 {
			return append(stem, 'e', 'e')
		}
		return w
	case hasSuffix(w, "ed") && containsVowel(trimSuffix(w, "ed")):
		w = trimSuffix(w, "ed")
		return step1bPost(w)
	case hasSuffix(w, "ing") && containsVowel(trimSuffix(w, "ing")):
		w = trimSuffix(w, "ing")
		return step1bPost(w)
	}
	return w
}

func step1bPost(w []byte) []byte {
	switch {
	case hasSuffix(w, "at"), hasSuffix(w, "bl"), hasSuffix(w, "iz"):
		return append(w, 'e')
	case endsDoubleConsonant(w) && !hasSuffix(w, "l") && !hasSuffix(w, "s") && !hasSuffix(w, "z"):
		return w[:len(w)-1]
	case measure(w) == 1 && endsCVC(w):
		return append(w, 'e')
	}
	return w
}

func step1c(w []byte) []byte {
	if hasSuffix(w, "y") && containsVowel(trimSuffix(w, "y")) {
		w[len(w)-1] = 'i'
	}
	return w
}

var step2Suffixes = []struct {
	from, to string
}{
	{"ational", "ate"}, {"tional", "tion"}, {"enci", "ence"}, {"anci", "ance"},
	{"izer", "ize"}, {"abli", "able"}, {"alli", "al"}, {"entli", "ent"},
	{"eli", "e"}, {"ousli", "ous"}, {"ization", "ize"}, {"ation", "ate"},
	{"ator", "ate"}, {"alism", "al"}, {"iveness", "ive"}, {"fulness", "ful"},
	{"ousness", "ous"}, {"aliti", "al"}, {"iviti", "ive"}, {"biliti", "ble"},
}

func step2(w []byte) []byte {
	for _, s := range step2Suffixes {
		if hasSuffix(w, s.from) {
			stem := trimSuffix(w, s.from)
			if measure(stem) > 0 {
				return append(stem, s.to...)
			}
			return w
		}
	}
	return w
}

var step3Suffixes = []struct {
	from, to string
}{
	{"icate", "ic"}, {"ative", ""}, {"alize", "al"}, {"iciti", "ic"},
	{"ical", "ic"}, {"ful", ""}, {"ness", ""},
}

func step3(w []byte) []byte {
	for _, s := range step3Suffixes {
		if hasSuffix(w, s.from) {
			stem := trimSuffix(w, s.from)
			if measure(stem) > 0 {
				return append(stem, s.to...)
			}
			return w
		}
	}
	return w
}

var step4Suffixes = []string{
	"al", "ance", "ence", "er", "ic", "able", "ible", "ant", "ement", "ment",
	"ent", "ion", "ou", "ism", "ate", "iti", "ous", "ive", "ize",
}

func step4(w []byte) []byte {
	for _, suf := range step4Suffixes {
		if hasSuffix(w, suf) {
			stem := trimSuffix(w, suf)
			if suf == "ion" {
				if len(stem) > 0 && (stem[len(stem)-1] == 's' || stem[len(stem)-1] == 't') && measure(stem) > 1 {
					return stem
				}
				return w
			}
			if measure(stem) > 1 {
				return stem
			}
			return w
		}
	}
	return w
}

func step5a(w []byte) []byte {
	if hasSuffix(w, "e") {
		stem := trimSuffix(w, "e")
		m := measure(stem)
		if m > 1 || (m == 1 && !endsCVC(stem)) {
			return stem
		}
	}
	return w
}

func step5b(w []byte) []byte {
	if measure(w) > 1 && endsDoubleConsonant(w) && hasSuffix(w, "l") {
		return w[:len(w)-1]
	}
	return w
}
