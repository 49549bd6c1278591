package hangul

// Compatibility jamo as produced by layouts and shown for lone jamo.
const (
	firstConsonant = 'ㄱ'
	lastConsonant  = 'ㅎ'
	firstVowel     = 'ㅏ'
	lastVowel      = 'ㅣ'

	syllableBase = 0xAC00
	jungCount    = 21
	jongCount    = 28
)

var choOrder = []rune("ㄱㄲㄴㄷㄸㄹㅁㅂㅃㅅㅆㅇㅈㅉㅊㅋㅌㅍㅎ")

// Index 0 is "no final consonant".
var jongOrder = append([]rune{0}, []rune("ㄱㄲㄳㄴㄵㄶㄷㄹㄺㄻㄼㄽㄾㄿㅀㅁㅂㅄㅅㅆㅇㅈㅊㅋㅌㅍㅎ")...)

var (
	choIndex  = indexOf(choOrder)
	jongIndex = indexOf(jongOrder)
)

type pair struct{ a, b rune }

var compoundJung = map[pair]rune{
	{'ㅗ', 'ㅏ'}: 'ㅘ',
	{'ㅗ', 'ㅐ'}: 'ㅙ',
	{'ㅗ', 'ㅣ'}: 'ㅚ',
	{'ㅜ', 'ㅓ'}: 'ㅝ',
	{'ㅜ', 'ㅔ'}: 'ㅞ',
	{'ㅜ', 'ㅣ'}: 'ㅟ',
	{'ㅡ', 'ㅣ'}: 'ㅢ',
}

var compoundJong = map[pair]rune{
	{'ㄱ', 'ㅅ'}: 'ㄳ',
	{'ㄴ', 'ㅈ'}: 'ㄵ',
	{'ㄴ', 'ㅎ'}: 'ㄶ',
	{'ㄹ', 'ㄱ'}: 'ㄺ',
	{'ㄹ', 'ㅁ'}: 'ㄻ',
	{'ㄹ', 'ㅂ'}: 'ㄼ',
	{'ㄹ', 'ㅅ'}: 'ㄽ',
	{'ㄹ', 'ㅌ'}: 'ㄾ',
	{'ㄹ', 'ㅍ'}: 'ㄿ',
	{'ㄹ', 'ㅎ'}: 'ㅀ',
	{'ㅂ', 'ㅅ'}: 'ㅄ',
}

// splitJong is the inverse of compoundJong.
var splitJong = func() map[rune]pair {
	m := make(map[rune]pair, len(compoundJong))
	for p, c := range compoundJong {
		m[c] = p
	}
	return m
}()

func indexOf(order []rune) map[rune]int {
	m := make(map[rune]int, len(order))
	for i, r := range order {
		if r != 0 {
			m[r] = i
		}
	}
	return m
}

func isConsonant(r rune) bool { return r >= firstConsonant && r <= lastConsonant }

func isVowel(r rune) bool { return r >= firstVowel && r <= lastVowel }

// canBeJong reports whether a lone consonant may close a syllable.
// ㄸ, ㅃ and ㅉ never do.
func canBeJong(r rune) bool {
	_, ok := jongIndex[r]
	return ok
}

// syllable is one block under composition. Zero fields are absent.
type syllable struct {
	cho, jung, jong rune
}

func (s syllable) empty() bool { return s.cho == 0 && s.jung == 0 && s.jong == 0 }

// String renders the block: a precomposed syllable when both initial and
// medial are present, otherwise the lone compatibility jamo.
func (s syllable) String() string {
	switch {
	case s.cho != 0 && s.jung != 0:
		ci := choIndex[s.cho]
		ji := int(s.jung - firstVowel)
		return string(rune(syllableBase + (ci*jungCount+ji)*jongCount + jongIndex[s.jong]))
	case s.cho != 0:
		return string(s.cho)
	case s.jung != 0:
		return string(s.jung)
	default:
		return ""
	}
}
