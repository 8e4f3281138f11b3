package keyer

import "unicode"

// CharPattern is the ITU Morse pattern table shared by the text sender and
// the decoder, grounded on the teacher's own character table (src/morse.go)
// plus the ITU punctuation set it carries.
var CharPattern = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '/': "-..-.",
	'=': "-...-", '-': "-....-", ')': "-.--.-", ':': "---...",
	';': "-.-.-.", '"': ".-..-.", '\'': ".----.", '$': "...-..-",
	'!': "-.-.--", '(': "-.--.", '&': ".-...", '+': ".-.-.",
	'_': "..--.-", '@': ".--.-.",
}

// Prosigns maps bracketed prosign tags (without the angle brackets) to the
// concatenated pattern of their constituent letters run together as one
// unit (spec §6: "bracketed prosigns up to tag length 8").
var Prosigns = map[string]string{
	"AR":  ".-.-.",    // end of message
	"SK":  "...-.-",   // end of contact
	"BT":  "-...-",    // break
	"KN":  "-.--.",    // invite named station only
	"AS":  ".-...",    // wait
	"HH":  "........", // error
	"VE":  "...-.",    // understood
	"SOS": "...---...",
}

// maxProsignTagLen is the longest tag the sender/decoder will attempt to
// match (spec §6).
const maxProsignTagLen = 8

// patternToChar is built once from CharPattern for decoder lookups.
var patternToChar = func() map[string]rune {
	m := make(map[string]rune, len(CharPattern))
	for ch, pat := range CharPattern {
		m[pat] = ch
	}
	return m
}()

// NormalizeChar upper-cases letters and leaves digits/punctuation as-is,
// matching the ITU-subset text input channel (spec §6).
func NormalizeChar(r rune) rune {
	return unicode.ToUpper(r)
}
