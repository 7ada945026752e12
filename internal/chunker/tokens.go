package chunker

import "unicode/utf8"

// TokensPerChar is the heuristic for estimating tokens (chars/4)
const TokensPerChar = 4

// EstimateTokens approximates the token count of text as ceil(runes/4).
// It is monotone in length and returns 0 for the empty string.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + TokensPerChar - 1) / TokensPerChar
}
