package quiz

import (
	"math/rand"
	"strings"
)

// minGuessLen is the shortest normalized guess that can count as correct.
const minGuessLen = 3

// noiseSubstrings are stripped from normalized titles; uploaders tack these
// onto otherwise clean song names.
var noiseSubstrings = []string{"officialvideo", "lyrics", "mv"}

func normalizeTitle(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	for _, noise := range noiseSubstrings {
		out = strings.ReplaceAll(out, noise, "")
	}
	return out
}

// IsCorrectGuess reports whether a free-text guess matches the answer title.
// Matching is asymmetric containment over normalized strings, so a short
// guess that is a substring of the real title counts; guesses shorter than
// minGuessLen after normalization never match.
func IsCorrectGuess(guess, answer string) bool {
	normGuess := normalizeTitle(guess)
	if len(normGuess) < minGuessLen {
		return false
	}
	return strings.Contains(normalizeTitle(answer), normGuess)
}

// choiceCount is the option-set size for multiple-choice rounds.
const choiceCount = 4

// BuildChoices returns the correct title plus up to choiceCount-1 distinct
// decoy titles drawn from the other songs, shuffled into display order.
// Playlists with fewer songs than choiceCount yield a smaller set; duplicate
// titles in the playlist never produce duplicate options.
func BuildChoices(titles []string, correctIndex int, rnd *rand.Rand) []string {
	choices := []string{titles[correctIndex]}
	seen := map[string]bool{titles[correctIndex]: true}

	decoys := rnd.Perm(len(titles))
	for _, i := range decoys {
		if len(choices) == choiceCount {
			break
		}
		if i == correctIndex || seen[titles[i]] {
			continue
		}
		seen[titles[i]] = true
		choices = append(choices, titles[i])
	}

	rnd.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	return choices
}
