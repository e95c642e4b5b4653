package notation

// Detect picks one notation system for a whole document from its candidate
// content lines. Each system scores the pitch tokens of every line it can
// tokenize completely; the highest score wins and ties go to the earlier
// system in priority order. The boolean is false when no line tokenizes under
// any system, in which case Number is returned.
func Detect(lines []string) (System, bool) {
	best, bestScore := Number, 0
	for _, s := range systems {
		score := 0
		for _, text := range lines {
			line, err := Tokenize(s, text)
			if err != nil {
				continue
			}
			score += line.PitchCount()
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return best, bestScore > 0
}

// Candidates returns the systems, in priority order, that tokenize text
// completely.
func Candidates(text string) []System {
	var out []System
	for _, s := range systems {
		if Accepts(s, text) {
			out = append(out, s)
		}
	}
	return out
}
