package retriever

import (
	"regexp"
	"strconv"
)

// problemNumberPatterns extract an explicit ruling number from a question.
// Checked in order; the first matching pattern wins.
var problemNumberPatterns = []*regexp.Regexp{
	// keyword then number: "مسئله 400"
	regexp.MustCompile(`(?:مسئله|مسأله|مساله|سوال)\s*(\d+)`),
	// number then keyword: "400 مین مسئله"
	regexp.MustCompile(`(\d+)\s*(?:ام|مین)?\s*(?:مسئله|مسأله)`),
	// bare leading number with a separator: "400 - ..."
	regexp.MustCompile(`^(\d+)\s*[-.)]\s`),
	// English keyword: "masaleh 400", "question #400"
	regexp.MustCompile(`(?i)(?:masaleh|masale|question)\s*#?\s*(\d+)`),
}

// ExtractProblemNumber pulls an explicit ruling number out of a question,
// folding Perso-Arabic digits first so "مسئله ۴۰۰" matches as well as
// "مسئله 400". Returns false when no pattern matches.
func ExtractProblemNumber(q string) (int64, bool) {
	folded := foldDigits(q)
	for _, p := range problemNumberPatterns {
		if m := p.FindStringSubmatch(folded); m != nil {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			return n, true
		}
	}
	return 0, false
}
