package text

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
	"are": true, "was": true, "were": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "but": true, "not": true,
	"you": true, "your": true, "they": true, "them": true, "their": true,
	"its": true, "into": true, "than": true, "then": true, "there": true,
	"these": true, "those": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "why": true, "how": true,
	"will": true, "would": true, "should": true, "could": true, "can": true,
	"does": true, "did": true, "doing": true, "just": true, "only": true,
	"also": true, "more": true, "most": true, "some": true, "such": true,
	"very": true, "about": true, "over": true, "under": true, "again": true,
	"each": true, "every": true, "other": true, "same": true, "because": true,
	"so": true, "if": true, "no": true, "nor": true, "too": true,
	"our": true, "we": true, "us": true, "my": true, "me": true,
	"all": true, "any": true, "both": true, "out": true, "up": true,
}

// IsStopword reports whether tok is a common English word that carries no topic.
func IsStopword(tok string) bool {
	return stopwords[tok]
}

// Significant returns the tokens of s that are at least minLen runes long and not stopwords, sorted.
func Significant(s TokenSet, minLen int) []string {
	var out []string
	for tok := range s {
		if stopwords[tok] || len([]rune(tok)) < minLen {
			continue
		}
		out = append(out, tok)
	}
	sortStrings(out)
	return out
}
