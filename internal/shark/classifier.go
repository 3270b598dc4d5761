package shark

import "strings"

// CounterClassifier interprets a shark's natural-language reply to a
// counter-offer. The default is a substring classifier with known
// false-positive/negative risk; callers wanting stronger interpretation plug
// in their own implementation rather than silently changing this one.
type CounterClassifier interface {
	AcceptsCounter(text string) bool
}

// acceptPhrases signal agreement in generated dialogue.
var acceptPhrases = []string{
	"deal", "accept", "you've got", "shake on it", "agreed",
	"let's do it", "i'm in", "done",
}

// PhraseClassifier is the default lexical accept/reject classifier.
type PhraseClassifier struct{}

// AcceptsCounter reports whether the reply reads as an acceptance. "no deal"
// overrides any accept phrase it contains.
func (PhraseClassifier) AcceptsCounter(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "no deal") {
		return false
	}
	return containsAny(lower, acceptPhrases)
}

// IsGoingOut reports whether dialogue contains an exit declaration.
func IsGoingOut(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "i'm out") || strings.Contains(lower, "im out")
}
