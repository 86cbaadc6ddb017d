package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and strips every whitespace character so
// that "GDP  (nominal)\n" and "gdp(nominal)" compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether name refers to target. A normalized substring
// match always counts; otherwise the Jaro-Winkler similarity of the normalized
// strings must reach minSimilarity.
func MatchName(name, target string, minSimilarity float64) bool {
	name = NormalizeName(name)
	target = NormalizeName(target)
	if target == "" {
		return false
	}
	if strings.Contains(name, target) {
		return true
	}
	return matchr.JaroWinkler(name, target, false) >= minSimilarity
}
