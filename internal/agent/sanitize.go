package agent

import (
	"regexp"
	"strings"
)

// speechCleanups is the ordered rule chain applied to reply text before it
// reaches speech synthesis. Order matters: newlines and colons become
// sentence breaks first, then punctuation and whitespace are collapsed.
var speechCleanups = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\\n`), ". "},         // literal backslash-n sequences
	{regexp.MustCompile(`\n`), ". "},          // real newlines
	{regexp.MustCompile(`\*\*`), ""},          // markdown emphasis markers
	{regexp.MustCompile(`\([^)]+\)`), ""},     // parenthetical asides
	{regexp.MustCompile(`e\.g\.,?`), "for example"},
	{regexp.MustCompile(`i\.e\.,?`), "that is"},
	{regexp.MustCompile(`:\s+`), ". "},        // colons end the sentence
	{regexp.MustCompile(`\s*-\s*`), ". "},     // dashes and list bullets
	{regexp.MustCompile(`\s+`), " "},
	{regexp.MustCompile(`\.+`), "."},          // no double periods
	{regexp.MustCompile(`\.\s+`), ". "},
	{regexp.MustCompile(`\s+\.`), "."},
	{regexp.MustCompile(`^\.|\.$`), ""},
	{regexp.MustCompile(`\s+`), " "},
}

// CleanTextForSpeech collapses markdown, parentheticals, abbreviations and
// redundant punctuation into single-sentence-terminated plain prose. The
// output always ends with exactly one period.
func CleanTextForSpeech(text string) string {
	for _, rule := range speechCleanups {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return strings.TrimSpace(text) + "."
}
