package render

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	codeBlockPattern = regexp.MustCompile("(?s)```.*?```")
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
	fencePattern     = regexp.MustCompile("(?s)^\\s*```[\\w+#.-]*[ \\t]*\\n(.*?)\\n?```\\s*$")
)

// NormalizeModelOutput tidies model output before markdown rendering:
// trailing whitespace is trimmed and runs of blank lines collapsed, while
// fenced code blocks are kept verbatim.
func NormalizeModelOutput(text string) string {
	codeBlocks := codeBlockPattern.FindAllString(text, -1)
	placeholder := "\x00CODE_BLOCK_%d\x00"

	for i, block := range codeBlocks {
		text = strings.Replace(text, block, fmt.Sprintf(placeholder, i), 1)
	}

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	text = strings.Join(lines, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")

	for i, block := range codeBlocks {
		text = strings.Replace(text, fmt.Sprintf(placeholder, i), block, 1)
	}
	return text
}

// StripCodeFences removes a single fenced block wrapping the whole text,
// which models often add despite being asked for plain output.
func StripCodeFences(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// FenceCode wraps code in a fenced block tagged with language.
func FenceCode(code, language string) string {
	return "```" + language + "\n" + strings.TrimRight(code, "\n") + "\n```\n"
}
