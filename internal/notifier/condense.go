// ABOUTME: Markdown cleanup and truncation for claude responses.
// ABOUTME: Notifications and TTS both need plain prose, not markdown syntax.
package notifier

import (
	"regexp"
	"strings"
)

var (
	codeBlockPattern     = regexp.MustCompile("```[\\s\\S]*?```")
	imagePattern         = regexp.MustCompile(`!\[([^\]]*)\]\([^\)]+\)`) // ![alt](url) -> alt
	linkPattern          = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)  // [text](url) -> text
	strikethroughPattern = regexp.MustCompile(`~~(.+?)~~`)
	boldPattern          = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	italicPattern        = regexp.MustCompile(`(\*|_)([^*_]+)(\*|_)`)
	backtickPattern      = regexp.MustCompile("`")
	headerPattern        = regexp.MustCompile(`^#+\s*`)
	blockquotePattern    = regexp.MustCompile(`^>\s*`)
	bulletPattern        = regexp.MustCompile(`^[-*•]\s*`)
	numberedPattern      = regexp.MustCompile(`^\d+\.\s+`)
	multiSpacePattern    = regexp.MustCompile(`\s+`)
)

// CleanMarkdown strips markdown syntax from claude's answer, keeping the
// prose. The say command would otherwise read the asterisks out loud.
func CleanMarkdown(text string) string {
	// Code blocks first, they can contain anything
	text = codeBlockPattern.ReplaceAllString(text, "")

	// Images before links, an image is a link with a bang
	text = imagePattern.ReplaceAllString(text, "$1")
	text = linkPattern.ReplaceAllString(text, "$1")

	text = strikethroughPattern.ReplaceAllString(text, "$1")
	text = boldPattern.ReplaceAllString(text, "$2")
	text = italicPattern.ReplaceAllString(text, "$2")
	text = backtickPattern.ReplaceAllString(text, "")

	// Line-based patterns: headers, quotes, list markers
	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = headerPattern.ReplaceAllString(line, "")
		line = blockquotePattern.ReplaceAllString(line, "")
		line = bulletPattern.ReplaceAllString(line, "")
		line = numberedPattern.ReplaceAllString(line, "")
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	result := strings.Join(cleaned, " ")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// Condense cleans markdown and truncates to maxLen runes, preferring a
// sentence boundary and falling back to a word boundary with an ellipsis.
func Condense(text string, maxLen int) string {
	cleaned := CleanMarkdown(text)
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}

	window := runes[:maxLen]

	// Prefer cutting at the end of a sentence, as long as it is not
	// absurdly early. All indexes here are rune positions; byte offsets
	// drift on multi-byte text.
	if end := lastSentenceEnd(window); end > maxLen/3 {
		return strings.TrimSpace(string(window[:end+1]))
	}

	// Fall back to a word boundary
	truncated := runes[:maxLen-3]
	if idx := lastRuneIndex(truncated, ' '); idx > maxLen/2 {
		truncated = truncated[:idx]
	}
	return string(truncated) + "..."
}

func lastRuneIndex(runes []rune, want rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == want {
			return i
		}
	}
	return -1
}

// lastSentenceEnd returns the rune index of the last sentence-ending
// punctuation, or -1. A dot glued to digits (versions, decimals) does
// not count.
func lastSentenceEnd(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		c := runes[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if c == '.' {
			if i > 0 && runes[i-1] >= '0' && runes[i-1] <= '9' {
				continue
			}
			if i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9' {
				continue
			}
		}
		// Must end the text or be followed by whitespace
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' {
			continue
		}
		return i
	}
	return -1
}
