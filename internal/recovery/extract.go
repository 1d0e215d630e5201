package recovery

import (
	"regexp"
	"strings"
)

var fencedObject = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// ExtractCandidate locates the most probable JSON object substring in
// raw model output. Preference order: a fenced code block with a
// brace-delimited body, then first '{' to last '}', then first '{' to
// end of text. Returns false when no '{' exists at all.
func ExtractCandidate(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}

	if m := fencedObject.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	first := strings.Index(text, "{")
	if first == -1 {
		return "", false
	}
	last := strings.LastIndex(text, "}")
	if last == -1 || last < first {
		return strings.TrimSpace(text[first:]), true
	}
	return strings.TrimSpace(text[first : last+1]), true
}

// trimCodeFence drops a dangling closing fence left behind by a model
// that opened a block but was cut off before the body ended.
func trimCodeFence(text string) (string, bool) {
	if !strings.HasSuffix(text, "```") {
		return "", false
	}
	return strings.TrimSpace(text[:strings.LastIndex(text, "```")]), true
}

var trailingCommaBeforeClose = regexp.MustCompile(`,(\s*[}\]])`)

// trimTrailingComma removes commas left before a closing brace or
// bracket, and a dangling comma at the end of a truncated object.
func trimTrailingComma(text string) (string, bool) {
	if strings.HasSuffix(strings.TrimRight(text, " \n\t"), ",") {
		return strings.TrimRight(text, ", \n\t"), true
	}
	cleaned := trailingCommaBeforeClose.ReplaceAllString(text, "$1")
	if cleaned != text {
		return cleaned, true
	}
	return "", false
}

// balanceBraces appends missing closing braces or trims surplus ones.
// Counting is deliberately naive (braces inside strings count): the
// transform only needs to produce a candidate, the parser decides.
func balanceBraces(text string) (string, string, bool) {
	diff := strings.Count(text, "{") - strings.Count(text, "}")
	switch {
	case diff > 0:
		return text + strings.Repeat("}", diff), reasonBalanceBraces(diff), true
	case diff < 0:
		trimmed := text
		for diff < 0 && strings.HasSuffix(trimmed, "}") {
			trimmed = trimmed[:len(trimmed)-1]
			diff++
		}
		return trimmed, reasonTrimBraces(len(text) - len(trimmed)), true
	}
	return "", "", false
}
