// Package chunk splits long text into token-bounded segments along
// paragraph and word boundaries. Token count is approximated as the
// number of whitespace-separated words.
package chunk

import "strings"

// DefaultMaxTokens is the target chunk size used by the ingest pipeline.
const DefaultMaxTokens = 500

// Tokens returns the approximate token count of s.
func Tokens(s string) int {
	return len(strings.Fields(s))
}

// Split divides text into segments of at most maxTokens tokens each.
// Text that already fits is returned as a single segment. Otherwise
// paragraphs (double-newline separated) are accumulated greedily; a
// paragraph that alone exceeds the budget is split on word boundaries.
// No returned segment is empty.
func Split(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if Tokens(trimmed) <= maxTokens {
		return []string{trimmed}
	}

	var chunks []string
	var cur []string
	curTokens := 0

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, "\n\n"))
			cur = nil
			curTokens = 0
		}
	}

	for _, para := range strings.Split(trimmed, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		n := Tokens(para)

		if n > maxTokens {
			// Oversized paragraph: close the running chunk and fall back
			// to word-level accumulation inside the paragraph.
			flush()
			chunks = append(chunks, splitWords(para, maxTokens)...)
			continue
		}

		if curTokens+n > maxTokens {
			flush()
		}
		cur = append(cur, para)
		curTokens += n
	}
	flush()

	return chunks
}

// splitWords greedily packs words into segments of at most maxTokens
// words each.
func splitWords(para string, maxTokens int) []string {
	words := strings.Fields(para)
	var out []string
	for start := 0; start < len(words); start += maxTokens {
		end := start + maxTokens
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}
