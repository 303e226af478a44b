package bank

import (
	"regexp"
	"strings"
)

var (
	questionNumRe  = regexp.MustCompile(`^\d+\.\s*`)
	optionPrefixRe = regexp.MustCompile(`^\*?\s*[a-dA-D]\)\s*`)
	blockSepRe     = regexp.MustCompile(`\n\s*\n`)
)

// Parse reads the plain-text bank format: questions separated by blank
// lines, first line of a block is the question text (optionally numbered
// "1."), remaining lines are options. A leading "*" marks the correct
// option; "a)".."d)" letter prefixes are stripped.
func Parse(text string) []Question {
	blocks := splitBlocks(text)
	out := make([]Question, 0, len(blocks))
	for _, block := range blocks {
		lines := strings.Split(block, "\n")
		q := Question{Text: questionNumRe.ReplaceAllString(strings.TrimSpace(lines[0]), "")}
		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			isCorrect := strings.HasPrefix(line, "*")
			q.Options = append(q.Options, Option{
				Text:      cleanOptionPrefix(line),
				IsCorrect: isCorrect,
			})
		}
		out = append(out, q)
	}
	return out
}

func splitBlocks(text string) []string {
	var blocks []string
	for _, b := range blockSepRe.Split(strings.TrimSpace(text), -1) {
		if strings.TrimSpace(b) != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// cleanOptionPrefix strips "*", "a)", "*B)" style prefixes from an option
// line, leaving the option text.
func cleanOptionPrefix(line string) string {
	line = strings.TrimPrefix(line, "*")
	return strings.TrimSpace(optionPrefixRe.ReplaceAllString(strings.TrimSpace(line), ""))
}
