package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThinkExtraction(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		steps     string
		narrative string
	}{
		{"inline", "abc<think>hidden</think>def", "hidden", "abcdef"},
		{"none", "plain narrative", "", "plain narrative"},
		{"multiline", "<think>\nstep 1\nstep 2\n</think>\n## Outlook", "\nstep 1\nstep 2\n", "\n## Outlook"},
		{"first pair only", "a<think>x</think>b<think>y</think>c", "x", "ab<think>y</think>c"},
		{"unterminated", "a<think>x", "", "a<think>x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.steps, ExtractAnalysisSteps(tt.input))
			assert.Equal(t, tt.narrative, RemoveThinkContent(tt.input))
		})
	}
}

func TestPlainText(t *testing.T) {
	text := PlainText("# Outlook\n\nShares look **strong** &amp; stable.\n\n- RSI neutral\n- MACD rising\n")

	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "&amp;")
	assert.Contains(t, text, "Outlook")
	assert.Contains(t, text, "Shares look strong & stable.")
	assert.Contains(t, text, "- RSI neutral")
	assert.Contains(t, text, "- MACD rising")
}

func TestPlainText_Empty(t *testing.T) {
	assert.Equal(t, "", PlainText("   \n"))
}
