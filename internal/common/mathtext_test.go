package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []MathSegment
	}{
		{
			name:     "plain text",
			input:    "không có công thức",
			expected: []MathSegment{{Kind: SegmentText, Value: "không có công thức"}},
		},
		{
			name:  "inline formula",
			input: "Năng lượng $E=mc^2$ nổi tiếng",
			expected: []MathSegment{
				{Kind: SegmentText, Value: "Năng lượng "},
				{Kind: SegmentInlineMath, Value: "E=mc^2"},
				{Kind: SegmentText, Value: " nổi tiếng"},
			},
		},
		{
			name:  "block formula",
			input: "Nghiệm: $$x = \\frac{-b \\pm \\sqrt{\\Delta}}{2a}$$",
			expected: []MathSegment{
				{Kind: SegmentText, Value: "Nghiệm: "},
				{Kind: SegmentBlockMath, Value: "x = \\frac{-b \\pm \\sqrt{\\Delta}}{2a}"},
			},
		},
		{
			name:  "mixed inline and block",
			input: "$a^2$ và $$b^2$$",
			expected: []MathSegment{
				{Kind: SegmentInlineMath, Value: "a^2"},
				{Kind: SegmentText, Value: " và "},
				{Kind: SegmentBlockMath, Value: "b^2"},
			},
		},
		{
			name:     "escaped dollar stays text",
			input:    `giá \$5`,
			expected: []MathSegment{{Kind: SegmentText, Value: `giá \$5`}},
		},
		{
			name:     "unterminated inline stays text",
			input:    "giá $5 một cái",
			expected: []MathSegment{{Kind: SegmentText, Value: "giá $5 một cái"}},
		},
		{
			name:  "unterminated block stays text",
			input: "mở $$x+1",
			expected: []MathSegment{
				{Kind: SegmentText, Value: "mở $$x+1"},
			},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitMath(tt.input))
		})
	}
}
