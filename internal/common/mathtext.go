package common

import "strings"

// SegmentKind identifies a run of text as plain prose or math notation
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentInlineMath
	SegmentBlockMath
)

// MathSegment is one run of a text split on math delimiters.
// Value excludes the delimiters.
type MathSegment struct {
	Kind  SegmentKind
	Value string
}

// SplitMath splits text on the assistant's math convention: $$...$$ for block
// formulas and $...$ for inline formulas. An escaped \$ is literal text and an
// unterminated delimiter is left as text.
func SplitMath(text string) []MathSegment {
	var segments []MathSegment
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			segments = append(segments, MathSegment{Kind: SegmentText, Value: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]

		if c == '\\' && i+1 < len(text) && text[i+1] == '$' {
			plain.WriteString(`\$`)
			i += 2
			continue
		}

		if c != '$' {
			plain.WriteByte(c)
			i++
			continue
		}

		if strings.HasPrefix(text[i:], "$$") {
			end := strings.Index(text[i+2:], "$$")
			if end < 0 {
				plain.WriteString(text[i:])
				break
			}
			flush()
			segments = append(segments, MathSegment{Kind: SegmentBlockMath, Value: text[i+2 : i+2+end]})
			i += end + 4
			continue
		}

		end := indexUnescapedDollar(text[i+1:])
		if end < 0 {
			plain.WriteString(text[i:])
			break
		}
		flush()
		segments = append(segments, MathSegment{Kind: SegmentInlineMath, Value: text[i+1 : i+1+end]})
		i += end + 2
	}

	flush()
	return segments
}

// indexUnescapedDollar returns the index of the first $ not preceded by a backslash
func indexUnescapedDollar(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '$' {
			return i
		}
	}
	return -1
}
