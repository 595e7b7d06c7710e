package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ErrUnsupportedFormat is returned for an unknown export format
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Export formats
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Export is a rendered history item ready to be served as a file
type Export struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Export renders one history item as Markdown or HTML
func (s *Service) Export(ctx context.Context, id, format string) (*Export, error) {
	item, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", FormatMarkdown, "markdown":
		return &Export{
			Data:        []byte(RenderMarkdown(item)),
			ContentType: "text/markdown; charset=utf-8",
			FileName:    fmt.Sprintf("vipaii-%s.md", item.ID),
		}, nil
	case FormatHTML:
		data, err := RenderHTML(item)
		if err != nil {
			return nil, err
		}
		return &Export{
			Data:        data,
			ContentType: "text/html; charset=utf-8",
			FileName:    fmt.Sprintf("vipaii-%s.html", item.ID),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// RenderMarkdown renders a history item as a Markdown study sheet.
// Math notation is left as written.
func RenderMarkdown(item *models.HistoryItem) string {
	var b strings.Builder

	title := strings.TrimSpace(item.Prompt)
	if title == "" {
		title = "Vipaii"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	fmt.Fprintf(&b, "_%s_", item.Timestamp.Format(time.RFC3339))
	if item.FileName != "" {
		fmt.Fprintf(&b, " · %s", item.FileName)
	}
	b.WriteString("\n\n")

	result := item.Result

	b.WriteString("## Tóm tắt\n\n")
	b.WriteString(result.Summary)
	b.WriteString("\n\n")

	if len(result.Keywords) > 0 {
		b.WriteString("## Từ khóa\n\n")
		for _, keyword := range result.Keywords {
			fmt.Fprintf(&b, "- %s\n", keyword)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Giải thích\n\n")
	if result.Explanation.IsStructured() {
		for _, part := range result.Explanation.Parts {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", part.Title, part.Content)
		}
	} else if result.Explanation.Text != "" {
		b.WriteString(result.Explanation.Text)
		b.WriteString("\n\n")
	}

	if len(result.Examples) > 0 {
		b.WriteString("## Ví dụ\n\n")
		for i, example := range result.Examples {
			fmt.Fprintf(&b, "%d. %s\n", i+1, example)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// mathToken marks where a math segment sits while the Markdown is rendered
const mathToken = "VIPAIIMATHSEGMENT"

// RenderHTML renders a history item as a standalone HTML page. Math segments
// are shielded from the Markdown renderer and emitted verbatim inside
// math-inline / math-display spans for a client-side typesetting pass.
func RenderHTML(item *models.HistoryItem) ([]byte, error) {
	var source strings.Builder
	var math []common.MathSegment

	for _, segment := range common.SplitMath(RenderMarkdown(item)) {
		if segment.Kind == common.SegmentText {
			source.WriteString(segment.Value)
			continue
		}
		fmt.Fprintf(&source, "%s%dX", mathToken, len(math))
		math = append(math, segment)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(source.String()), &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	rendered := body.String()
	for i := range math {
		rendered = strings.ReplaceAll(rendered, fmt.Sprintf("%s%dX", mathToken, i), renderMath(math[i]))
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"vi\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(strings.TrimSpace(item.Prompt)))
	page.WriteString("</head>\n<body>\n")
	page.WriteString(rendered)
	page.WriteString("</body>\n</html>\n")

	return page.Bytes(), nil
}

func renderMath(segment common.MathSegment) string {
	if segment.Kind == common.SegmentBlockMath {
		return `<span class="math-display">$$` + html.EscapeString(segment.Value) + `$$</span>`
	}
	return `<span class="math-inline">$` + html.EscapeString(segment.Value) + `$</span>`
}
