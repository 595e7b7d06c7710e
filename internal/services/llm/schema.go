package llm

import "google.golang.org/genai"

// analysisSchema declares the JSON shape the provider must emit for an analysis.
// All four top-level fields are required, as are both fields of each explanation entry.
func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeString,
				Description: "Tóm tắt nội dung bài học súc tích, dễ hiểu như một bản tin.",
			},
			"keywords": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Các từ khóa/thuật ngữ chính.",
			},
			"explanation": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title": {
							Type:        genai.TypeString,
							Description: "Tiêu đề của mục (VD: Câu hỏi, Lời giải, Giải thích).",
						},
						"content": {
							Type:        genai.TypeString,
							Description: "Nội dung chi tiết của mục, chứa công thức LaTeX.",
						},
					},
					Required: []string{"title", "content"},
				},
				Description: "Chi tiết nội dung bài học được chia thành các phần nhỏ.",
			},
			"examples": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Các ví dụ minh họa thực tế.",
			},
		},
		Required: []string{"summary", "keywords", "explanation", "examples"},
	}
}
