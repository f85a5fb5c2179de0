package model

import "google.golang.org/genai"

// strSchema is a shorthand for a plain string property, targeting
// genai.Schema directly since these are LLM response schemas, not
// tool-call argument schemas.
func strSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func intSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeInteger, Description: desc}
}

// ArticleOutputSchema builds the structured-output schema for Stage 2's
// generation call, one property per ArticleOutput wire key.
func ArticleOutputSchema() *genai.Schema {
	props := map[string]*genai.Schema{
		"Headline": strSchema("50-60 characters, plain text, no HTML"),
		"Subtitle": strSchema("80-100 characters, plain text"),
		"Teaser": strSchema("plain text hook"),
		"Meta_Title": strSchema("<=60 characters, plain text"),
		"Meta_Description": strSchema("100-160 characters, plain text"),
		"Intro": strSchema("HTML, 80-120 words"),
		"Direct_Answer": strSchema("HTML, 40-60 words, contains one natural-language citation"),
		"Sources": strSchema("newline-separated lines: [N]: URL - short description"),
		"Search Queries": strSchema("free-form search queries used, informational"),
	}
	required := []string{"Headline", "Intro", "Direct_Answer", "Sources"}

	for i := 1; i <= 9; i++ {
		n := sectionSuffix(i)
		props["section_0"+n+"_title"] = strSchema("plain text section title")
		props["section_0"+n+"_content"] = strSchema("HTML, 3-5 paragraphs, 60-100 words each")
	}
	required = append(required, "section_01_title", "section_01_content")

	for i := 1; i <= 6; i++ {
		n := sectionSuffix(i)
		props["faq_0"+n+"_question"] = strSchema("plain text FAQ question")
		props["faq_0"+n+"_answer"] = strSchema("plain text FAQ answer")
	}
	for i := 1; i <= 4; i++ {
		n := sectionSuffix(i)
		props["paa_0"+n+"_question"] = strSchema("plain text People Also Ask question")
		props["paa_0"+n+"_answer"] = strSchema("plain text People Also Ask answer")
	}
	for i := 1; i <= 3; i++ {
		n := sectionSuffix(i)
		props["key_takeaway_0"+n] = strSchema("plain text key takeaway")
	}

	props["tables"] = &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": strSchema("table title"),
				"headers": {Type: genai.TypeArray, Items: strSchema("column header")},
				"rows": {
					Type: genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeArray, Items: strSchema("cell value")},
				},
			},
		},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: props,
		Required: required,
	}
}

// ReviewResponseSchema builds Stage 3 Pass 1's structured return schema.
func ReviewResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"fixed_content": strSchema("the rewritten field content"),
			"issues_fixed": intSchema("count of issues fixed"),
			"em_dashes_fixed": intSchema("count of em-dashes removed"),
			"en_dashes_fixed": intSchema("count of en-dashes removed"),
			"lists_added": intSchema("count of lists added or repaired"),
			"citations_added": intSchema("count of natural-language citations added"),
			"fixes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{"description": strSchema("what was fixed and why")},
				},
			},
		},
		Required: []string{"fixed_content"},
	}
}

// AEOAnalysisSchema builds Stage 3 Pass 2's lightweight analyzer schema.
func AEOAnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"citations": intSchema("count of citation markers or natural-language attributions"),
			"conversational_phrases": intSchema("count of conversational phrases"),
			"question_patterns": intSchema("count of question-form sentences or headings"),
		},
		Required: []string{"citations", "conversational_phrases", "question_patterns"},
	}
}

func sectionSuffix(n int) string {
	if n < 1 || n > 9 {
		return "0"
	}
	return string(rune('0' + n))
}
