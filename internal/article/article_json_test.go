package article

import (
	"encoding/json"
	"testing"
)

func TestArticleOutputJSON_RoundTrip(t *testing.T) {
	var a ArticleOutput
	a.Headline = "Zero Trust Explained"
	a.Intro = "intro text"
	a.DirectAnswer = "direct answer text"
	a.SectionTitles[0] = "What Is Zero Trust"
	a.SectionContents[0] = "body for section 1"
	a.SectionContents[5] = "body for section 6"
	a.FAQQuestions[0] = "What is it?"
	a.FAQAnswers[0] = "It is a model."
	a.PAAQuestions[0] = "Why use it?"
	a.KeyTakeaways[2] = "Adopt incrementally."

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded ArticleOutput
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Headline != a.Headline {
		t.Errorf("Headline = %q, want %q", decoded.Headline, a.Headline)
	}
	if decoded.SectionTitles[0] != a.SectionTitles[0] {
		t.Errorf("SectionTitles[0] = %q, want %q", decoded.SectionTitles[0], a.SectionTitles[0])
	}
	if decoded.SectionContents[5] != a.SectionContents[5] {
		t.Errorf("SectionContents[5] = %q, want %q", decoded.SectionContents[5], a.SectionContents[5])
	}
	if decoded.FAQQuestions[0] != a.FAQQuestions[0] || decoded.FAQAnswers[0] != a.FAQAnswers[0] {
		t.Errorf("FAQ[0] round-trip mismatch: got q=%q a=%q", decoded.FAQQuestions[0], decoded.FAQAnswers[0])
	}
	if decoded.KeyTakeaways[2] != a.KeyTakeaways[2] {
		t.Errorf("KeyTakeaways[2] = %q, want %q", decoded.KeyTakeaways[2], a.KeyTakeaways[2])
	}
}

func TestArticleOutputUnmarshal_FromFlatLLMJSON(t *testing.T) {
	raw := []byte(`{
		"Headline": "H",
		"Subtitle": "S",
		"Teaser": "T",
		"Meta_Title": "MT",
		"Meta_Description": "MD",
		"Intro": "intro",
		"Direct_Answer": "answer",
		"section_01_title": "Sec1",
		"section_01_content": "Body1",
		"section_06_content": "Body6",
		"faq_01_question": "Q1",
		"faq_01_answer": "A1",
		"Sources": "[1] https://example.com \"Example\""
	}`)

	var a ArticleOutput
	if err := json.Unmarshal(raw, &a); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if a.GetContent("section_01_content") != "Body1" {
		t.Errorf("GetContent(section_01_content) = %q", a.GetContent("section_01_content"))
	}
	if a.GetContent("section_06_content") != "Body6" {
		t.Errorf("GetContent(section_06_content) = %q", a.GetContent("section_06_content"))
	}
	if a.SectionTitle(1) != "Sec1" {
		t.Errorf("SectionTitle(1) = %q", a.SectionTitle(1))
	}
}
