package article

import "encoding/json"

// articleOutputWire is the flat JSON shape the LLM actually produces for
// ArticleOutput: one top-level key per section/FAQ/PAA/key-takeaway slot
// (section_01_title, section_01_content,..., faq_01_question,...) rather
// than the fixed-size arrays ArticleOutput keeps them in internally. The
// array fields are tagged json:"-" on ArticleOutput itself and flattened
// here instead, since Go's encoding/json has no way to splice a [9]string
// into 9 independently-named sibling keys.
type articleOutputWire struct {
	Headline string `json:"Headline"`
	Subtitle string `json:"Subtitle"`
	Teaser string `json:"Teaser"`
	MetaTitle string `json:"Meta_Title"`
	MetaDescription string `json:"Meta_Description"`

	Intro string `json:"Intro"`
	DirectAnswer string `json:"Direct_Answer"`

	Section01Title string `json:"section_01_title,omitempty"`
	Section02Title string `json:"section_02_title,omitempty"`
	Section03Title string `json:"section_03_title,omitempty"`
	Section04Title string `json:"section_04_title,omitempty"`
	Section05Title string `json:"section_05_title,omitempty"`
	Section06Title string `json:"section_06_title,omitempty"`
	Section07Title string `json:"section_07_title,omitempty"`
	Section08Title string `json:"section_08_title,omitempty"`
	Section09Title string `json:"section_09_title,omitempty"`

	Section01Content string `json:"section_01_content,omitempty"`
	Section02Content string `json:"section_02_content,omitempty"`
	Section03Content string `json:"section_03_content,omitempty"`
	Section04Content string `json:"section_04_content,omitempty"`
	Section05Content string `json:"section_05_content,omitempty"`
	Section06Content string `json:"section_06_content,omitempty"`
	Section07Content string `json:"section_07_content,omitempty"`
	Section08Content string `json:"section_08_content,omitempty"`
	Section09Content string `json:"section_09_content,omitempty"`

	FAQ01Question string `json:"faq_01_question,omitempty"`
	FAQ02Question string `json:"faq_02_question,omitempty"`
	FAQ03Question string `json:"faq_03_question,omitempty"`
	FAQ04Question string `json:"faq_04_question,omitempty"`
	FAQ05Question string `json:"faq_05_question,omitempty"`
	FAQ06Question string `json:"faq_06_question,omitempty"`

	FAQ01Answer string `json:"faq_01_answer,omitempty"`
	FAQ02Answer string `json:"faq_02_answer,omitempty"`
	FAQ03Answer string `json:"faq_03_answer,omitempty"`
	FAQ04Answer string `json:"faq_04_answer,omitempty"`
	FAQ05Answer string `json:"faq_05_answer,omitempty"`
	FAQ06Answer string `json:"faq_06_answer,omitempty"`

	PAA01Question string `json:"paa_01_question,omitempty"`
	PAA02Question string `json:"paa_02_question,omitempty"`
	PAA03Question string `json:"paa_03_question,omitempty"`
	PAA04Question string `json:"paa_04_question,omitempty"`

	PAA01Answer string `json:"paa_01_answer,omitempty"`
	PAA02Answer string `json:"paa_02_answer,omitempty"`
	PAA03Answer string `json:"paa_03_answer,omitempty"`
	PAA04Answer string `json:"paa_04_answer,omitempty"`

	KeyTakeaway01 string `json:"key_takeaway_01,omitempty"`
	KeyTakeaway02 string `json:"key_takeaway_02,omitempty"`
	KeyTakeaway03 string `json:"key_takeaway_03,omitempty"`

	Tables []TableBlock `json:"tables,omitempty"`

	Sources string `json:"Sources"`
	SearchQueries string `json:"Search Queries,omitempty"`
}

// MarshalJSON flattens ArticleOutput's fixed-size section/FAQ/PAA/takeaway
// arrays into the LLM's flat section_NN_title / faq_NN_question wire shape.
func (a ArticleOutput) MarshalJSON() ([]byte, error) {
	w := articleOutputWire{
		Headline: a.Headline,
		Subtitle: a.Subtitle,
		Teaser: a.Teaser,
		MetaTitle: a.MetaTitle,
		MetaDescription: a.MetaDescription,
		Intro: a.Intro,
		DirectAnswer: a.DirectAnswer,
		Tables: a.Tables,
		Sources: a.Sources,
		SearchQueries: a.SearchQueries,
	}

	titles := []*string{&w.Section01Title, &w.Section02Title, &w.Section03Title, &w.Section04Title, &w.Section05Title, &w.Section06Title, &w.Section07Title, &w.Section08Title, &w.Section09Title}
	contents := []*string{&w.Section01Content, &w.Section02Content, &w.Section03Content, &w.Section04Content, &w.Section05Content, &w.Section06Content, &w.Section07Content, &w.Section08Content, &w.Section09Content}
	for i := 0; i < 9; i++ {
		*titles[i] = a.SectionTitles[i]
		*contents[i] = a.SectionContents[i]
	}

	faqQ := []*string{&w.FAQ01Question, &w.FAQ02Question, &w.FAQ03Question, &w.FAQ04Question, &w.FAQ05Question, &w.FAQ06Question}
	faqA := []*string{&w.FAQ01Answer, &w.FAQ02Answer, &w.FAQ03Answer, &w.FAQ04Answer, &w.FAQ05Answer, &w.FAQ06Answer}
	for i := 0; i < 6; i++ {
		*faqQ[i] = a.FAQQuestions[i]
		*faqA[i] = a.FAQAnswers[i]
	}

	paaQ := []*string{&w.PAA01Question, &w.PAA02Question, &w.PAA03Question, &w.PAA04Question}
	paaA := []*string{&w.PAA01Answer, &w.PAA02Answer, &w.PAA03Answer, &w.PAA04Answer}
	for i := 0; i < 4; i++ {
		*paaQ[i] = a.PAAQuestions[i]
		*paaA[i] = a.PAAAnswers[i]
	}

	takeaways := []*string{&w.KeyTakeaway01, &w.KeyTakeaway02, &w.KeyTakeaway03}
	for i := 0; i < 3; i++ {
		*takeaways[i] = a.KeyTakeaways[i]
	}

	return json.Marshal(w)
}

// UnmarshalJSON parses the LLM's flat section_NN_title / faq_NN_question
// wire shape back into ArticleOutput's fixed-size arrays.
func (a *ArticleOutput) UnmarshalJSON(data []byte) error {
	var w articleOutputWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	a.Headline = w.Headline
	a.Subtitle = w.Subtitle
	a.Teaser = w.Teaser
	a.MetaTitle = w.MetaTitle
	a.MetaDescription = w.MetaDescription
	a.Intro = w.Intro
	a.DirectAnswer = w.DirectAnswer
	a.Tables = w.Tables
	a.Sources = w.Sources
	a.SearchQueries = w.SearchQueries

	titles := []string{w.Section01Title, w.Section02Title, w.Section03Title, w.Section04Title, w.Section05Title, w.Section06Title, w.Section07Title, w.Section08Title, w.Section09Title}
	contents := []string{w.Section01Content, w.Section02Content, w.Section03Content, w.Section04Content, w.Section05Content, w.Section06Content, w.Section07Content, w.Section08Content, w.Section09Content}
	for i := 0; i < 9; i++ {
		a.SectionTitles[i] = titles[i]
		a.SectionContents[i] = contents[i]
	}

	faqQ := []string{w.FAQ01Question, w.FAQ02Question, w.FAQ03Question, w.FAQ04Question, w.FAQ05Question, w.FAQ06Question}
	faqA := []string{w.FAQ01Answer, w.FAQ02Answer, w.FAQ03Answer, w.FAQ04Answer, w.FAQ05Answer, w.FAQ06Answer}
	for i := 0; i < 6; i++ {
		a.FAQQuestions[i] = faqQ[i]
		a.FAQAnswers[i] = faqA[i]
	}

	paaQ := []string{w.PAA01Question, w.PAA02Question, w.PAA03Question, w.PAA04Question}
	paaA := []string{w.PAA01Answer, w.PAA02Answer, w.PAA03Answer, w.PAA04Answer}
	for i := 0; i < 4; i++ {
		a.PAAQuestions[i] = paaQ[i]
		a.PAAAnswers[i] = paaA[i]
	}

	takeaways := []string{w.KeyTakeaway01, w.KeyTakeaway02, w.KeyTakeaway03}
	for i := 0; i < 3; i++ {
		a.KeyTakeaways[i] = takeaways[i]
	}

	return nil
}
