// Package article defines the typed structured-output contracts exchanged
// between the pipeline and the LLM, and the flat article shape produced at
// the end of the run.
package article

// JobConfig is the immutable input to a single pipeline run.
type JobConfig struct {
	PrimaryKeyword string `json:"primary_keyword"`
	CompanyURL string `json:"company_url"`
	Market string `json:"market,omitempty"`
	Language string `json:"language,omitempty"`
	ToneOverrides map[string]string `json:"tone_overrides,omitempty"`
	WordCountTarget int `json:"word_count_target,omitempty"`
	ExportFormats []string `json:"export_formats,omitempty"`
	MaxRegenerations int `json:"max_regenerations,omitempty"`
	EnableImages bool `json:"enable_images"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
}

// Defaults fills zero-valued fields with their defaults.
func (c JobConfig) Defaults() JobConfig {
	if c.WordCountTarget == 0 {
		c.WordCountTarget = 1600
	}
	if len(c.ExportFormats) == 0 {
		c.ExportFormats = []string{"html", "json"}
	}
	if c.MaxRegenerations == 0 {
		c.MaxRegenerations = 2
	}
	return c
}

// CompanyContext is Stage 0's output describing the company behind CompanyURL.
type CompanyContext struct {
	Name string `json:"name"`
	URL string `json:"url"`
	Description string `json:"description"`
	Tone string `json:"tone"`
	Voice string `json:"voice"`
	Language string `json:"language"`
}

// LinkKind classifies a page discovered via sitemap crawling.
type LinkKind string

const (
	LinkKindBlog LinkKind = "blog"
	LinkKindProduct LinkKind = "product"
	LinkKindService LinkKind = "service"
	LinkKindDocs LinkKind = "docs"
	LinkKindResource LinkKind = "resource"
	LinkKindOther LinkKind = "other"
)

// LinkCandidate is one entry of the LinkablePool.
type LinkCandidate struct {
	URL string `json:"url"`
	Title string `json:"title"`
	Kind LinkKind `json:"kind"`
	Confidence float64 `json:"confidence"`
}

// LinkablePool is the ordered set of internal-link candidates from Stage 0.
type LinkablePool []LinkCandidate

// TableBlock is one entry of ArticleOutput.Tables.
type TableBlock struct {
	Title string `json:"title"`
	Headers []string `json:"headers"`
	Rows [][]string `json:"rows"`
}

// ArticleOutput is the Stage 2 structured return.
//
// Field order here matches the declared field order used by Stage 3's
// "apply in declared order" rule and by Stage 8's merge.
type ArticleOutput struct {
	Headline string `json:"Headline"`
	Subtitle string `json:"Subtitle"`
	Teaser string `json:"Teaser"`
	MetaTitle string `json:"Meta_Title"`
	MetaDescription string `json:"Meta_Description"`

	Intro string `json:"Intro"`
	DirectAnswer string `json:"Direct_Answer"`

	SectionTitles [9]string `json:"-"`
	SectionContents [9]string `json:"-"`

	FAQQuestions [6]string `json:"-"`
	FAQAnswers [6]string `json:"-"`

	PAAQuestions [4]string `json:"-"`
	PAAAnswers [4]string `json:"-"`

	KeyTakeaways [3]string `json:"-"`

	Tables []TableBlock `json:"tables,omitempty"`

	Sources string `json:"Sources"`
	SearchQueries string `json:"Search Queries,omitempty"`
}

// ContentFieldNames returns the names, in declared order, of the fields
// that Stage 3 reviews and optimizes: Intro, Direct_Answer, and the nine
// section_NN_content fields.
func ContentFieldNames() []string {
	names := make([]string, 0, 11)
	names = append(names, "Intro", "Direct_Answer")
	for i := 1; i <= 9; i++ {
		names = append(names, sectionContentKey(i))
	}
	return names
}

// RequiredSections lists the 1-indexed sections that are mandatory content
// quality requirements (section_01 through section_06); 07-09 are optional.
var RequiredSections = [6]int{1, 2, 3, 4, 5, 6}

func sectionContentKey(n int) string {
	return "section_0" + itoa(n) + "_content"
}

func sectionTitleKey(n int) string {
	return "section_0" + itoa(n) + "_title"
}

func itoa(n int) string {
	if n < 0 || n > 9 {
		return "?"
	}
	return string(rune('0' + n))
}

// GetContent returns the named content field's value (Intro, Direct_Answer,
// or section_NN_content).
func (a *ArticleOutput) GetContent(name string) string {
	switch name {
	case "Intro":
		return a.Intro
	case "Direct_Answer":
		return a.DirectAnswer
	}
	for i := 1; i <= 9; i++ {
		if name == sectionContentKey(i) {
			return a.SectionContents[i-1]
		}
	}
	return ""
}

// SetContent writes back the named content field's value.
func (a *ArticleOutput) SetContent(name, value string) {
	switch name {
	case "Intro":
		a.Intro = value
		return
	case "Direct_Answer":
		a.DirectAnswer = value
		return
	}
	for i := 1; i <= 9; i++ {
		if name == sectionContentKey(i) {
			a.SectionContents[i-1] = value
			return
		}
	}
}

// SectionTitle returns the 1-indexed section title (empty if unset).
func (a *ArticleOutput) SectionTitle(n int) string {
	if n < 1 || n > 9 {
		return ""
	}
	return a.SectionTitles[n-1]
}

// PlainTextFields returns the names of fields that must never contain HTML
// tags, for use by TextNormalizer/validation passes.
func (a *ArticleOutput) PlainTextFields() map[string]string {
	out := map[string]string{
		"Headline": a.Headline,
		"Subtitle": a.Subtitle,
		"Teaser": a.Teaser,
		"Meta_Title": a.MetaTitle,
		"Meta_Description": a.MetaDescription,
	}
	for i := 1; i <= 9; i++ {
		if t := a.SectionTitles[i-1]; t != "" {
			out[sectionTitleKey(i)] = t
		}
	}
	for i := 0; i < 6; i++ {
		if a.FAQQuestions[i] != "" {
			out["faq_0"+itoa(i+1)+"_question"] = a.FAQQuestions[i]
		}
		if a.FAQAnswers[i] != "" {
			out["faq_0"+itoa(i+1)+"_answer"] = a.FAQAnswers[i]
		}
	}
	for i := 0; i < 4; i++ {
		if a.PAAQuestions[i] != "" {
			out["paa_0"+itoa(i+1)+"_question"] = a.PAAQuestions[i]
		}
		if a.PAAAnswers[i] != "" {
			out["paa_0"+itoa(i+1)+"_answer"] = a.PAAAnswers[i]
		}
	}
	for i := 0; i < 3; i++ {
		if a.KeyTakeaways[i] != "" {
			out["key_takeaway_0"+itoa(i+1)] = a.KeyTakeaways[i]
		}
	}
	return out
}

// ReviewResponse is Stage 3 Pass 1's structured LLM return.
type ReviewResponse struct {
	FixedContent string `json:"fixed_content"`
	IssuesFixed int `json:"issues_fixed"`
	EmDashesFixed int `json:"em_dashes_fixed"`
	EnDashesFixed int `json:"en_dashes_fixed"`
	ListsAdded int `json:"lists_added"`
	CitationsAdded int `json:"citations_added"`
	Fixes []FixNote `json:"fixes,omitempty"`
}

// FixNote is one entry of ReviewResponse.Fixes.
type FixNote struct {
	Description string `json:"description"`
}

// AEOAnalysis is Stage 3 Pass 2's lightweight analyzer return.
type AEOAnalysis struct {
	Citations int `json:"citations"`
	ConversationalPhrases int `json:"conversational_phrases"`
	QuestionPatterns int `json:"question_patterns"`
}

// CitationEntry is one resolved citation.
type CitationEntry struct {
	URL string `json:"url"`
	Title string `json:"title"`
	Kind string `json:"kind"`
}

// CitationMap maps a numeric marker (as a string, e.g. "3") to its entry.
type CitationMap map[string]CitationEntry

// InternalLink is one inserted internal link.
type InternalLink struct {
	URL string `json:"url"`
	AnchorText string `json:"anchor_text"`
	Section string `json:"section"`
}

// TOCEntry is one table-of-contents entry (Stage 6 output).
type TOCEntry struct {
	Label string `json:"label"`
	Anchor string `json:"anchor"`
}

// Metadata is Stage 7's output.
type Metadata struct {
	WordCount int `json:"word_count"`
	ReadingTimeMinutes int `json:"reading_time_minutes"`
	PublicationDate string `json:"publication_date"`
}

// ImageURIs is Stage 8a's output.
type ImageURIs struct {
	Hero string `json:"hero,omitempty"`
	Mid string `json:"mid,omitempty"`
	Bottom string `json:"bottom,omitempty"`
}

// FAQItem and PAAItem back the FAQ/PAA rendering.
type FAQItem struct {
	Question string `json:"question"`
	Answer string `json:"answer"`
}

type PAAItem struct {
	Question string `json:"question"`
	Answer string `json:"answer"`
}

// ValidatedArticle is Stage 8's output: a single flat mapping representing
// the final article.
type ValidatedArticle struct {
	Headline string `json:"headline"`
	Subtitle string `json:"subtitle"`
	Teaser string `json:"teaser"`
	MetaTitle string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	Intro string `json:"intro"`
	DirectAnswer string `json:"direct_answer"`
	SectionTitles [9]string `json:"section_titles"`
	SectionContents [9]string `json:"section_contents"`
	KeyTakeaways [3]string `json:"key_takeaways"`
	Tables []TableBlock `json:"tables,omitempty"`

	FAQ []FAQItem `json:"faq"`
	PAA []PAAItem `json:"paa"`

	CitationMap CitationMap `json:"_citation_map"`
	CitationsHTML string `json:"citations_html"`
	InternalLinks []InternalLink `json:"internal_links"`
	InternalLinksHTML string `json:"internal_links_html"`
	TOC []TOCEntry `json:"toc"`
	Metadata Metadata `json:"metadata"`
	Images ImageURIs `json:"image_urls"`

	CompanyName string `json:"company_name,omitempty"`
	Author string `json:"author,omitempty"`
}

// QualityReport is Stage 10's output.
type QualityReport struct {
	AEOScore float64 `json:"aeo_score"`
	SubScores map[string]float64 `json:"sub_scores"`
	CriticalIssues []string `json:"critical_issues"`
	Warnings []string `json:"warnings"`
	Passed bool `json:"passed"`
}
