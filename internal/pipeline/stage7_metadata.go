package pipeline

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// wordsPerMinute is the reading-speed constant:
// reading_time_minutes = ceil(word_count / 200).
const wordsPerMinute = 200

// MetadataStage is Stage 7: computes word count, reading time,
// and publication date. Pure, fast, non-fatal.
type MetadataStage struct {
	// JitterDays, when > 0, deterministically back-dates the publication
	// date by up to JitterDays based on the job ID: a per-run seeded
	// randomization within the last N days when configured.
	JitterDays int
}

func (s *MetadataStage) Num() int { return 7 }
func (s *MetadataStage) Name() string { return "metadata" }

func (s *MetadataStage) Execute(ctx context.Context, pc *Context) error {
	wordCount := 0
	if pc.StructuredData != nil {
		wordCount = countWords(pc.StructuredData)
	}
	readingTime := int(math.Ceil(float64(wordCount) / wordsPerMinute))
	if wordCount > 0 && readingTime < 1 {
		readingTime = 1
	}

	pc.SetMetadata(&article.Metadata{
		WordCount: wordCount,
		ReadingTimeMinutes: readingTime,
		PublicationDate: s.publicationDate(pc.JobID),
	})
	return nil
}

func countWords(out *article.ArticleOutput) int {
	total := 0
	fields := []string{out.Intro, out.DirectAnswer}
	fields = append(fields, out.SectionContents[:]...)
	for _, f := range fields {
		plain := textproc.StripHTMLTags(f)
		total += len(splitWords(plain))
	}
	return total
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if isSpace {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}

func (s *MetadataStage) publicationDate(jobID string) string {
	now := time.Now().UTC()
	if s.JitterDays <= 0 {
		return now.Format(time.RFC3339)
	}
	h := fnv.New32a()
	h.Write([]byte(jobID))
	offset := int(h.Sum32()) % (s.JitterDays + 1)
	if offset < 0 {
		offset = -offset
	}
	return now.AddDate(0, 0, -offset).Format(time.RFC3339)
}
