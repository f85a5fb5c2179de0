package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/soochol/blogforge/internal/article"
)

// fakeStage is a minimal Stage used to drive the Engine's control flow
// without touching an LLM, an HTTP prober, or any other network dependency.
type fakeStage struct {
	num  int
	name string
	fn   func(pc *Context) error
}

func (f *fakeStage) Num() int     { return f.num }
func (f *fakeStage) Name() string { return f.name }
func (f *fakeStage) Execute(ctx context.Context, pc *Context) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(pc)
}

func validJobConfig() article.JobConfig {
	return article.JobConfig{PrimaryKeyword: "widgets", CompanyURL: "https://example.com"}
}

func TestEngine_Run_SequentialPrefixThenMergeThenGate(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	topo := &Topology{
		Prefix: []Stage{
			&fakeStage{0, "company", func(pc *Context) error { record("company"); return nil }},
			&fakeStage{1, "prompt", func(pc *Context) error { record("prompt"); return nil }},
			&fakeStage{2, "generate", func(pc *Context) error {
				record("generate")
				pc.StructuredData = &article.ArticleOutput{Headline: "h"}
				return nil
			}},
		},
		Merge: &fakeStage{8, "merge", func(pc *Context) error {
			record("merge")
			pc.ValidatedArticle = &article.ValidatedArticle{Headline: "h"}
			return nil
		}},
		Gate: &fakeStage{10, "gate", func(pc *Context) error {
			record("gate")
			pc.QualityReport = &article.QualityReport{Passed: true}
			return nil
		}},
	}

	e := NewEngine(topo)
	pc, err := e.Run(context.Background(), "job-1", validJobConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{"company", "prompt", "generate", "merge", "gate"}
	if len(order) != len(want) {
		t.Fatalf("execution order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	if pc.State() != StateDone {
		t.Errorf("State() = %q, want %q", pc.State(), StateDone)
	}
	if len(pc.ExecutionTimes()) != len(want) {
		t.Errorf("ExecutionTimes() recorded %d stages, want %d", len(pc.ExecutionTimes()), len(want))
	}
}

func TestEngine_Run_PrefixFailureIsFatalAndSkipsLaterStages(t *testing.T) {
	topo := &Topology{
		Prefix: []Stage{
			&fakeStage{0, "company", func(pc *Context) error { return nil }},
			&fakeStage{1, "prompt", func(pc *Context) error { return errors.New("boom") }},
			&fakeStage{2, "generate", func(pc *Context) error {
				t.Error("generate must not run after a prefix failure")
				return nil
			}},
		},
		Merge: &fakeStage{8, "merge", func(pc *Context) error {
			t.Error("merge must not run after a prefix failure")
			return nil
		}},
		Gate: &fakeStage{10, "gate", func(pc *Context) error { return nil }},
	}

	e := NewEngine(topo)
	pc, err := e.Run(context.Background(), "job-2", validJobConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if pc.State() != StateFailed {
		t.Errorf("State() = %q, want %q", pc.State(), StateFailed)
	}
	if len(pc.Errors()) == 0 {
		t.Error("expected at least one recorded error after a prefix failure")
	}
}

func TestEngine_Run_CriticalParallelFailureIsFatal(t *testing.T) {
	topo := &Topology{
		Prefix: []Stage{
			&fakeStage{0, "company", func(pc *Context) error { return nil }},
			&fakeStage{1, "prompt", func(pc *Context) error { return nil }},
			&fakeStage{2, "generate", func(pc *Context) error {
				pc.StructuredData = &article.ArticleOutput{Headline: "h"}
				return nil
			}},
		},
		ParallelCritical: []Stage{
			&fakeStage{4, "citations", func(pc *Context) error { return errors.New("citations failed") }},
		},
		ParallelAux: []Stage{
			&fakeStage{6, "toc", func(pc *Context) error { return nil }},
		},
		Merge: &fakeStage{8, "merge", func(pc *Context) error {
			t.Error("merge must not run after a critical parallel-stage failure")
			return nil
		}},
		Gate: &fakeStage{10, "gate", func(pc *Context) error { return nil }},
	}

	e := NewEngine(topo)
	pc, err := e.Run(context.Background(), "job-3", validJobConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if pc.State() != StateFailed {
		t.Errorf("State() = %q, want %q", pc.State(), StateFailed)
	}
	found := false
	for _, msg := range pc.Errors() {
		if strings.Contains(msg, "citations failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an error mentioning the critical stage failure, got %v", pc.Errors())
	}
}

func TestEngine_Run_AuxParallelFailureDegradesRatherThanFails(t *testing.T) {
	topo := &Topology{
		Prefix: []Stage{
			&fakeStage{0, "company", func(pc *Context) error { return nil }},
			&fakeStage{1, "prompt", func(pc *Context) error { return nil }},
			&fakeStage{2, "generate", func(pc *Context) error {
				pc.StructuredData = &article.ArticleOutput{Headline: "h"}
				return nil
			}},
		},
		ParallelAux: []Stage{
			&fakeStage{7, "metadata", func(pc *Context) error { return errors.New("metadata failed") }},
		},
		Merge: &fakeStage{8, "merge", func(pc *Context) error {
			pc.ValidatedArticle = &article.ValidatedArticle{Headline: "h"}
			return nil
		}},
		Gate: &fakeStage{10, "gate", func(pc *Context) error {
			pc.QualityReport = &article.QualityReport{Passed: false, CriticalIssues: []string{"low score"}}
			return nil
		}},
	}

	e := NewEngine(topo)
	pc, err := e.Run(context.Background(), "job-4", validJobConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if pc.State() != StateDegraded {
		t.Errorf("State() = %q, want %q", pc.State(), StateDegraded)
	}

	found := false
	for _, w := range pc.Warnings() {
		if strings.Contains(w, "metadata failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning mentioning the aux stage failure, got %v", pc.Warnings())
	}
}

func TestEngine_Run_ExportRunsAfterGateAndNeverFailsTheRun(t *testing.T) {
	exported := false
	topo := &Topology{
		Prefix: []Stage{
			&fakeStage{0, "company", func(pc *Context) error { return nil }},
			&fakeStage{1, "prompt", func(pc *Context) error { return nil }},
			&fakeStage{2, "generate", func(pc *Context) error {
				pc.StructuredData = &article.ArticleOutput{Headline: "h"}
				return nil
			}},
		},
		Merge: &fakeStage{8, "merge", func(pc *Context) error {
			pc.ValidatedArticle = &article.ValidatedArticle{Headline: "h"}
			return nil
		}},
		Gate: &fakeStage{10, "gate", func(pc *Context) error {
			pc.QualityReport = &article.QualityReport{Passed: true}
			return nil
		}},
		Export: &fakeStage{9, "export", func(pc *Context) error {
			if pc.QualityReport == nil {
				t.Error("export must run after the gate, but QualityReport is unset")
			}
			exported = true
			return fmt.Errorf("disk full")
		}},
	}

	e := NewEngine(topo)
	pc, err := e.Run(context.Background(), "job-5", validJobConfig())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !exported {
		t.Fatal("export stage never ran")
	}
	if pc.State() != StateDone {
		t.Errorf("State() = %q, want %q (export failures are warnings, not fatal)", pc.State(), StateDone)
	}
	found := false
	for _, w := range pc.Warnings() {
		if strings.Contains(w, "disk full") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning mentioning the export failure, got %v", pc.Warnings())
	}
}

func TestEngine_Run_InvalidJobConfigReturnsInputError(t *testing.T) {
	e := NewEngine(&Topology{})
	_, err := e.Run(context.Background(), "job-6", article.JobConfig{})
	if err == nil {
		t.Fatal("expected an error for an empty job config")
	}
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Errorf("expected *InputError, got %T (%v)", err, err)
	}
}
