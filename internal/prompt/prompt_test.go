package prompt

import (
	"strings"
	"testing"

	"upload-ai/internal/domain"
)

// TestRender covers placeholder substitution edge cases.
func TestRender(t *testing.T) {
	tests := []struct {
		name          string
		template      string
		transcription string
		want          string
	}{
		{name: "summarize", template: "Summarize: {transcription}", transcription: "hello world", want: "Summarize: hello world"},
		{name: "first occurrence only", template: "{transcription} / {transcription}", transcription: "x", want: "x / {transcription}"},
		{name: "first after similar tag", template: "{transcriptions} {transcription} {transcription}", transcription: "x", want: "{transcriptions} x {transcription}"},
		{name: "nested start then later", template: "{transcription{transcription} {transcription}", transcription: "x", want: "{transcriptionx {transcription}"},
		{name: "no placeholder", template: "Just text", transcription: "x", want: "Just text"},
		{name: "other braces kept", template: "{\"a\": 1} {other} {transcription}", transcription: "x", want: "{\"a\": 1} {other} x"},
		{name: "similar tag kept", template: "{transcriptions} {transcription}", transcription: "x", want: "{transcriptions} x"},
		{name: "nested start", template: "{transcription{transcription}", transcription: "x", want: "{transcriptionx"},
		{name: "unclosed", template: "end {transcription", transcription: "x", want: "end {transcription"},
		{name: "braces in transcription", template: "T: {transcription}", transcription: "{transcription}", want: "T: {transcription}"},
		{name: "empty transcription", template: "[{transcription}]", transcription: "", want: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.template, tt.transcription); got != tt.want {
				t.Fatalf("Render(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

// TestDefaultTemplatesContainPlaceholder checks built-ins are usable.
func TestDefaultTemplatesContainPlaceholder(t *testing.T) {
	for _, tpl := range DefaultTemplates() {
		if tpl.ID == "" || tpl.Title == "" {
			t.Fatalf("template missing id or title: %+v", tpl)
		}
		if !strings.Contains(tpl.Template, Placeholder) {
			t.Fatalf("template %s has no placeholder", tpl.ID)
		}
	}
}

// TestNewCatalogMerge checks overrides keep position and new entries append.
func TestNewCatalogMerge(t *testing.T) {
	c := NewCatalog(
		domain.PromptTemplate{ID: "youtube-title", Title: "Custom title", Template: "T {transcription}"},
		domain.PromptTemplate{ID: "tweet", Title: "Tweet", Template: "Tweet {transcription}"},
	)

	list := c.List()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].Title != "Custom title" || list[2].ID != "tweet" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if _, ok := c.Find("youtube-description"); !ok {
		t.Fatal("built-in should remain")
	}
	if _, ok := c.Find("missing"); ok {
		t.Fatal("unexpected match for missing id")
	}

	list[0].Title = "mutated"
	if got, _ := c.Find("youtube-title"); got.Title != "Custom title" {
		t.Fatal("List should return a copy")
	}
}
