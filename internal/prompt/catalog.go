package prompt

import (
	"strings"

	"github.com/samber/lo"

	"upload-ai/internal/domain"
)

// DefaultTemplates returns the built-in completion templates.
func DefaultTemplates() []domain.PromptTemplate {
	return []domain.PromptTemplate{
		{
			ID:    "youtube-title",
			Title: "YouTube title",
			Template: strings.Join([]string{
				"Generate three catchy titles for a YouTube video.",
				"",
				"Below you receive the transcription of the video. Use it to write the titles.",
				"Each title must have at most 60 characters.",
				"The titles must be attractive and optimized for reach.",
				"",
				"Return ONLY the three titles as a list, like the example below:",
				"'''",
				"- Title 1",
				"- Title 2",
				"- Title 3",
				"'''",
				"",
				"Transcription:",
				"'''",
				Placeholder,
				"'''",
			}, "\n"),
		},
		{
			ID:    "youtube-description",
			Title: "YouTube description",
			Template: strings.Join([]string{
				"Generate a short summary of the video transcription given below.",
				"",
				"Write in the first person as if you were the narrator of the video.",
				"Keep it to at most 80 words and do not use markdown.",
				"After the summary add a list of hashtags in lowercase containing keywords of the video.",
				"",
				"The output must follow the format:",
				"'''",
				"Description.",
				"",
				"#hashtag1 #hashtag2 #hashtag3 ...",
				"'''",
				"",
				"Transcription:",
				"'''",
				Placeholder,
				"'''",
			}, "\n"),
		},
	}
}

// Catalog is an ordered, id-unique list of prompt templates.
type Catalog struct {
	items []domain.PromptTemplate
}

// NewCatalog starts from the built-in templates. Entries in extra replace a
// built-in with the same id or are appended in order.
func NewCatalog(extra ...domain.PromptTemplate) *Catalog {
	items := DefaultTemplates()
	for _, tpl := range extra {
		if _, idx, ok := lo.FindIndexOf(items, func(p domain.PromptTemplate) bool { return p.ID == tpl.ID }); ok {
			items[idx] = tpl
			continue
		}
		items = append(items, tpl)
	}
	return &Catalog{items: items}
}

// List returns a copy of every template.
func (c *Catalog) List() []domain.PromptTemplate {
	return append([]domain.PromptTemplate(nil), c.items...)
}

// Find returns the template with id.
func (c *Catalog) Find(id string) (domain.PromptTemplate, bool) {
	return lo.Find(c.items, func(p domain.PromptTemplate) bool { return p.ID == id })
}
