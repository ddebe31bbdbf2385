package prompt

import (
	"io"

	"github.com/valyala/fasttemplate"
)

// Placeholder is the literal replaced by the stored transcription.
const Placeholder = "{transcription}"

const (
	placeholderStart = "{transcription"
	placeholderEnd   = "}"
)

// Render substitutes the first occurrence of {transcription} in template with
// transcription. Later occurrences and any other brace text are left as is.
func Render(template, transcription string) string {
	r := &renderer{transcription: transcription}
	return r.render(template)
}

type renderer struct {
	transcription string
	replaced      bool
}

func (r *renderer) render(template string) string {
	return fasttemplate.ExecuteFuncString(template, placeholderStart, placeholderEnd, r.writeTag)
}

func (r *renderer) writeTag(w io.Writer, tag string) (int, error) {
	if tag == "" {
		if r.replaced {
			return io.WriteString(w, Placeholder)
		}
		r.replaced = true
		return io.WriteString(w, r.transcription)
	}

	// Not the placeholder, e.g. "{transcriptions}". The tail may still hold one.
	n, err := io.WriteString(w, placeholderStart)
	if err != nil {
		return n, err
	}
	m, err := io.WriteString(w, r.render(tag+placeholderEnd))
	return n + m, err
}
