// Package region locates a delimited block inside a text document, decodes it
// and splices a new body back without touching any line outside the block.
//
// Boundaries are always recomputed from the text being rewritten: a Region is
// a view of one specific document text and must not be reused across reads.
package region

import (
	"strings"
)

const bom = "\ufeff"

// Markers are the fence lines bounding a region.
type Markers struct {
	// Name identifies the region kind, e.g. "frontmatter" or "tasks".
	Name  string
	Start string
	End   string
	// Anchored requires the start marker to be the first line of the document.
	Anchored bool
}

// Frontmatter returns the markers of a YAML frontmatter block.
func Frontmatter() Markers {
	return Markers{Name: "frontmatter", Start: "---", End: "---", Anchored: true}
}

// FencedList returns the markers of a fenced code block of the given kind,
// e.g. ```tasks ... ```.
func FencedList(kind string) Markers {
	return Markers{Name: kind, Start: "```" + kind, End: "```"}
}

// Region is one located block. Start and End are the half-open line range of
// the body; the fence lines themselves are outside it.
type Region struct {
	Markers Markers
	Start   int
	End     int
	// Body is the body text with line endings normalized to "\n".
	Body string

	crlf bool
}

// Lines returns the number of body lines.
func (r *Region) Lines() int {
	return r.End - r.Start
}

// Locate finds the first complete marker pair in document.
// It returns nil when there is none.
func Locate(document string, m Markers) *Region {
	lines := strings.Split(document, "\n")

	start := -1
	for i, line := range lines {
		if i == 0 {
			line = strings.TrimPrefix(line, bom)
		}
		if start < 0 {
			if matches(line, m.Start) {
				start = i
				continue
			}
			if m.Anchored {
				return nil
			}
			continue
		}
		if matches(line, m.End) {
			body := make([]string, 0, i-start-1)
			for _, l := range lines[start+1 : i] {
				body = append(body, strings.TrimSuffix(l, "\r"))
			}
			return &Region{
				Markers: m,
				Start:   start + 1,
				End:     i,
				Body:    strings.Join(body, "\n"),
				crlf:    strings.HasSuffix(lines[start], "\r"),
			}
		}
	}
	return nil
}

func matches(line, marker string) bool {
	return strings.TrimRight(line, " \t\r") == marker
}

// Splice replaces the body of r inside document with body. Every line
// outside [r.Start, r.End) is kept byte for byte; the line count of the
// result is the count outside the region plus the lines of body.
func Splice(document string, r *Region, body string) string {
	lines := strings.Split(document, "\n")

	var repl []string
	if body != "" {
		repl = strings.Split(body, "\n")
	}
	if r.crlf {
		for i := range repl {
			repl[i] += "\r"
		}
	}

	out := make([]string, 0, len(lines)-r.Lines()+len(repl))
	out = append(out, lines[:r.Start]...)
	out = append(out, repl...)
	out = append(out, lines[r.End:]...)
	return strings.Join(out, "\n")
}

// LineCount counts the lines of text the way Locate splits them.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}
