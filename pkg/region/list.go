package region

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/fenced/pkg/core"
)

// itemPattern matches "<bullet><optional checkbox><text>" at column zero.
var itemPattern = regexp.MustCompile(`^([-*+]|(\d+)([.)]))([ \t]+)(\[[ xX]\][ \t]+)?(.*)$`)

// Item is one entry of a list region. Indented or blank lines following an
// item belong to it and move with it.
type Item struct {
	Bullet   string // "-", "*", "+", or the ordinal with its delimiter, e.g. "3."
	Checkbox string // "", "[ ]" or "[x]"
	Text     string
	Extra    []string

	raw       string
	ordinal   bool
	delimiter string
	gap       string
	boxGap    string
}

// Checked reports whether the item carries a ticked checkbox.
func (it Item) Checked() bool {
	return strings.EqualFold(it.Checkbox, "[x]")
}

// Lines returns how many document lines the item spans.
func (it Item) Lines() int {
	return 1 + len(it.Extra)
}

// ParseList splits the body of a list region into items. Blank lines before
// the first item are skipped.
func ParseList(r *Region) ([]Item, error) {
	if r == nil {
		return nil, core.ErrRegionNotFound
	}
	if strings.TrimSpace(r.Body) == "" {
		return nil, nil
	}

	lead, lines := splitLead(r.Body)
	var items []Item
	for i, line := range lines {
		m := itemPattern.FindStringSubmatch(line)
		if m == nil {
			if len(items) == 0 {
				return nil, &core.ParseError{Line: len(lead) + i + 1, Err: fmt.Errorf("expected a list item, got %q", line)}
			}
			last := &items[len(items)-1]
			last.Extra = append(last.Extra, line)
			continue
		}

		it := Item{
			Bullet:  m[1],
			Text:    m[6],
			raw:     line,
			ordinal: m[2] != "",
			gap:     m[4],
		}
		if it.ordinal {
			it.delimiter = m[3]
		}
		if box := m[5]; box != "" {
			it.Checkbox = box[:3]
			it.boxGap = box[3:]
		}
		items = append(items, it)
	}
	return items, nil
}

// splitLead separates the blank lines that open body from the rest.
func splitLead(body string) (lead, rest []string) {
	lines := strings.Split(body, "\n")
	n := 0
	for n < len(lines) && strings.TrimSpace(lines[n]) == "" {
		n++
	}
	return lines[:n], lines[n:]
}

// FormatList renders items back into body text. Ordinal bullets are
// renumbered from 1 in their new order; every other item keeps its original
// bytes, so a reorder only changes line positions.
func FormatList(items []Item) string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		lines = append(lines, it.render(i+1))
		lines = append(lines, it.Extra...)
	}
	return strings.Join(lines, "\n")
}

func (it Item) render(position int) string {
	if it.raw != "" && !it.ordinal {
		return it.raw
	}

	bullet := it.Bullet
	gap := it.gap
	if gap == "" {
		gap = " "
	}
	if it.ordinal {
		bullet = strconv.Itoa(position) + it.delimiter
	}

	var b strings.Builder
	b.WriteString(bullet)
	b.WriteString(gap)
	if it.Checkbox != "" {
		b.WriteString(it.Checkbox)
		if it.boxGap != "" {
			b.WriteString(it.boxGap)
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString(it.Text)
	return b.String()
}

// Move returns a copy of items with the item at from placed at index to.
func Move(items []Item, from, to int) ([]Item, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("%w: move %d -> %d with %d items", core.ErrIndexOutOfRange, from, to, len(items))
	}
	out := make([]Item, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	moved := items[from]
	out = append(out[:to], append([]Item{moved}, out[to:]...)...)
	return out, nil
}

// Reorder moves one item of the list region delimited by m and returns the
// rewritten document. The region is located again in document, and since a
// move is a permutation of whole items the total line count never changes.
func Reorder(document string, m Markers, from, to int) (string, error) {
	r := Locate(document, m)
	if r == nil {
		return document, fmt.Errorf("%w: %s", core.ErrRegionNotFound, m.Name)
	}

	items, err := ParseList(r)
	if err != nil {
		return document, err
	}
	if from == to {
		if from < 0 || from >= len(items) {
			return document, fmt.Errorf("%w: %d", core.ErrIndexOutOfRange, from)
		}
		return document, nil
	}

	moved, err := Move(items, from, to)
	if err != nil {
		return document, err
	}
	lead, _ := splitLead(r.Body)
	body := append(append([]string(nil), lead...), FormatList(moved))
	return Splice(document, r, strings.Join(body, "\n")), nil
}
