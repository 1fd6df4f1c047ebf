package validate

import (
	"fmt"
	"strings"
)

// Errors collects the validation errors of one record.
type Errors struct {
	Issues []Issue
}

func (e *Errors) Error() string {
	switch len(e.Issues) {
	case 0:
		return "no validation errors"
	case 1:
		return e.Issues[0].String()
	}

	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e.Issues), strings.Join(msgs, "\n  - "))
}

// ForField returns the issues reported for key.
func (e *Errors) ForField(key string) []Issue {
	var out []Issue
	for _, issue := range e.Issues {
		if issue.Field == key {
			out = append(out, issue)
		}
	}
	return out
}
