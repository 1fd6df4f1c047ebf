package git

import (
	"strings"
)

// Commit types for semantic commit messages.
const (
	CommitTypeFeat  = "feat"
	CommitTypeFix   = "fix"
	CommitTypeChore = "chore"
)

const footer = "Powered-by: fenced"

// FormatCommitMessage builds a Conventional Commit message:
//
//	<type>(<scope>): <subject>
//
//	<body>
//
//	Powered-by: fenced
func FormatCommitMessage(ctype, scope, subject, body string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = CommitTypeChore
	}
	sb.WriteString(ctype)

	if scope != "" {
		sb.WriteString("(")
		sb.WriteString(scope)
		sb.WriteString(")")
	}

	sb.WriteString(": ")
	sb.WriteString(subject)

	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	sb.WriteString("\n\n")
	sb.WriteString(footer)

	return sb.String()
}

// PopulateMessage is the commit message of an auto-populate write.
func PopulateMessage(path string, keys []string) string {
	var body string
	if len(keys) > 0 {
		body = "Filled: " + strings.Join(keys, ", ")
	}
	return FormatCommitMessage(CommitTypeFix, "frontmatter", "populate defaults in "+path, body)
}

// ReorderMessage is the commit message of a list reorder.
func ReorderMessage(path, region string) string {
	return FormatCommitMessage(CommitTypeChore, region, "reorder items in "+path, "")
}

// AppendFooter appends the footer to a free-form message if not present.
func AppendFooter(msg string) string {
	if strings.Contains(msg, footer) {
		return msg
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if !strings.HasSuffix(msg, "\n\n") {
		msg += "\n"
	}
	return msg + footer
}
