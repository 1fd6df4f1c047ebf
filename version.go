package fenced

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the released version of fenced.
var Version = strings.TrimSpace(rawVersion)
