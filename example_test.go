package fenced_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/fenced"
)

// Example_fix demonstrates how to open a root and populate a document once.
func Example_fix() {
	tmpDir, err := os.MkdirTemp("", "fenced-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	doc := filepath.Join(tmpDir, "write-docs.md")
	if err := os.WriteFile(doc, []byte("---\ntask: true\n---\nSee the wiki.\n"), 0644); err != nil {
		log.Fatal(err)
	}

	app, err := fenced.New(tmpDir,
		fenced.WithVersioning(false),
		fenced.WithClock(func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := app.Fix(context.Background()); err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile(doc)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(data))
	// Output:
	// ---
	// task: true
	// title: write docs
	// created: 2024-03-15
	// status: todo
	// priority: medium
	// ---
	// See the wiki.
}
