// Package fenced keeps the metadata regions of plain-text documents in shape.
//
// A document opts in with `task: true` in its YAML frontmatter. From then on
// every change is debounced per document region and run through a pipeline:
// missing fields are filled from the schema defaults and written back in
// place, and the populated region is validated against the built-in fields
// plus a persisted list of custom fields. Validation never blocks a write;
// errors and warnings go to a notifier.
//
// Everything outside the region is preserved byte for byte, including line
// endings, so documents stay diff friendly.
//
// Usage:
//
//	app, err := fenced.New("./notes",
//		fenced.WithLogger(logger),
//		fenced.WithVersioning(false),
//	)
//
//	// Populate and validate every document once
//	results, err := app.Fix(ctx)
//
//	// Or keep doing it on every change until ctx is cancelled
//	err = app.Watch(ctx)
package fenced
