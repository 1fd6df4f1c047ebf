package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fenced/pkg/config"
	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/defaults"
	"github.com/aretw0/fenced/pkg/notify"
	"github.com/aretw0/fenced/pkg/pipeline"
	"github.com/aretw0/fenced/pkg/schema"
	"github.com/aretw0/fenced/pkg/validate"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

// memStore is an in-memory core.DocumentStore.
type memStore struct {
	mu        sync.Mutex
	docs      map[string]string
	writes    int
	failWrite error
	reasons   []string
}

func newMemStore(docs map[string]string) *memStore {
	return &memStore{docs: docs}
}

func (s *memStore) Read(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[path]
	if !ok {
		return "", errors.New("no such document")
	}
	return text, nil
}

func (s *memStore) Modify(ctx context.Context, path, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	s.docs[path] = text
	s.writes++
	if reason, ok := core.ChangeReason(ctx); ok {
		s.reasons = append(s.reasons, reason)
	}
	return nil
}

func (s *memStore) get(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[path]
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func newPipeline(t *testing.T, store core.DocumentStore, rec *notify.Recorder, mutate ...func(*pipeline.Config)) *pipeline.Pipeline {
	t.Helper()
	reg, err := schema.NewRegistry(config.NewMemoryStore(config.Defaults()))
	require.NoError(t, err)

	cfg := pipeline.Config{
		Store:        store,
		Schema:       reg,
		Assigner:     defaults.NewAssigner(fixedNow, config.DefaultStatus, config.DefaultPriority),
		Validator:    validate.NewValidator(fixedNow),
		Notifier:     rec,
		AutoPopulate: true,
		Validate:     true,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return pipeline.New(cfg)
}

func TestRun_PopulateThenValidate(t *testing.T) {
	store := newMemStore(map[string]string{
		"fix-login-bug.md": "---\ntask: true\n---\n# Notes\n\nSteps to reproduce.\n",
	})
	rec := &notify.Recorder{}
	p := newPipeline(t, store, rec)
	ctx := context.Background()

	first, err := p.Run(ctx, "fix-login-bug.md", nil)
	require.NoError(t, err)
	assert.True(t, first.Wrote)
	assert.Nil(t, first.Validation, "a writing run does not validate")
	assert.Equal(t, []string{"title", "created", "status", "priority"}, first.Filled)
	assert.NotEmpty(t, first.RunID)

	want := "---\ntask: true\ntitle: fix login bug\ncreated: 2024-03-15\nstatus: todo\npriority: medium\n---\n# Notes\n\nSteps to reproduce.\n"
	assert.Equal(t, want, store.get("fix-login-bug.md"))

	second, err := p.Run(ctx, "fix-login-bug.md", nil)
	require.NoError(t, err)
	assert.False(t, second.Wrote)
	require.NotNil(t, second.Validation)
	assert.True(t, second.Validation.Valid)
	assert.Equal(t, 1, store.writeCount(), "a settled document is not rewritten")
	assert.Empty(t, rec.All())
}

func TestRun_SkipsWithoutTouching(t *testing.T) {
	tests := map[string]struct {
		doc    string
		reason string
	}{
		"no frontmatter":   {"# Just text\n", pipeline.ReasonNoRegion},
		"not a task":       {"---\ntitle: Journal\n---\n", pipeline.ReasonNotApplicable},
		"task false":       {"---\ntask: false\n---\n", pipeline.ReasonNotApplicable},
		"malformed":        {"---\ntask: true\ntitle: [oops\n---\n", pipeline.ReasonMalformed},
		"frontmatter late": {"intro\n---\ntask: true\n---\n", pipeline.ReasonNoRegion},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := newMemStore(map[string]string{"doc.md": tc.doc})
			rec := &notify.Recorder{}

			res, err := newPipeline(t, store, rec).Run(context.Background(), "doc.md", nil)
			require.NoError(t, err)
			assert.True(t, res.Skipped)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, tc.doc, store.get("doc.md"))
			assert.Zero(t, store.writeCount())
			assert.Empty(t, rec.All())
		})
	}
}

func TestRun_ValidationNotifies(t *testing.T) {
	store := newMemStore(map[string]string{
		"a.md": "---\ntask: true\ntitle: A\ncreated: 2024-03-01\nstatus: done\npriority: urgent\n---\n",
	})
	rec := &notify.Recorder{}

	res, err := newPipeline(t, store, rec).Run(context.Background(), "a.md", nil)
	require.NoError(t, err)
	assert.False(t, res.Wrote)
	require.NotNil(t, res.Validation)
	assert.False(t, res.Validation.Valid)

	all := rec.All()
	require.Len(t, all, 2)
	assert.Equal(t, notify.Notification{Level: "error", Doc: "a.md", Messages: []string{"priority: must be one of: low, medium, high"}}, all[0])
	assert.Equal(t, "warning", all[1].Level)
	assert.Contains(t, all[1].Messages[0], "completed")
}

func TestRun_PersistenceFailure(t *testing.T) {
	doc := "---\ntask: true\n---\nbody\n"
	store := newMemStore(map[string]string{"a.md": doc})
	store.failWrite = errors.New("disk full")
	rec := &notify.Recorder{}

	res, err := newPipeline(t, store, rec).Run(context.Background(), "a.md", nil)

	var perr *core.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "a.md", perr.Path)
	assert.False(t, res.Wrote)
	assert.Equal(t, doc, store.get("a.md"))

	all := rec.All()
	require.Len(t, all, 1)
	assert.Equal(t, "error", all[0].Level)
	assert.Contains(t, all[0].Messages[0], "disk full")
}

func TestRun_ReadFailure(t *testing.T) {
	_, err := newPipeline(t, newMemStore(map[string]string{}), &notify.Recorder{}).Run(context.Background(), "gone.md", nil)
	assert.Error(t, err)
}

func TestRun_StaleRunDiscardsWork(t *testing.T) {
	doc := "---\ntask: true\npriority: urgent\n---\n"
	store := newMemStore(map[string]string{"a.md": doc})
	rec := &notify.Recorder{}
	p := newPipeline(t, store, rec)

	res, err := p.Run(context.Background(), "a.md", func() bool { return true })
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, pipeline.ReasonSuperseded, res.Reason)
	assert.Equal(t, doc, store.get("a.md"))
	assert.Empty(t, rec.All())
}

func TestRun_Toggles(t *testing.T) {
	doc := "---\ntask: true\nstatus: blocked\n---\n"

	t.Run("validate only", func(t *testing.T) {
		store := newMemStore(map[string]string{"a.md": doc})
		rec := &notify.Recorder{}
		p := newPipeline(t, store, rec, func(c *pipeline.Config) { c.AutoPopulate = false })

		res, err := p.Run(context.Background(), "a.md", nil)
		require.NoError(t, err)
		assert.False(t, res.Wrote)
		require.NotNil(t, res.Validation)
		assert.False(t, res.Validation.Valid)
		assert.Len(t, rec.All(), 1)
	})

	t.Run("both disabled", func(t *testing.T) {
		store := newMemStore(map[string]string{"a.md": doc})
		p := newPipeline(t, store, &notify.Recorder{}, func(c *pipeline.Config) {
			c.AutoPopulate = false
			c.Validate = false
		})

		res, err := p.Run(context.Background(), "a.md", nil)
		require.NoError(t, err)
		assert.Equal(t, pipeline.ReasonDisabled, res.Reason)
	})
}

func TestRun_VersionedWritesCarryReason(t *testing.T) {
	store := newMemStore(map[string]string{"notes/a.md": "---\ntask: true\n---\n"})
	p := newPipeline(t, store, &notify.Recorder{}, func(c *pipeline.Config) { c.Versioned = true })

	_, err := p.Run(context.Background(), "notes/a.md", nil)
	require.NoError(t, err)
	require.Len(t, store.reasons, 1)
	assert.True(t, strings.HasPrefix(store.reasons[0], "fix(frontmatter): populate defaults in notes/a.md"))
}

func TestRun_PreservesCRLFAndBody(t *testing.T) {
	doc := "---\r\ntask: true\r\ntitle: Keep\r\ncreated: 2024-01-02\r\n---\r\nline 1\r\n---\r\nline 3\r\n"
	store := newMemStore(map[string]string{"a.md": doc})

	_, err := newPipeline(t, store, &notify.Recorder{}).Run(context.Background(), "a.md", nil)
	require.NoError(t, err)

	got := store.get("a.md")
	assert.Equal(t, "---\r\ntask: true\r\ntitle: Keep\r\ncreated: 2024-01-02\r\nstatus: todo\r\npriority: medium\r\n---\r\nline 1\r\n---\r\nline 3\r\n", got)
}
