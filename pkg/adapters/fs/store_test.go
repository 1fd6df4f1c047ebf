package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/git"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	s := NewStore(cfg)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStore_ReadModify(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Config{})
	writeDoc(t, s.Root, "notes/a.md", "---\ntask: true\n---\nbody\n")

	got, err := s.Read(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "---\ntask: true\n---\nbody\n", got)

	require.NoError(t, s.Modify(ctx, "notes/a.md", "---\ntask: false\n---\nbody\n"))
	got, err = s.Read(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "---\ntask: false\n---\nbody\n", got)

	state := s.State().(StoreState)
	assert.Equal(t, uint64(1), state.Writes)
	assert.Equal(t, DefaultSystemDir, state.SystemDir)
	assert.DirExists(t, filepath.Join(s.Root, DefaultSystemDir))
}

func TestStore_ModifyKeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	s := newTestStore(t, Config{})
	full := filepath.Join(s.Root, "private.md")
	require.NoError(t, os.WriteFile(full, []byte("x"), 0600))

	require.NoError(t, s.Modify(context.Background(), "private.md", "y"))

	info, err := os.Stat(full)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_ReadOnly(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "original")
	s := newTestStore(t, Config{Root: root, ReadOnly: true})

	err := s.Modify(context.Background(), "a.md", "changed")
	assert.True(t, errors.Is(err, core.ErrReadOnly))

	data, _ := os.ReadFile(filepath.Join(root, "a.md"))
	assert.Equal(t, "original", string(data))
	assert.NoDirExists(t, filepath.Join(root, DefaultSystemDir))
}

func TestStore_RejectsEscapingPaths(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	for _, p := range []string{"../outside.md", "a/../../outside.md"} {
		_, err := s.Read(ctx, p)
		assert.Error(t, err, p)
		assert.Error(t, s.Modify(ctx, p, "x"), p)
	}
	_, err := s.Read(ctx, filepath.Join(filepath.Dir(s.Root), "elsewhere.md"))
	assert.Error(t, err)
}

func TestStore_InitializeMissingRoot(t *testing.T) {
	s := NewStore(Config{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, s.Initialize(context.Background()))
}

func TestStore_Documents(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "b.md", "")
	writeDoc(t, root, "a.md", "")
	writeDoc(t, root, "notes/c.md", "")
	writeDoc(t, root, "notes/draft/d.md", "")
	writeDoc(t, root, "image.png", "")
	writeDoc(t, root, ".git/HEAD", "")

	s := newTestStore(t, Config{
		Root:    root,
		Include: []string{"**/*.md"},
		Ignore:  []string{"notes/draft/**"},
	})

	docs, err := s.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md", "notes/c.md"}, docs)

	assert.True(t, s.Matches("x/y.md"))
	assert.False(t, s.Matches("notes/draft/z.md"))
	assert.False(t, s.Matches(".fenced/index.json"))
	assert.False(t, s.Matches("image.png"))
}

func TestStore_Sweep(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeDoc(t, root, "a.md", "a")
	writeDoc(t, root, "b.md", "b")
	s := newTestStore(t, Config{Root: root})

	t.Run("First Sweep Returns Everything", func(t *testing.T) {
		changed, err := s.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.md", "b.md"}, changed)
		assert.FileExists(t, filepath.Join(root, DefaultSystemDir, "index.json"))
	})

	t.Run("Nothing Changed", func(t *testing.T) {
		changed, err := s.Sweep(ctx)
		require.NoError(t, err)
		assert.Empty(t, changed)
	})

	t.Run("Own Writes Are Not Offline Edits", func(t *testing.T) {
		require.NoError(t, s.Modify(ctx, "a.md", "a, rewritten by us"))
		changed, err := s.Sweep(ctx)
		require.NoError(t, err)
		assert.Empty(t, changed)
	})

	t.Run("External Edits Are Found After Restart", func(t *testing.T) {
		writeDoc(t, root, "b.md", "b, edited elsewhere")
		writeDoc(t, root, "c.md", "new")

		restarted := newTestStore(t, Config{Root: root})
		changed, err := restarted.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b.md", "c.md"}, changed)
		assert.NotNil(t, restarted.State().(StoreState).LastSweep)
	})
}

func TestStore_Versioning(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	s := newTestStore(t, Config{Versioning: true})
	_, _ = s.git.Run("config", "user.email", "test@example.com")
	_, _ = s.git.Run("config", "user.name", "Test")

	gitignore, err := os.ReadFile(filepath.Join(s.Root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(gitignore), ".fenced/\n")
	assert.Contains(t, string(gitignore), ".fenced.lock\n")

	writeDoc(t, s.Root, "a.md", "---\n---\n")

	t.Run("Reason From Context", func(t *testing.T) {
		reasonCtx := core.WithChangeReason(ctx, git.PopulateMessage("a.md", []string{"status"}))
		require.NoError(t, s.Modify(reasonCtx, "a.md", "---\nstatus: todo\n---\n"))

		subject, err := s.git.Run("log", "-1", "--format=%s")
		require.NoError(t, err)
		assert.Equal(t, "fix(frontmatter): populate defaults in a.md", subject)
	})

	t.Run("Default Reason", func(t *testing.T) {
		require.NoError(t, s.Modify(ctx, "a.md", "---\nstatus: done\n---\n"))

		subject, err := s.git.Run("log", "-1", "--format=%s")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(subject, "chore: update a.md"), subject)
	})

	assert.True(t, s.State().(StoreState).Versioning)
	assert.NoFileExists(t, filepath.Join(s.Root, ".fenced.lock"))
}
