package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, "projects", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "portfolio.mdx", `---
title: Portfolio Website
slug: portfolio-website
summary: This site.
date: 2025-01-10
tech: [Go, SQLite]
featured: true
links:
  github: https://github.com/example/portfolio
---
# Body is ignored
`)
	writeProject(t, dir, "mobile/ios-text-to-speech.md", `---
title: iOS Text to Speech
date: 2024-06-01
tech: [Swift, Go]
---
`)
	writeProject(t, dir, "notes.txt", "not content")

	c, err := LoadCatalog(dir)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	all := c.All()
	assert.Equal(t, "portfolio-website", all[0].Slug)
	assert.Equal(t, "ios-text-to-speech", all[1].Slug, "slug falls back to file name")
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), all[0].Date)
	require.NotNil(t, all[0].Links)
	assert.Equal(t, "https://github.com/example/portfolio", all[0].Links.GitHub)

	assert.True(t, c.Has("ios-text-to-speech"))
	assert.False(t, c.Has("unknown"))
	assert.Len(t, c.Featured(), 1)
	assert.Equal(t, []string{"Go", "SQLite", "Swift"}, c.Skills())
}

func TestLoadCatalog_MissingDirIsEmpty(t *testing.T) {
	c, err := LoadCatalog(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoadCatalog_DuplicateSlug(t *testing.T) {
	dir := t.TempDir()
	doc := "---\ntitle: A\nslug: same\ndate: 2024-01-01\n---\n"
	writeProject(t, dir, "a.md", doc)
	writeProject(t, dir, "b.md", doc)

	_, err := LoadCatalog(dir)
	assert.ErrorContains(t, err, "duplicate project slug")
}

func TestFrontMatter_Errors(t *testing.T) {
	_, err := frontMatter([]byte("# no front matter"))
	assert.Error(t, err)

	_, err = frontMatter([]byte("---\ntitle: x\n"))
	assert.Error(t, err)
}

func TestNewCatalog_SortsNewestFirst(t *testing.T) {
	c := NewCatalog(
		Project{Slug: "old", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		Project{Slug: "new", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	)
	p, ok := c.Get("new")
	require.True(t, ok)
	assert.Equal(t, "new", p.Slug)
	assert.Equal(t, "new", c.All()[0].Slug)
}
