// Package content loads the project catalog from the front matter of the
// markdown files under the content directory. It is read-only: the metrics
// layer never validates slugs against it.
package content

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var frontMatterDelim = []byte("---")

// Links are the optional external links of a project.
type Links struct {
	GitHub string `yaml:"github" json:"github,omitempty"`
	Live   string `yaml:"live" json:"live,omitempty"`
}

// Project is one entry of the catalog.
type Project struct {
	Title      string    `yaml:"title" json:"title"`
	Slug       string    `yaml:"slug" json:"slug"`
	Summary    string    `yaml:"summary" json:"summary"`
	Date       time.Time `yaml:"date" json:"date"`
	Tech       []string  `yaml:"tech" json:"tech"`
	Role       string    `yaml:"role" json:"role"`
	Links      *Links    `yaml:"links" json:"links,omitempty"`
	CoverImage string    `yaml:"coverImage" json:"coverImage,omitempty"`
	Featured   bool      `yaml:"featured" json:"featured"`
}

// Catalog is the ordered set of projects, newest first.
type Catalog struct {
	projects []Project
	bySlug   map[string]int
}

// LoadCatalog reads dir/projects recursively. A missing directory yields an
// empty catalog; a malformed file or a duplicate slug is an error.
func LoadCatalog(dir string) (*Catalog, error) {
	root := filepath.Join(dir, "projects")
	c := &Catalog{bySlug: map[string]int{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isContentFile(path) {
			return nil
		}

		p, err := parseFile(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if p.Slug == "" {
			p.Slug = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return fmt.Errorf("duplicate project slug %q in %s", p.Slug, path)
		}
		c.bySlug[p.Slug] = len(c.projects)
		c.projects = append(c.projects, p)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("Content directory not found, project catalog is empty", "dir", root)
			return c, nil
		}
		return nil, err
	}

	c.sort()
	log.Info("Project catalog loaded", "projects", len(c.projects))
	return c, nil
}

// NewCatalog builds a catalog from projects already in memory.
func NewCatalog(projects ...Project) *Catalog {
	c := &Catalog{bySlug: map[string]int{}}
	c.projects = append(c.projects, projects...)
	c.sort()
	return c
}

// All returns the projects, newest first.
func (c *Catalog) All() []Project {
	return append([]Project(nil), c.projects...)
}

// Featured returns the featured projects, newest first.
func (c *Catalog) Featured() []Project {
	var out []Project
	for _, p := range c.projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Get looks up a project by slug.
func (c *Catalog) Get(slug string) (Project, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Project{}, false
	}
	return c.projects[i], true
}

// Has reports whether slug names a known project.
func (c *Catalog) Has(slug string) bool {
	_, ok := c.bySlug[slug]
	return ok
}

// Len returns the number of projects.
func (c *Catalog) Len() int {
	return len(c.projects)
}

// Skills returns the sorted set of technologies used across projects.
func (c *Catalog) Skills() []string {
	seen := map[string]struct{}{}
	for _, p := range c.projects {
		for _, t := range p.Tech {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) sort() {
	sort.SliceStable(c.projects, func(i, j int) bool {
		return c.projects[i].Date.After(c.projects[j].Date)
	})
	for i, p := range c.projects {
		c.bySlug[p.Slug] = i
	}
}

func isContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

func parseFile(path string) (Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Project{}, err
	}
	fm, err := frontMatter(raw)
	if err != nil {
		return Project{}, err
	}

	var p Project
	if err := yaml.Unmarshal(fm, &p); err != nil {
		return Project{}, fmt.Errorf("front matter: %w", err)
	}
	return p, nil
}

// frontMatter returns the YAML block between the leading "---" lines.
func frontMatter(raw []byte) ([]byte, error) {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() || !bytes.Equal(bytes.TrimSpace(sc.Bytes()), frontMatterDelim) {
		return nil, errors.New("missing front matter")
	}

	var buf bytes.Buffer
	for sc.Scan() {
		line := sc.Bytes()
		if bytes.Equal(bytes.TrimSpace(line), frontMatterDelim) {
			return buf.Bytes(), nil
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("unterminated front matter")
}
