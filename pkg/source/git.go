package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git reads sources as they were committed at a revision, so coverage from
// a CI build can be aligned after the working tree has moved on.
type Git struct {
	config Config
	root   string
	base   string
	commit plumbing.Hash

	mu   sync.Mutex
	tree *object.Tree
}

// NewGit opens the repository containing cfg.Root (or the working
// directory) and resolves cfg.Revision.
func NewGit(cfg Config) (*Git, error) {
	base := cfg.Root
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", base, err)
	}

	repo, err := git.PlainOpenWithOptions(base, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	revision := cfg.Revision
	if revision == "" {
		revision = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ref %s: %w", revision, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	return &Git{
		config: cfg,
		root:   wt.Filesystem.Root(),
		base:   base,
		commit: commit.Hash,
		tree:   tree,
	}, nil
}

// Commit returns the resolved commit hash.
func (p *Git) Commit() string {
	return p.commit.String()
}

// Read implements Provider. Filenames outside the repository are reported
// as ErrNotFound.
func (p *Git) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := p.treePath(filename)
	if err != nil {
		return nil, err
	}

	// Object storage is not safe for concurrent readers.
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, fmt.Errorf("%s at %s: %w", path, p.commit, ErrNotFound)
		}
		return nil, fmt.Errorf("looking up %s: %w", path, err)
	}
	if p.config.MaxFileSize > 0 && f.Size > p.config.MaxFileSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, f.Size, ErrTooLarge)
	}

	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", path, err)
	}
	return []byte(content), nil
}

// treePath maps a reported filename to a slash-separated path inside the
// repository tree.
func (p *Git) treePath(filename string) (string, error) {
	abs := filename
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.base, abs)
	}

	rel, err := filepath.Rel(p.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s: %w", filename, p.root, ErrNotFound)
	}
	return filepath.ToSlash(rel), nil
}
