package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ComputeID returns the git blob hash of data, the same value `git hash-object` prints.
func ComputeID(data []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, data).String()
}

// Change is one commit touching a file.
type Change struct {
	Commit  string
	When    time.Time
	Message string
	Path    string
	// Content is nil when the commit removed the file.
	Content []byte
	Deleted bool
}

// History reads the committed history of the working branch in-process.
type History struct {
	dir string
}

// NewHistory returns a history reader over the repository at dir.
func NewHistory(dir string) *History {
	return &History{dir: dir}
}

// open returns nil without error when the repository has no commit yet.
func (h *History) open() (*gogit.Repository, error) {
	r, err := gogit.PlainOpen(h.dir)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	if _, err := r.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	return r, nil
}

// RecentPaths walks commits newest first and returns up to n distinct paths they touched,
// keeping only those accepted by keep.
func (h *History) RecentPaths(ctx context.Context, n int, keep func(path string) bool) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	r, err := h.open()
	if err != nil || r == nil {
		return nil, err
	}
	iter, err := r.Log(&gogit.LogOptions{Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	seen := map[string]bool{}
	var paths []string
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		names, err := changedPaths(ctx, c)
		if err != nil {
			return err
		}
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			if keep(name) {
				paths = append(paths, name)
				if len(paths) == n {
					return storer.ErrStop
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// changedPaths lists the files a commit changed against its first parent.
func changedPaths(ctx context.Context, c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", c.Hash, err)
	}
	parentTree := &object.Tree{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", c.Hash, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, fmt.Errorf("tree of %s: %w", parent.Hash, err)
		}
	}
	changes, err := parentTree.DiffContext(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", c.Hash, err)
	}
	names := make([]string, 0, len(changes))
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		names = append(names, name)
	}
	return names, nil
}

// FileHistory returns every commit that changed path, newest first.
func (h *History) FileHistory(ctx context.Context, path string) ([]Change, error) {
	r, err := h.open()
	if err != nil || r == nil {
		return nil, err
	}
	iter, err := r.Log(&gogit.LogOptions{FileName: &path, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var changes []Change
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch := Change{
			Commit:  c.Hash.String(),
			When:    c.Author.When,
			Message: c.Message,
			Path:    path,
		}
		f, err := c.File(path)
		switch {
		case errors.Is(err, object.ErrFileNotFound):
			ch.Deleted = true
		case err != nil:
			return fmt.Errorf("read %s at %s: %w", path, c.Hash, err)
		default:
			contents, err := f.Contents()
			if err != nil {
				return fmt.Errorf("read %s at %s: %w", path, c.Hash, err)
			}
			ch.Content = []byte(contents)
		}
		changes = append(changes, ch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}
