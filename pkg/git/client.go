package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// SystemDir holds the lock, the shadow worktree, and anything else that must never be committed.
const SystemDir = ".logbook"

const lockName = "lock"

// Identity is the name and email recorded as author and committer.
type Identity struct {
	Name  string
	Email string
}

// ParseIdentity splits "Name <email>". A bare name yields an empty email.
func ParseIdentity(s string) Identity {
	s = strings.TrimSpace(s)
	open := strings.LastIndex(s, "<")
	if open < 0 || !strings.HasSuffix(s, ">") {
		return Identity{Name: s}
	}
	return Identity{
		Name:  strings.TrimSpace(s[:open]),
		Email: strings.TrimSpace(s[open+1 : len(s)-1]),
	}
}

func (id Identity) String() string {
	if id.Email == "" {
		return id.Name
	}
	return fmt.Sprintf("%s <%s>", id.Name, id.Email)
}

// Client wraps git command execution with a global file-based lock for process safety.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	Identity Identity
	lockPath string
}

// NewClient creates a new git client for the given working directory.
func NewClient(workDir string, identity Identity, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		Identity: identity,
		lockPath: filepath.Join(SystemDir, lockName),
	}
}

// ErrLocked is returned when the lock cannot be acquired before the context is done.
var ErrLocked = errors.New("data directory is locked by another process")

// Lock acquires a file-based lock. It blocks until the lock is acquired or ctx is done.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)
	if err := os.MkdirAll(filepath.Dir(fullLockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0o666)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Run executes a raw git command in the working directory.
// NOTE: It does NOT acquire the lock automatically. The caller must manage transaction safety via Client.Lock().
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	return c.RunIn(ctx, c.WorkDir, args...)
}

// RunIn executes a git command in dir with the client identity.
func (c *Client) RunIn(ctx context.Context, dir string, args ...string) (string, error) {
	c.Logger.Debug("executing git", "args", args, "dir", dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), c.env()...)

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

func (c *Client) env() []string {
	var env []string
	if c.Identity.Name != "" {
		env = append(env, "GIT_AUTHOR_NAME="+c.Identity.Name, "GIT_COMMITTER_NAME="+c.Identity.Name)
	}
	if c.Identity.Email != "" {
		env = append(env, "GIT_AUTHOR_EMAIL="+c.Identity.Email, "GIT_COMMITTER_EMAIL="+c.Identity.Email)
	}
	return append(env, "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
}

// IsInstalled reports whether the git binary is on the PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether the working directory is the top of a git repository.
func (c *Client) IsRepo() bool {
	_, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil
}

// Init initializes a new git repository if one doesn't exist.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// Add adds files to the stage.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Rm removes files from the working tree and from the index.
func (c *Client) Rm(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"rm", "-f", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Unstage resets the index entries of files to HEAD, leaving the working tree alone.
func (c *Client) Unstage(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"reset", "-q", "HEAD", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Restore checks files out of HEAD into the index and the working tree.
func (c *Client) Restore(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"checkout", "HEAD", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Commit records the staged changes.
func (c *Client) Commit(ctx context.Context, msg string) error {
	_, err := c.Run(ctx, "commit", "-m", msg)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (c *Client) HasStagedChanges(ctx context.Context) (bool, error) {
	_, err := c.Run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// HasHead reports whether the repository has at least one commit.
func (c *Client) HasHead(ctx context.Context) bool {
	_, err := c.Run(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	return c.Run(ctx, "symbolic-ref", "--short", "HEAD")
}

// Status returns the porcelain status of the repo.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.Run(ctx, "status", "--porcelain")
}
