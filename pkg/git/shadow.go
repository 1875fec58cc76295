package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/aretw0/logbook/pkg/core"
)

// Shadow history defaults.
const (
	ShadowBranch = "logbook-shadow"
	SyncRemote   = "logbook-sync"
	shadowDir    = "shadow"
)

// Shadow synchronizes through a secondary branch checked out in its own worktree, so merges
// never touch the working files until they succeed.
type Shadow struct {
	client   *Client
	branch   string
	remote   string
	worktree string
}

// ShadowOption configures a Shadow.
type ShadowOption func(*Shadow)

// WithBranch overrides the shadow branch name.
func WithBranch(name string) ShadowOption {
	return func(s *Shadow) {
		if name != "" {
			s.branch = name
		}
	}
}

// WithRemoteName overrides the name under which remote specs are registered.
func WithRemoteName(name string) ShadowOption {
	return func(s *Shadow) {
		if name != "" {
			s.remote = name
		}
	}
}

// NewShadow returns a Syncer over the repository of client.
func NewShadow(client *Client, opts ...ShadowOption) *Shadow {
	s := &Shadow{
		client:   client,
		branch:   ShadowBranch,
		remote:   SyncRemote,
		worktree: filepath.Join(client.WorkDir, SystemDir, shadowDir),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Branch returns the shadow branch name.
func (s *Shadow) Branch() string { return s.branch }

var _ core.Syncer = (*Shadow)(nil)

// Worktree returns the path where merges happen and conflicts are left.
func (s *Shadow) Worktree() string { return s.worktree }

func (s *Shadow) inTree(ctx context.Context, args ...string) (string, error) {
	return s.client.RunIn(ctx, s.worktree, args...)
}

// ShadowInit creates the shadow branch and worktree when missing, then brings both
// histories level: the working branch is merged into the shadow branch, which the
// working branch then fast-forwards to.
func (s *Shadow) ShadowInit(ctx context.Context) error {
	unlock, err := s.client.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if !s.client.HasHead(ctx) {
		return fmt.Errorf("%s has no commit yet", s.client.WorkDir)
	}
	working, err := s.client.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("resolve working branch: %w", err)
	}

	ref := "refs/heads/" + s.branch
	if _, err := s.client.Run(ctx, "rev-parse", "--verify", "--quiet", ref); err != nil {
		if _, err := s.client.Run(ctx, "branch", s.branch, "HEAD"); err != nil {
			return err
		}
	}

	if _, err := os.Stat(filepath.Join(s.worktree, ".git")); err != nil {
		if _, err := s.client.Run(ctx, "worktree", "prune"); err != nil {
			return err
		}
		if _, err := s.client.Run(ctx, "worktree", "add", s.worktree, s.branch); err != nil {
			return err
		}
	}

	unmerged, err := s.unmerged(ctx)
	if err != nil {
		return err
	}
	if len(unmerged) > 0 {
		return fmt.Errorf("unresolved conflict in %s: %s", s.worktree, strings.Join(unmerged, ", "))
	}
	// A conflict resolved by the user is concluded here.
	if s.merging(ctx) {
		if _, err := s.inTree(ctx, "commit", "--no-edit"); err != nil {
			return err
		}
	}

	if _, err := s.inTree(ctx, "merge", "--no-edit", working); err != nil {
		s.inTree(ctx, "merge", "--abort")
		return fmt.Errorf("merge %s into %s: %w", working, s.branch, err)
	}
	if _, err := s.client.Run(ctx, "merge", "--ff-only", s.branch); err != nil {
		return fmt.Errorf("fast-forward %s: %w", working, err)
	}
	return nil
}

func (s *Shadow) unmerged(ctx context.Context) ([]string, error) {
	out, err := s.inTree(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (s *Shadow) merging(ctx context.Context) bool {
	_, err := s.inTree(ctx, "rev-parse", "--verify", "--quiet", "MERGE_HEAD")
	return err == nil
}

// ValidateRemote rejects specs git could read as an option or that cannot be one argument.
func ValidateRemote(remote string) error {
	if remote == "" {
		return fmt.Errorf("remote is empty")
	}
	if strings.HasPrefix(remote, "-") {
		return fmt.Errorf("remote %q starts with '-'", remote)
	}
	for _, r := range remote {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("remote %q contains whitespace or control characters", remote)
		}
	}
	return nil
}

// resolveRemote maps a configured remote name to itself and anything else to the sync remote.
func (s *Shadow) resolveRemote(ctx context.Context, remote string) string {
	if remote == s.remote {
		return s.remote
	}
	out, err := s.client.Run(ctx, "remote")
	if err == nil {
		for _, name := range strings.Split(out, "\n") {
			if name == remote {
				return remote
			}
		}
	}
	return s.remote
}

// SetRemote registers remote under the sync remote name unless it already names a remote.
func (s *Shadow) SetRemote(ctx context.Context, remote string) error {
	if err := ValidateRemote(remote); err != nil {
		return err
	}
	if s.resolveRemote(ctx, remote) == remote {
		return nil
	}
	current, err := s.client.Run(ctx, "remote", "get-url", s.remote)
	if err != nil {
		_, err = s.client.Run(ctx, "remote", "add", s.remote, remote)
		return err
	}
	if current == remote {
		return nil
	}
	_, err = s.client.Run(ctx, "remote", "set-url", s.remote, remote)
	return err
}

// ShadowPush publishes the shadow branch.
func (s *Shadow) ShadowPush(ctx context.Context, remote string) (core.SyncStatus, string) {
	name := s.resolveRemote(ctx, remote)
	refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", s.branch, s.branch)
	out, err := s.client.Run(ctx, "push", name, refspec)
	if err == nil {
		return core.SyncSuccess, out
	}
	diag := err.Error()
	return pushStatus(diag), diag
}

// pushStatus classifies a failed push. Only a local rejection because the remote moved ahead
// asks for a fetch; hooks, protected branches and transport errors stay unknown.
func pushStatus(diag string) core.SyncStatus {
	for _, line := range strings.Split(diag, "\n") {
		if strings.Contains(line, "[remote rejected]") {
			continue
		}
		if strings.Contains(line, "non-fast-forward") || strings.Contains(line, "fetch first") {
			return core.SyncToFetch
		}
	}
	return core.SyncUnknown
}

func (s *Shadow) stagingRef(name string) string {
	return fmt.Sprintf("refs/remotes/%s/%s", name, s.branch)
}

// ShadowFetch downloads the remote shadow branch into the staging ref.
// A remote without the branch yet is not an error.
func (s *Shadow) ShadowFetch(ctx context.Context, remote string) error {
	name := s.resolveRemote(ctx, remote)
	refspec := fmt.Sprintf("+refs/heads/%s:%s", s.branch, s.stagingRef(name))
	if _, err := s.client.Run(ctx, "fetch", name, refspec); err != nil {
		if strings.Contains(err.Error(), "couldn't find remote ref") {
			return nil
		}
		return err
	}
	return nil
}

// ShadowMerge merges the staging ref into the shadow branch and fast-forwards the working
// branch to the result. A conflict is left in the shadow worktree for the user.
func (s *Shadow) ShadowMerge(ctx context.Context, remote string) (core.SyncStatus, string) {
	staging := s.stagingRef(s.resolveRemote(ctx, remote))
	if _, err := s.client.Run(ctx, "rev-parse", "--verify", "--quiet", staging); err != nil {
		return core.SyncSuccess, ""
	}

	if _, err := s.inTree(ctx, "merge", "--no-edit", "--allow-unrelated-histories", staging); err != nil {
		unmerged, uerr := s.unmerged(ctx)
		if uerr == nil && len(unmerged) > 0 {
			return core.SyncConflict, fmt.Sprintf("conflicting files: %s\nresolve them in %s and commit",
				strings.Join(unmerged, ", "), s.worktree)
		}
		s.inTree(ctx, "merge", "--abort")
		return core.SyncUnknown, err.Error()
	}

	unlock, err := s.client.Lock(ctx)
	if err != nil {
		return core.SyncUnknown, err.Error()
	}
	defer unlock()
	if _, err := s.client.Run(ctx, "merge", "--ff-only", s.branch); err != nil {
		return core.SyncUnknown, err.Error()
	}
	return core.SyncSuccess, ""
}
