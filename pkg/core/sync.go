package core

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// SyncStatus is the outcome of a single shadow push or merge.
type SyncStatus int

const (
	// SyncSuccess means the step completed.
	SyncSuccess SyncStatus = iota
	// SyncToFetch means the remote holds history this side has not merged yet.
	SyncToFetch
	// SyncConflict means the merge stopped on conflicting changes.
	SyncConflict
	// SyncUnknown covers every other failure.
	SyncUnknown
)

func (s SyncStatus) String() string {
	switch s {
	case SyncSuccess:
		return "SUCCESS"
	case SyncToFetch:
		return "TOFETCH"
	case SyncConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// SyncState is the position of the service in a sync session.
type SyncState string

const (
	SyncIdle         SyncState = "idle"
	SyncPushing      SyncState = "pushing"
	SyncNeedsFetch   SyncState = "needs_fetch"
	SyncFetching     SyncState = "fetching"
	SyncMerging      SyncState = "merging"
	SyncDone         SyncState = "done"
	SyncConflictStop SyncState = "conflict"
	SyncFailed       SyncState = "failed"
)

// maxPushAttempts bounds a push session to the first attempt plus one retry after a fetch.
const maxPushAttempts = 2

const conflictHint = "automatic merge failed, resolve the conflict manually, then retry"

// SyncState returns the state the last sync session ended in.
func (s *Service) SyncState() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncState
}

func (s *Service) setState(st SyncState) {
	s.mu.Lock()
	s.syncState = st
	s.mu.Unlock()
}

func (s *Service) prepareSync(ctx context.Context, op, remote string) error {
	if s.syncer == nil {
		return ErrNoSyncer
	}
	if err := s.syncer.ShadowInit(ctx); err != nil {
		s.setState(SyncFailed)
		return &SyncError{Op: op, Status: SyncUnknown, Diagnostic: err.Error(), Hint: "could not prepare the shadow history"}
	}
	if err := s.syncer.SetRemote(ctx, remote); err != nil {
		s.setState(SyncFailed)
		return &SyncError{Op: op, Status: SyncUnknown, Diagnostic: err.Error(), Hint: "invalid remote"}
	}
	return nil
}

// Push publishes the local history to remote.
//
// A push the remote rejects as behind triggers one fetch and merge followed by one more
// push. Anything short of success after that is returned as a *SyncError, never retried.
func (s *Service) Push(ctx context.Context, remote string) error {
	log := s.logger.With("op", "push", "remote", remote, "session", uuid.NewString())
	if err := s.prepareSync(ctx, "push", remote); err != nil {
		return err
	}

	var (
		status SyncStatus
		diag   string
	)
	for attempt := 1; attempt <= maxPushAttempts; attempt++ {
		s.setState(SyncPushing)
		status, diag = s.syncer.ShadowPush(ctx, remote)
		log.Debug("push attempt", "attempt", attempt, "status", status.String())

		if status == SyncSuccess {
			s.setState(SyncDone)
			log.Info("push done")
			return nil
		}
		if status != SyncToFetch || attempt == maxPushAttempts {
			break
		}

		// Same cycle as Fetch, preparation included.
		s.setState(SyncNeedsFetch)
		if err := s.prepareSync(ctx, "fetch", remote); err != nil {
			return err
		}
		if err := s.fetch(ctx, remote, log); err != nil {
			return err
		}
	}

	s.setState(SyncFailed)
	log.Warn("push failed", "status", status.String())
	return &SyncError{Op: "push", Status: status, Diagnostic: diag, Hint: pushHint(status)}
}

func pushHint(st SyncStatus) string {
	if st == SyncToFetch {
		return "remote is still ahead, fetch and push again"
	}
	return ""
}

// Fetch retrieves the remote history and merges it into the local one.
// A conflicting merge is left for the user and reported as a *SyncError with status SyncConflict.
func (s *Service) Fetch(ctx context.Context, remote string) error {
	log := s.logger.With("op", "fetch", "remote", remote, "session", uuid.NewString())
	if err := s.prepareSync(ctx, "fetch", remote); err != nil {
		return err
	}
	if err := s.fetch(ctx, remote, log); err != nil {
		return err
	}
	s.setState(SyncDone)
	log.Info("fetch done")
	return nil
}

func (s *Service) fetch(ctx context.Context, remote string, log *slog.Logger) error {
	s.setState(SyncFetching)
	if err := s.syncer.ShadowFetch(ctx, remote); err != nil {
		s.setState(SyncFailed)
		log.Warn("fetch failed", "error", err)
		return &SyncError{Op: "fetch", Status: SyncUnknown, Diagnostic: err.Error()}
	}

	s.setState(SyncMerging)
	status, diag := s.syncer.ShadowMerge(ctx, remote)
	log.Debug("merge", "status", status.String())
	switch status {
	case SyncSuccess:
		return nil
	case SyncConflict:
		s.setState(SyncConflictStop)
		log.Warn("merge conflict")
		return &SyncError{Op: "fetch", Status: SyncConflict, Diagnostic: diag, Hint: conflictHint}
	default:
		s.setState(SyncFailed)
		log.Warn("merge failed", "status", status.String())
		return &SyncError{Op: "fetch", Status: status, Diagnostic: diag}
	}
}
