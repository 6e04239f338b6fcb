// Package usecase holds the policy store: an immutable policy snapshot shared
// by every request pipeline, swapped atomically on reload.
package usecase

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/allisson/pdns-gateway/internal/errors"
	"github.com/allisson/pdns-gateway/internal/policy/domain"
	"github.com/allisson/pdns-gateway/internal/policy/repository"
	"github.com/allisson/pdns-gateway/internal/policy/service"
)

// snapshot is one fully loaded policy set with its token index. It is never
// mutated after construction; reload replaces the whole snapshot.
type snapshot struct {
	doc           *repository.Document
	byFingerprint map[string]*domain.Environment
}

func newSnapshot(doc *repository.Document) *snapshot {
	byFingerprint := make(map[string]*domain.Environment, len(doc.Environments))
	for _, env := range doc.Environments {
		byFingerprint[env.TokenFingerprint] = env
	}
	return &snapshot{doc: doc, byFingerprint: byFingerprint}
}

// Store resolves bearer tokens to environments against the current policy
// snapshot. Reads never lock; in-flight requests keep the snapshot they
// resolved even while a reload swaps in a new one.
type Store struct {
	repo         *repository.FileRepository
	fingerprints service.FingerprintService
	logger       *slog.Logger
	current      atomic.Pointer[snapshot]
}

// NewStore loads the policy document once and fails if it is invalid; the
// gateway must not start with a partially valid policy set.
func NewStore(
	repo *repository.FileRepository,
	fingerprints service.FingerprintService,
	logger *slog.Logger,
) (*Store, error) {
	s := &Store{
		repo:         repo,
		fingerprints: fingerprints,
		logger:       logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Document returns the policy document of the current snapshot.
func (s *Store) Document() *repository.Document {
	return s.current.Load().doc
}

// ResolveToken maps a bearer token to its environment via the token's SHA-512
// fingerprint. Fails with ErrNotAuthenticated for unknown tokens.
func (s *Store) ResolveToken(token string) (*domain.Environment, error) {
	snap := s.current.Load()
	env, ok := snap.byFingerprint[s.fingerprints.Fingerprint(token)]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return env, nil
}

// Reload loads the policy document from disk and atomically swaps it in.
// On failure the previous snapshot stays active.
func (s *Store) Reload() error {
	doc, err := s.repo.Load()
	if err != nil {
		return apperrors.Wrap(err, "failed to reload policy")
	}

	s.current.Store(newSnapshot(doc))
	s.logger.Info("policy loaded",
		slog.String("path", s.repo.Path()),
		slog.Int("environments", len(doc.Environments)),
	)
	return nil
}

// Watch reloads the policy whenever the document changes on disk, until the
// context is cancelled. The parent directory is watched so that atomic
// replace-by-rename (the common editor and configuration-management pattern)
// is picked up as well. A failed reload keeps the previous snapshot.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Wrap(err, "failed to create policy watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(s.repo.Path())
	if err := watcher.Add(dir); err != nil {
		return apperrors.Wrap(err, "failed to watch policy directory")
	}

	target := filepath.Clean(s.repo.Path())
	s.logger.Info("watching policy document", slog.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Error("policy reload failed, keeping previous snapshot",
					slog.Any("error", err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("policy watcher error", slog.Any("error", err))
		}
	}
}
