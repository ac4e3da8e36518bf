package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/observability"
	"avatio/internal/repository"
	"avatio/internal/storage"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultSweepGraceWindow is the minimum age of an unreferenced object
// before the sweep may delete it.
const DefaultSweepGraceWindow = 24 * time.Hour

// SweepOptions controls one sweep run.
type SweepOptions struct {
	// DryRun reports what would be deleted without deleting anything.
	DryRun bool
}

// SweepFailure is one object the sweep could not delete.
type SweepFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// SweepReport lists the outcome of a run. Setup and User hold deleted keys,
// or the keys that would be deleted in a dry run.
type SweepReport struct {
	Setup          []string       `json:"setup"`
	User           []string       `json:"user"`
	NoNeedDeleting []string       `json:"noNeedDeleting"`
	Failed         []SweepFailure `json:"failed"`
	DryRun         bool           `json:"dryRun"`
}

// SweepService deletes stored images that no database row references.
type SweepService struct {
	refs     repository.ImageReferenceRepository
	store    storage.ObjectStore
	resolver storage.URLResolver
	grace    time.Duration

	// Now is the clock used for the grace window.
	Now func() time.Time
}

// NewSweepService returns a SweepService. A non-positive grace uses DefaultSweepGraceWindow.
func NewSweepService(refs repository.ImageReferenceRepository, store storage.ObjectStore, resolver storage.URLResolver, grace time.Duration) *SweepService {
	if grace <= 0 {
		grace = DefaultSweepGraceWindow
	}
	return &SweepService{
		refs:     refs,
		store:    store,
		resolver: resolver,
		grace:    grace,
		Now:      time.Now,
	}
}

var sweepNamespaces = []string{storage.SetupNamespace, storage.AvatarNamespace}

// Run reconciles the object store against the database. Listing failures
// abort with an UpstreamError; per-object failures land in the report.
func (s *SweepService) Run(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	start := time.Now()
	span, ctx := observability.NewSpan(ctx, "sweep.unused_images", attribute.Bool("sweep.dry_run", opts.DryRun))
	defer span.End()
	defer observability.ObserveSweep(opts.DryRun, start)

	referenced, stored, err := s.load(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	report := &SweepReport{
		Setup:          []string{},
		User:           []string{},
		NoNeedDeleting: []string{},
		Failed:         []SweepFailure{},
		DryRun:         opts.DryRun,
	}
	cutoff := s.Now().Add(-s.grace)

	for _, ns := range sweepNamespaces {
		for _, obj := range stored[ns] {
			if _, ok := referenced[ns][obj.Key]; ok {
				continue
			}
			if obj.LastModified.After(cutoff) {
				report.NoNeedDeleting = append(report.NoNeedDeleting, obj.Key)
				observability.SweepObjects.WithLabelValues(ns, "recent").Inc()
				continue
			}
			if opts.DryRun {
				report.add(ns, obj.Key)
				observability.SweepObjects.WithLabelValues(ns, "candidate").Inc()
				continue
			}
			s.remove(ctx, report, ns, obj.Key)
		}
	}

	span.AddAttributes(
		attribute.Int("sweep.setup", len(report.Setup)),
		attribute.Int("sweep.user", len(report.User)),
		attribute.Int("sweep.retained", len(report.NoNeedDeleting)),
		attribute.Int("sweep.failed", len(report.Failed)),
	)
	middleware.Logger.InfoContext(ctx, "unused image sweep finished",
		"dry_run", opts.DryRun,
		"setup", len(report.Setup),
		"user", len(report.User),
		"retained", len(report.NoNeedDeleting),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (r *SweepReport) add(ns, key string) {
	if ns == storage.AvatarNamespace {
		r.User = append(r.User, key)
		return
	}
	r.Setup = append(r.Setup, key)
}

// load fetches the three reference lists and the two namespace listings concurrently.
func (s *SweepService) load(ctx context.Context) (map[string]map[string]struct{}, map[string][]storage.Object, error) {
	g, gctx := errgroup.WithContext(ctx)

	refLists := make([][]string, 3)
	refFetchers := []func(context.Context) ([]string, error){
		s.refs.ListSetupImageURLs,
		s.refs.ListDraftImageURLs,
		s.refs.ListUserImageURLs,
	}
	for i, fetch := range refFetchers {
		g.Go(func() error {
			urls, err := fetch(gctx)
			if err != nil {
				return models.NewUpstreamError("Database", err)
			}
			refLists[i] = urls
			return nil
		})
	}

	listings := make([][]storage.Object, len(sweepNamespaces))
	for i, ns := range sweepNamespaces {
		g.Go(func() error {
			objects, err := s.store.List(gctx, ns)
			if err != nil {
				return models.NewUpstreamError("Storage", fmt.Errorf("list %s: %w", ns, err))
			}
			listings[i] = objects
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	referenced := make(map[string]map[string]struct{}, len(sweepNamespaces))
	for _, ns := range sweepNamespaces {
		referenced[ns] = map[string]struct{}{}
	}
	for _, urls := range refLists {
		for _, url := range urls {
			key, ok := s.resolver.KeyFor(url)
			if !ok {
				continue
			}
			if ns := storage.NamespaceOf(key); ns != "" {
				referenced[ns][key] = struct{}{}
			}
		}
	}

	stored := make(map[string][]storage.Object, len(sweepNamespaces))
	for i, ns := range sweepNamespaces {
		objects := listings[i]
		sort.Slice(objects, func(a, b int) bool { return objects[a].Key < objects[b].Key })
		stored[ns] = objects
	}
	return referenced, stored, nil
}

// remove re-checks that key is still unreferenced, deletes it and confirms it is gone.
func (s *SweepService) remove(ctx context.Context, report *SweepReport, ns, key string) {
	fail := func(reason string) {
		report.Failed = append(report.Failed, SweepFailure{Key: key, Reason: reason})
		observability.SweepObjects.WithLabelValues(ns, "failed").Inc()
		middleware.Logger.WarnContext(ctx, "sweep could not delete object", "key", key, "reason", reason)
	}

	inUse, err := s.refs.IsURLReferenced(ctx, s.resolver.URLFor(key))
	if err != nil {
		fail("reference check failed: " + err.Error())
		return
	}
	if inUse {
		report.NoNeedDeleting = append(report.NoNeedDeleting, key)
		observability.SweepObjects.WithLabelValues(ns, "referenced").Inc()
		return
	}

	if err := s.store.Delete(ctx, key); err != nil {
		fail("delete failed: " + err.Error())
		return
	}
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		fail("existence check failed: " + err.Error())
		return
	}
	if exists {
		fail("object still exists after delete")
		return
	}

	report.add(ns, key)
	observability.SweepObjects.WithLabelValues(ns, "deleted").Inc()
}

// StartScheduler runs a deleting sweep every interval until ctx is done.
func (s *SweepService) StartScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	middleware.Logger.Info("unused image sweep scheduled", "interval", interval.String())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Run(ctx, SweepOptions{}); err != nil {
					middleware.Logger.Error("scheduled sweep failed", "error", err)
				}
			}
		}
	}()
}
