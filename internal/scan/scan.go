// Package scan discovers the build systems of every project below a set of
// root directories.
package scan

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gobwas/glob"

	"github.com/pyproject-tools/pybuild/internal/config"
	"github.com/pyproject-tools/pybuild/internal/logging"
	"github.com/pyproject-tools/pybuild/internal/metrics"
	"github.com/pyproject-tools/pybuild/internal/policy"
	"github.com/pyproject-tools/pybuild/internal/pool"
	"github.com/pyproject-tools/pybuild/internal/progress"
	"github.com/pyproject-tools/pybuild/internal/pyproject"
	"github.com/pyproject-tools/pybuild/internal/report"
	"github.com/pyproject-tools/pybuild/pkg/buildsys"
)

// Service finds project files matching the include globs and not matching the
// exclude globs, and discovers each project in parallel.
type Service struct {
	include  []glob.Glob
	exclude  []glob.Glob
	pool     *pool.Pool
	loader   *pyproject.Loader
	policy   *policy.Policy
	log      *logging.Logger
	progress io.Writer
}

func New(c config.Scan) (*Service, error) {
	include, err := compile(c.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compile(c.Exclude)
	if err != nil {
		return nil, err
	}

	loader, err := pyproject.NewLoader(c.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Service{
		include: include,
		exclude: exclude,
		pool:    pool.New(c.Workers),
		loader:  loader,
		log:     logging.NewNop(),
	}, nil
}

// WithPolicy checks every discovered descriptor against p.
func (s *Service) WithPolicy(p *policy.Policy) *Service {
	s.policy = p
	return s
}

func (s *Service) WithLogger(log *logging.Logger) *Service {
	s.log = log
	return s
}

// WithProgress draws a progress bar to w while projects are discovered.
func (s *Service) WithProgress(w io.Writer) *Service {
	s.progress = w
	return s
}

// Find returns the project directories below root, as root joined with the
// slash-separated relative directory. If root is a file, its directory is the
// only project.
func (s *Service) Find(ctx context.Context, root string) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if !fi.IsDir() {
		return []string{filepath.Dir(root)}, nil
	}

	var projects []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && match(s.exclude, rel+"/") {
				s.log.Debugf("skipping excluded directory %q", rel)
				return filepath.SkipDir
			}
			return nil
		}

		if path.Base(rel) != pyproject.FileName || !match(s.include, rel) || match(s.exclude, rel) {
			return nil
		}

		projects = append(projects, filepath.Join(root, filepath.FromSlash(path.Dir(rel))))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return projects, nil
}

// Run discovers every project below roots. Failures of single projects are
// recorded in their entries; the returned error is reserved for failures of
// the scan itself, such as a missing root or a failing policy. Entries are
// sorted by project path.
func (s *Service) Run(ctx context.Context, roots []string) ([]report.Entry, error) {
	seen := make(map[string]struct{})
	var projects []string
	for _, root := range roots {
		found, err := s.Find(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			projects = append(projects, p)
		}
	}

	s.log.Debugf("found %d projects in %d roots", len(projects), len(roots))

	var bar *progress.Bar
	if s.progress != nil && len(projects) > 0 {
		bar = progress.New(s.progress, len(projects), "discovering")
		defer bar.Finish()
	}

	entries, err := pool.Map(ctx, s.pool, projects, func(ctx context.Context, project string) (report.Entry, error) {
		defer bar.Add(1)
		return s.discover(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	report.Sort(entries)
	return entries, nil
}

func (s *Service) discover(ctx context.Context, project string) (report.Entry, error) {
	start := time.Now()
	desc, err := s.loader.Discover(project)
	metrics.DiscoveryDuration.Observe(time.Since(start).Seconds())

	name := filepath.ToSlash(project)
	entry := report.NewEntry(name, desc, err)
	if err != nil {
		metrics.DiscoveryFailed.WithLabelValues(entry.ErrorKind).Inc()
		if entry.ErrorKind == report.KindError {
			s.log.Warnf("failed to discover project %q: %v", name, err)
		} else {
			s.log.Debugf("project %q: %v", name, err)
		}
		return entry, nil
	}

	metrics.DiscoveryCount.WithLabelValues(desc.BackendModule(), strconv.FormatBool(desc.IsDefault())).Inc()
	s.log.Debugf("project %q uses backend %q", name, desc.Backend())

	if s.policy != nil {
		violations, err := s.policy.Evaluate(ctx, name, desc)
		if err != nil {
			return report.Entry{}, fmt.Errorf("project %s: %w", name, err)
		}
		if len(violations) > 0 {
			metrics.PolicyViolations.Add(float64(len(violations)))
			s.log.Debugf("project %q violates policy: %v", name, violations)
		}
		entry.Violations = violations
	}

	return entry, nil
}

// Discover resolves the single project at root, checked against the policy
// if one is set.
func (s *Service) Discover(ctx context.Context, root string) (*buildsys.BuildDescriptor, []string, error) {
	desc, err := s.loader.Discover(root)
	if err != nil {
		metrics.DiscoveryFailed.WithLabelValues(cmp.Or(buildsys.Kind(err), report.KindError)).Inc()
		return nil, nil, err
	}
	if s.policy == nil {
		return desc, nil, nil
	}
	violations, err := s.policy.Evaluate(ctx, filepath.ToSlash(root), desc)
	if err != nil {
		return nil, nil, err
	}
	return desc, violations, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func match(globs []glob.Glob, p string) bool {
	for _, g := range globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}
