// Package container wires the changeplan infrastructure into the
// application use cases.
package container

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/relicta-tech/changeplan/internal/application/planning"
	"github.com/relicta-tech/changeplan/internal/config"
	"github.com/relicta-tech/changeplan/internal/errors"
	"github.com/relicta-tech/changeplan/internal/infrastructure/changesetfs"
	gitadapter "github.com/relicta-tech/changeplan/internal/infrastructure/git"
	"github.com/relicta-tech/changeplan/internal/infrastructure/manifest"
	"github.com/relicta-tech/changeplan/internal/infrastructure/persistence"
)

// Container provides dependency injection for the changeplan commands.
type Container struct {
	root   string
	config *config.Config
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool

	// Infrastructure layer
	reader     *changesetfs.Reader
	writer     *changesetfs.Writer
	preState   *persistence.PreStateRepository
	discoverer *manifest.Discoverer
	gitRepo    *gitadapter.Repository

	// Application layer use cases
	planReleaseUC  *planning.PlanReleaseUseCase
	preModeUC      *planning.PreModeUseCase
	addChangesetUC *planning.AddChangesetUseCase
}

// New creates a container for the workspace rooted at root.
func New(root string, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.Config("container.New", "configuration is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.IOWrap(err, "container.New", "failed to resolve workspace root")
	}
	return &Container{
		root:   abs,
		config: cfg,
		logger: slog.Default(),
	}, nil
}

// NewInitialized creates and initializes a container.
func NewInitialized(ctx context.Context, root string, cfg *config.Config) (*Container, error) {
	c, err := New(root, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Initialize initializes all layers of the container.
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.State("container.Initialize", "container is closed")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.KindCanceled, "container.Initialize", "operation canceled")
	}

	c.initInfrastructure()
	c.initApplicationLayer()
	return nil
}

func (c *Container) initInfrastructure() {
	c.reader = changesetfs.NewReader(c.resolve(c.config.Workspace.ChangesetDir))
	c.writer = changesetfs.NewWriter(c.resolve(c.config.Workspace.ChangesetDir))
	c.preState = persistence.NewPreStateRepository(c.resolve(c.config.Workspace.PreStateFile))
	c.discoverer = manifest.NewDiscoverer(c.logger)

	repo, err := gitadapter.Open(c.root)
	if err != nil {
		// Not every workspace is a git checkout; --since and {commit} report it.
		c.logger.Debug("git repository unavailable", "root", c.root, "error", err)
		return
	}
	c.gitRepo = repo
}

func (c *Container) initApplicationLayer() {
	ws := planning.Workspace{Root: c.root, Config: c.config}

	// A nil *Repository must not reach the use case as a non-nil interface.
	var gitRepo planning.GitRepository
	if c.gitRepo != nil {
		gitRepo = c.gitRepo
	}

	c.planReleaseUC = planning.NewPlanReleaseUseCase(ws, c.discoverer, c.reader, c.preState, gitRepo)
	c.preModeUC = planning.NewPreModeUseCase(ws, c.discoverer, c.preState)
	c.addChangesetUC = planning.NewAddChangesetUseCase(ws, c.discoverer, c.writer)
}

func (c *Container) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.root, p)
}

// Root returns the absolute workspace root.
func (c *Container) Root() string {
	return c.root
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// ChangesetDir returns the absolute changeset directory.
func (c *Container) ChangesetDir() string {
	return c.resolve(c.config.Workspace.ChangesetDir)
}

// PreStateFile returns the absolute pre state file path.
func (c *Container) PreStateFile() string {
	return c.resolve(c.config.Workspace.PreStateFile)
}

// HasGit reports whether the workspace is inside a git repository.
func (c *Container) HasGit() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gitRepo != nil
}

// PlanRelease returns the plan release use case.
func (c *Container) PlanRelease() *planning.PlanReleaseUseCase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.planReleaseUC
}

// PreMode returns the pre mode use case.
func (c *Container) PreMode() *planning.PreModeUseCase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preModeUC
}

// AddChangeset returns the add changeset use case.
func (c *Container) AddChangeset() *planning.AddChangesetUseCase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.addChangesetUC
}

// Close releases the container. Use cases obtained earlier keep working;
// Initialize fails afterwards.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
