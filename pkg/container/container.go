package container

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/sourcegraph/conc/panics"

	"github.com/chazu/loom/pkg/artifact"
	"github.com/chazu/loom/pkg/config"
	"github.com/chazu/loom/pkg/graph"
	"github.com/chazu/loom/pkg/producer"
	"github.com/chazu/loom/pkg/resolve"
	"github.com/chazu/loom/pkg/schema"
)

// Option configures a container at construction.
type Option func(*Container)

// WithLogger sets the logger the container reports build progress through.
// The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(c *Container) {
		c.log = log
	}
}

// Container orchestrates a single build: it owns the registry, the shared
// host context, the raw configuration, and, once built, the artifact map.
//
// Lifecycle: Created -> zero or more Register calls -> exactly one Build ->
// Built. Built is terminal and is entered as soon as Build is called,
// success or not; a failed build leaves the container unusable and the host
// must construct a fresh one to retry.
//
// Execution is single-threaded and strictly sequential. The topological
// order is a total order over producers, and each producer sees only
// artifacts built earlier in that order.
type Container struct {
	log      logr.Logger
	context  any
	raw      config.Raw
	registry *producer.Registry

	artifacts *artifact.Map
	built     bool
	buildErr  error
}

// New creates a container with the shared host context, the raw
// configuration document, and any initial producer definitions. The context
// is opaque and read-only from the core's perspective; the raw configuration
// is sliced per provided name and passed through unexamined.
func New(hostContext any, raw config.Raw, defs []producer.Definition, opts ...Option) (*Container, error) {
	c := &Container{
		log:      logr.Discard(),
		context:  hostContext,
		raw:      raw,
		registry: producer.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a producer definition. Valid only before Build.
func (c *Container) Register(def producer.Definition) error {
	if c.built {
		return &RegistrationAfterBuildError{Name: def.Name}
	}
	return c.registry.Add(def)
}

// Built reports whether Build has been called, regardless of its outcome.
func (c *Container) Built() bool {
	return c.built
}

// Build constructs every enabled producer's artifact in dependency order.
//
// The registry is closed and the container marked built on entry, so a
// second call fails with DuplicateBuildError even when this one errors. The
// build aborts synchronously on the first failure; artifacts already stored
// in the failed attempt stay in memory but are not retrievable.
func (c *Container) Build() error {
	if c.built {
		return &DuplicateBuildError{}
	}
	c.built = true

	c.buildErr = c.build()
	return c.buildErr
}

func (c *Container) build() error {
	dag, err := c.buildGraph()
	if err != nil {
		return err
	}

	order := dag.Order()
	c.log.Info("building container", "producers", len(order))
	c.artifacts = artifact.NewMap()

	for _, name := range order {
		def, err := c.registry.Get(name)
		if err != nil {
			return err
		}
		if err := c.buildOne(def); err != nil {
			return err
		}
	}

	c.log.Info("container built",
		"artifacts", c.artifacts.Len(),
		"fingerprint", c.artifacts.Fingerprint())
	return nil
}

// buildGraph derives the dependency graph from the registry. A required
// name that resolves to no registered producer fails fast, before any
// producer runs. An optional name with no registered producer contributes
// no edge; it will simply resolve to an explicit absence.
func (c *Container) buildGraph() (*graph.DAG, error) {
	defs := c.registry.Definitions()
	nodes := make([]graph.Node, 0, len(defs))
	for _, def := range defs {
		dependsOn := make([]string, 0, len(def.Requires)+len(def.Optional))
		for _, depName := range def.Requires {
			if !c.registry.Has(depName) {
				return nil, fmt.Errorf("producer %q: %w",
					def.Name, &producer.UnknownProducerError{Name: depName})
			}
			dependsOn = append(dependsOn, depName)
		}
		for _, depName := range def.Optional {
			if c.registry.Has(depName) {
				dependsOn = append(dependsOn, depName)
			}
		}
		nodes = append(nodes, graph.Node{ID: def.Name, DependsOn: dependsOn})
	}
	return graph.Build(nodes)
}

// buildOne drives a single producer through its lifecycle: resolve, construct,
// enabled gate, validation, requirement loading, build.
func (c *Container) buildOne(def producer.Definition) error {
	merged, err := config.Merge(def.Defaults, c.raw.Slice(def.Name))
	if err != nil {
		return fmt.Errorf("producer %q: %w", def.Name, err)
	}

	deps, err := resolve.Resolve(def, c.artifacts)
	if err != nil {
		return err
	}

	log := c.log.WithValues("producer", def.Name, "config", config.Fingerprint(merged))

	p := def.New(producer.Inputs{
		Context: c.context,
		Config:  merged,
		Deps:    deps,
	})
	if p == nil {
		return fmt.Errorf("producer %q: constructor returned nil", def.Name)
	}

	if !p.Enabled() {
		log.V(1).Info("producer disabled, recording absence")
		return c.artifacts.SetAbsent(def.Name)
	}

	if v, ok := p.(producer.ConfigValidator); ok {
		if err := guard(def.Name, "ValidateConfig", v.ValidateConfig); err != nil {
			return nameError(def.Name, err)
		}
	}

	// LoadRequirements runs at most once per build and is never retried;
	// instances are constructed fresh per build attempt and the container
	// builds once, so one invocation here is exactly once.
	if loader, ok := p.(producer.RequirementsLoader); ok {
		if err := guard(def.Name, "LoadRequirements", loader.LoadRequirements); err != nil {
			return nameError(def.Name, err)
		}
	}

	start := time.Now()
	var built artifact.Artifact
	err = guard(def.Name, "Build", func() error {
		var buildErr error
		built, buildErr = p.Build()
		return buildErr
	})
	if err != nil {
		return nameError(def.Name, err)
	}

	if err := c.artifacts.Set(def.Name, built); err != nil {
		return err
	}
	log.V(1).Info("produced artifact", "duration", time.Since(start))
	return nil
}

// guard invokes a lifecycle hook with panic containment: a panic escaping
// the hook becomes a ProducerPanicError instead of unwinding into the host.
func guard(name, hook string, fn func() error) error {
	var err error
	if recovered := panics.Try(func() { err = fn() }); recovered != nil {
		return &ProducerPanicError{Producer: name, Hook: hook, Value: recovered.Value}
	}
	return err
}

// Fetch returns the artifact stored under name. It fails with
// UnknownProducerError both for names never registered and for names whose
// producer was disabled and therefore recorded no artifact. Before a
// successful build there is nothing to fetch.
func (c *Container) Fetch(name string) (artifact.Artifact, error) {
	if !c.built {
		return nil, ErrNotBuilt
	}
	if c.buildErr != nil {
		return nil, fmt.Errorf("container build failed: %w", c.buildErr)
	}
	if !c.registry.Has(name) {
		return nil, &producer.UnknownProducerError{Name: name}
	}
	if !c.artifacts.Present(name) {
		return nil, &producer.UnknownProducerError{Name: name}
	}
	value, _ := c.artifacts.Get(name)
	return value, nil
}

// ToMap returns a copy of the artifact map containing only present
// artifacts. Absent entries (disabled producers) are omitted; their absence
// is observable through Fetch's error. Returns nil unless a build completed
// successfully.
func (c *Container) ToMap() map[string]artifact.Artifact {
	if !c.built || c.buildErr != nil {
		return nil
	}
	return c.artifacts.Snapshot()
}

// nameError makes sure an error escaping a producer's lifecycle names that
// producer. Typed errors that carry the name are annotated in place;
// anything else is wrapped.
func nameError(name string, err error) error {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		if ve.Producer == "" {
			ve.Producer = name
		}
		return err
	}

	var ne *producer.NotImplementedError
	if errors.As(err, &ne) {
		if ne.Producer == "" {
			ne.Producer = name
		}
		return err
	}

	var pe *ProducerPanicError
	if errors.As(err, &pe) {
		return err
	}

	return fmt.Errorf("producer %q: %w", name, err)
}
