package container_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chazu/loom/pkg/artifact"
	"github.com/chazu/loom/pkg/config"
	"github.com/chazu/loom/pkg/container"
	"github.com/chazu/loom/pkg/graph"
	"github.com/chazu/loom/pkg/producer"
	"github.com/chazu/loom/pkg/resolve"
	"github.com/chazu/loom/pkg/schema"
)

// testProducer is a configurable producer for driving the container through
// its lifecycle in tests.
type testProducer struct {
	producer.Base
	in      producer.Inputs
	enabled bool
	buildFn func(in producer.Inputs) (artifact.Artifact, error)
}

func (p *testProducer) Enabled() bool { return p.enabled }

func (p *testProducer) Build() (artifact.Artifact, error) {
	if p.buildFn != nil {
		return p.buildFn(p.in)
	}
	return p.Base.Build()
}

// enabledDef returns a definition that builds a constant string artifact and
// appends its name to order as it builds.
func enabledDef(name string, requires, optional []string, order *[]string) producer.Definition {
	return producer.Definition{
		Name:     name,
		Requires: requires,
		Optional: optional,
		New: func(in producer.Inputs) producer.Producer {
			return &testProducer{
				in:      in,
				enabled: true,
				buildFn: func(producer.Inputs) (artifact.Artifact, error) {
					if order != nil {
						*order = append(*order, name)
					}
					return "artifact:" + name, nil
				},
			}
		},
	}
}

// disabledDef returns a definition whose producer never enables.
func disabledDef(name string, requires []string) producer.Definition {
	return producer.Definition{
		Name:     name,
		Requires: requires,
		New: func(in producer.Inputs) producer.Producer {
			return &testProducer{in: in}
		},
	}
}

var _ = Describe("Container", func() {
	Describe("building in dependency order", func() {
		It("builds every enabled producer exactly once, dependencies first", func() {
			var order []string
			var depsSeenByC producer.Dependencies

			defs := []producer.Definition{
				enabledDef("a", nil, nil, &order),
				enabledDef("b", []string{"a"}, nil, &order),
				{
					Name:     "c",
					Requires: []string{"b"},
					Optional: []string{"d"}, // d is never registered
					New: func(in producer.Inputs) producer.Producer {
						return &testProducer{
							in:      in,
							enabled: true,
							buildFn: func(in producer.Inputs) (artifact.Artifact, error) {
								order = append(order, "c")
								depsSeenByC = in.Deps
								return "artifact:c", nil
							},
						}
					},
				},
			}

			c, err := container.New(nil, nil, defs)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(Succeed())

			By("building a, b, c in that order")
			Expect(order).To(Equal([]string{"a", "b", "c"}))

			By("resolving b's artifact and an explicit absence for d")
			Expect(depsSeenByC).To(HaveKeyWithValue("b", "artifact:b"))
			Expect(depsSeenByC).To(HaveKey("d"))
			Expect(depsSeenByC["d"]).To(BeNil())

			By("exposing the artifacts afterwards")
			Expect(c.Fetch("a")).To(Equal("artifact:a"))
			Expect(c.ToMap()).To(HaveLen(3))
		})

		It("orders independent producers by registration sequence", func() {
			run := func() []string {
				var order []string
				c, err := container.New(nil, nil, []producer.Definition{
					enabledDef("gamma", nil, nil, &order),
					enabledDef("alpha", nil, nil, &order),
					enabledDef("beta", nil, nil, &order),
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(c.Build()).To(Succeed())
				return order
			}

			first := run()
			Expect(first).To(Equal([]string{"gamma", "alpha", "beta"}))
			for i := 0; i < 10; i++ {
				Expect(run()).To(Equal(first))
			}
		})

		It("passes the host context to every producer untouched", func() {
			type hostCtx struct{ name string }
			shared := &hostCtx{name: "host"}

			var seen []*hostCtx
			def := producer.Definition{
				Name: "observer",
				New: func(in producer.Inputs) producer.Producer {
					return &testProducer{
						enabled: true,
						buildFn: func(producer.Inputs) (artifact.Artifact, error) {
							seen = append(seen, in.Context.(*hostCtx))
							return "ok", nil
						},
						in: in,
					}
				},
			}

			c, err := container.New(shared, nil, []producer.Definition{def})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(Succeed())
			Expect(seen).To(ConsistOf(shared))
		})

		It("merges defaults under the raw configuration slice", func() {
			var cfg map[string]any
			def := producer.Definition{
				Name: "logger",
				Defaults: map[string]any{
					"level":  "info",
					"format": "text",
				},
				New: func(in producer.Inputs) producer.Producer {
					return &testProducer{
						in:      in,
						enabled: true,
						buildFn: func(in producer.Inputs) (artifact.Artifact, error) {
							cfg = in.Config
							return "ok", nil
						},
					}
				},
			}

			raw := config.Raw{"logger": map[string]any{"level": "debug"}}
			c, err := container.New(nil, raw, []producer.Definition{def})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(Succeed())

			Expect(cfg).To(HaveKeyWithValue("level", "debug"), "raw wins")
			Expect(cfg).To(HaveKeyWithValue("format", "text"), "defaults survive")
		})
	})

	Describe("disabled producers", func() {
		It("records an explicit absence and keeps building", func() {
			var order []string
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("a", nil, nil, &order),
				disabledDef("skipped", []string{"a"}),
				{
					Name:     "tail",
					Requires: []string{"a"},
					Optional: []string{"skipped"},
					New: func(in producer.Inputs) producer.Producer {
						return &testProducer{
							in:      in,
							enabled: true,
							buildFn: func(in producer.Inputs) (artifact.Artifact, error) {
								order = append(order, "tail")
								Expect(in.Deps["skipped"]).To(BeNil())
								return "artifact:tail", nil
							},
						}
					},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(Succeed())
			Expect(order).To(Equal([]string{"a", "tail"}))

			By("omitting the absent entry from ToMap")
			Expect(c.ToMap()).NotTo(HaveKey("skipped"))
		})

		It("fails the build when a required dependency is disabled", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				disabledDef("f", nil),
				enabledDef("e", []string{"f"}, nil, nil),
			})
			Expect(err).NotTo(HaveOccurred())

			buildErr := c.Build()
			var missingErr *resolve.MissingDependencyError
			Expect(errors.As(buildErr, &missingErr)).To(BeTrue(), "got %v", buildErr)
			Expect(missingErr.Producer).To(Equal("e"))
			Expect(missingErr.Missing).To(Equal([]string{"f"}))
		})
	})

	Describe("lifecycle guards", func() {
		It("rejects registration after build, even a failed one", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("a", []string{"ghost"}, nil, nil),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).NotTo(Succeed())

			regErr := c.Register(enabledDef("late", nil, nil, nil))
			var afterErr *container.RegistrationAfterBuildError
			Expect(errors.As(regErr, &afterErr)).To(BeTrue(), "got %v", regErr)
			Expect(afterErr.Name).To(Equal("late"))
		})

		It("rejects a second build", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("a", nil, nil, nil),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(Succeed())

			var dupErr *container.DuplicateBuildError
			Expect(errors.As(c.Build(), &dupErr)).To(BeTrue())
		})

		It("rejects a second build after a failed first build", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				{
					Name: "boom",
					New: func(in producer.Inputs) producer.Producer {
						return &testProducer{
							in:      in,
							enabled: true,
							buildFn: func(producer.Inputs) (artifact.Artifact, error) {
								return nil, fmt.Errorf("exploded")
							},
						}
					},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).NotTo(Succeed())
			Expect(c.Built()).To(BeTrue())

			var dupErr *container.DuplicateBuildError
			Expect(errors.As(c.Build(), &dupErr)).To(BeTrue())
		})
	})

	Describe("graph failures", func() {
		It("aborts on a dependency cycle, naming its members", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("a", []string{"b"}, nil, nil),
				enabledDef("b", []string{"a"}, nil, nil),
			})
			Expect(err).NotTo(HaveOccurred())

			buildErr := c.Build()
			var cycleErr *graph.CyclicDependencyError
			Expect(errors.As(buildErr, &cycleErr)).To(BeTrue(), "got %v", buildErr)
			Expect(cycleErr.Members).To(Equal([]string{"a", "b"}))
		})

		It("treats an optional dependency on a dependent as a cycle", func() {
			// a optionally wants b, b requires a: optional edges order the
			// graph too, so this cannot be scheduled.
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("a", nil, []string{"b"}, nil),
				enabledDef("b", []string{"a"}, nil, nil),
			})
			Expect(err).NotTo(HaveOccurred())

			var cycleErr *graph.CyclicDependencyError
			Expect(errors.As(c.Build(), &cycleErr)).To(BeTrue())
		})

		It("fails fast on a required name nobody provides", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("a", []string{"ghost"}, nil, nil),
			})
			Expect(err).NotTo(HaveOccurred())

			buildErr := c.Build()
			var unknownErr *producer.UnknownProducerError
			Expect(errors.As(buildErr, &unknownErr)).To(BeTrue(), "got %v", buildErr)
			Expect(unknownErr.Name).To(Equal("ghost"))
			Expect(buildErr.Error()).To(ContainSubstring(`"a"`), "names the requesting producer")
		})
	})

	Describe("producer hooks", func() {
		It("aborts the build when configuration validation fails", func() {
			def := producer.Definition{
				Name: "strict",
				New: func(in producer.Inputs) producer.Producer {
					return &validatedProducer{in: in}
				},
			}

			c, err := container.New(nil, config.Raw{
				"strict": map[string]any{"level": "loud"},
			}, []producer.Definition{def})
			Expect(err).NotTo(HaveOccurred())

			buildErr := c.Build()
			var valErr *schema.ValidationError
			Expect(errors.As(buildErr, &valErr)).To(BeTrue(), "got %v", buildErr)
			Expect(valErr.Producer).To(Equal("strict"))
		})

		It("invokes LoadRequirements once, before Build", func() {
			var events []string
			def := producer.Definition{
				Name: "loader",
				New: func(in producer.Inputs) producer.Producer {
					return &loadingProducer{events: &events}
				},
			}

			c, err := container.New(nil, nil, []producer.Definition{def})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(Succeed())
			Expect(events).To(Equal([]string{"load", "build"}))
		})

		It("contains a panicking producer and names it", func() {
			def := producer.Definition{
				Name: "volatile",
				New: func(in producer.Inputs) producer.Producer {
					return &testProducer{
						in:      in,
						enabled: true,
						buildFn: func(producer.Inputs) (artifact.Artifact, error) {
							panic("kaboom")
						},
					}
				},
			}

			c, err := container.New(nil, nil, []producer.Definition{def})
			Expect(err).NotTo(HaveOccurred())

			buildErr := c.Build()
			var panicErr *container.ProducerPanicError
			Expect(errors.As(buildErr, &panicErr)).To(BeTrue(), "got %v", buildErr)
			Expect(panicErr.Producer).To(Equal("volatile"))
			Expect(panicErr.Hook).To(Equal("Build"))
			Expect(panicErr.Value).To(Equal("kaboom"))
		})

		It("surfaces an unoverridden Build as NotImplementedError", func() {
			def := producer.Definition{
				Name: "hollow",
				New: func(in producer.Inputs) producer.Producer {
					return &bareEnabledProducer{}
				},
			}

			c, err := container.New(nil, nil, []producer.Definition{def})
			Expect(err).NotTo(HaveOccurred())

			buildErr := c.Build()
			var notImpl *producer.NotImplementedError
			Expect(errors.As(buildErr, &notImpl)).To(BeTrue(), "got %v", buildErr)
			Expect(notImpl.Producer).To(Equal("hollow"))
			Expect(notImpl.Method).To(Equal("Build"))
		})

		It("rejects a constructor that returns nil", func() {
			def := producer.Definition{
				Name: "void",
				New:  func(in producer.Inputs) producer.Producer { return nil },
			}

			c, err := container.New(nil, nil, []producer.Definition{def})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(MatchError(ContainSubstring(`"void"`)))
		})
	})

	Describe("Fetch and ToMap", func() {
		It("fails to fetch before the container is built", func() {
			c, err := container.New(nil, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			_, fetchErr := c.Fetch("anything")
			Expect(errors.Is(fetchErr, container.ErrNotBuilt)).To(BeTrue())
			Expect(c.ToMap()).To(BeNil())
		})

		It("reports unknown names and disabled names the same way", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				disabledDef("off", nil),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).To(Succeed())

			var unknownErr *producer.UnknownProducerError
			_, fetchErr := c.Fetch("never-registered")
			Expect(errors.As(fetchErr, &unknownErr)).To(BeTrue())
			Expect(unknownErr.Name).To(Equal("never-registered"))

			_, fetchErr = c.Fetch("off")
			Expect(errors.As(fetchErr, &unknownErr)).To(BeTrue())
			Expect(unknownErr.Name).To(Equal("off"))
		})

		It("refuses to expose partial results of a failed build", func() {
			var order []string
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("first", nil, nil, &order),
				{
					Name:     "second",
					Requires: []string{"first"},
					New: func(in producer.Inputs) producer.Producer {
						return &testProducer{
							in:      in,
							enabled: true,
							buildFn: func(producer.Inputs) (artifact.Artifact, error) {
								return nil, fmt.Errorf("exploded")
							},
						}
					},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Build()).NotTo(Succeed())

			// "first" did build, but the failed attempt is not a usable
			// partial result.
			Expect(order).To(Equal([]string{"first"}))
			_, fetchErr := c.Fetch("first")
			Expect(fetchErr).To(MatchError(ContainSubstring("build failed")))
			Expect(c.ToMap()).To(BeNil())
		})
	})

	Describe("registration", func() {
		It("rejects duplicate provided names", func() {
			c, err := container.New(nil, nil, []producer.Definition{
				enabledDef("twice", nil, nil, nil),
			})
			Expect(err).NotTo(HaveOccurred())

			regErr := c.Register(enabledDef("twice", nil, nil, nil))
			var dupErr *producer.DuplicateProducerError
			Expect(errors.As(regErr, &dupErr)).To(BeTrue())
		})

		It("rejects invalid definitions at construction", func() {
			_, err := container.New(nil, nil, []producer.Definition{
				{Name: "broken", Requires: []string{"x"}, Optional: []string{"x"}, New: func(producer.Inputs) producer.Producer { return nil }},
			})
			Expect(err).To(HaveOccurred())
		})
	})
})

// validatedProducer checks its config against a CUE schema, the way real
// producers delegate to the schema collaborator.
type validatedProducer struct {
	producer.Base
	in producer.Inputs
}

func (p *validatedProducer) Enabled() bool { return true }

func (p *validatedProducer) ValidateConfig() error {
	v, err := schema.NewCueValidator(`{level: "debug" | "info"}`)
	if err != nil {
		return err
	}
	return v.MustValidate(p.in.Config)
}

func (p *validatedProducer) Build() (artifact.Artifact, error) {
	return "validated", nil
}

// loadingProducer records the relative order of LoadRequirements and Build.
type loadingProducer struct {
	producer.Base
	events *[]string
}

func (p *loadingProducer) Enabled() bool { return true }

func (p *loadingProducer) LoadRequirements() error {
	*p.events = append(*p.events, "load")
	return nil
}

func (p *loadingProducer) Build() (artifact.Artifact, error) {
	*p.events = append(*p.events, "build")
	return "loaded", nil
}

// bareEnabledProducer enables itself but leaves Build to the embedded Base.
type bareEnabledProducer struct {
	producer.Base
}

func (bareEnabledProducer) Enabled() bool { return true }
