package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/grnsim/internal/gillespie"
	"github.com/san-kum/grnsim/internal/rng"
	"github.com/san-kum/grnsim/internal/sim"
)

// decay is A -> B with rate 1, absorbing once A is exhausted.
func decay(a uint64) *gillespie.System {
	sys, err := gillespie.NewSystem([]string{"A", "B"}, []uint64{a, 0}, []gillespie.Reaction{{
		Rate:      1,
		Reactants: []gillespie.Reactant{{Species: 0, Quantity: 1}},
		Products:  []gillespie.Product{{Species: 1, Quantity: 1}},
	}})
	Expect(err).NotTo(HaveOccurred())
	return sys
}

// birthDeath is 0 -> X (rate 10), X -> 0 (rate 1); it never absorbs.
func birthDeath() *gillespie.System {
	sys, err := gillespie.NewSystem([]string{"X"}, []uint64{0}, []gillespie.Reaction{
		{Rate: 10, Products: []gillespie.Product{{Species: 0, Quantity: 1}}},
		{Rate: 1, Reactants: []gillespie.Reactant{{Species: 0, Quantity: 1}}},
	})
	Expect(err).NotTo(HaveOccurred())
	return sys
}

type collector struct {
	snaps []gillespie.Snapshot
}

func (c *collector) OnStep(s gillespie.Snapshot) { c.snaps = append(c.snaps, s) }

type countMetric struct{ n int }

func (m *countMetric) Name() string               { return "count" }
func (m *countMetric) Observe(gillespie.Snapshot) { m.n++ }
func (m *countMetric) Value() float64             { return float64(m.n) }
func (m *countMetric) Reset()                     { m.n = 0 }

var _ = Describe("Simulator", func() {
	var (
		ctx context.Context
		s   *sim.Simulator
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = sim.New()
	})

	Describe("config validation", func() {
		DescribeTable("rejects",
			func(cfg sim.Config) {
				_, err := s.Run(ctx, decay(3), rng.New(1), cfg)
				Expect(err).To(HaveOccurred())
			},
			Entry("no bound", sim.Config{}),
			Entry("negative steps", sim.Config{MaxSteps: -1}),
			Entry("negative time", sim.Config{MaxTime: -1}),
			Entry("NaN time", sim.Config{MaxTime: math.NaN()}),
			Entry("negative record interval", sim.Config{MaxSteps: 1, RecordEvery: -2}),
		)

		It("accepts the default config", func() {
			_, err := s.Run(ctx, decay(3), rng.New(1), sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("stopping", func() {
		It("stops in the absorbing state without error", func() {
			sys := decay(5)
			result, err := s.Run(ctx, sys, rng.New(3), sim.Config{MaxSteps: 100})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Stop).To(Equal(sim.StopAbsorbed))
			Expect(result.StepsTaken).To(Equal(5))
			Expect(result.Len()).To(Equal(6))
			Expect(result.Final().Counts).To(Equal([]uint64{0, 5}))
		})

		It("stops after MaxSteps", func() {
			result, err := s.Run(ctx, birthDeath(), rng.New(3), sim.Config{MaxSteps: 25})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Stop).To(Equal(sim.StopMaxSteps))
			Expect(result.StepsTaken).To(Equal(25))
			Expect(result.Len()).To(Equal(26))
		})

		It("never commits an event past MaxTime", func() {
			sys := birthDeath()
			result, err := s.Run(ctx, sys, rng.New(11), sim.Config{MaxTime: 2.5})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Stop).To(Equal(sim.StopMaxTime))
			Expect(sys.Time()).To(BeNumerically("<=", 2.5))
			for _, t := range result.Times {
				Expect(t).To(BeNumerically("<=", 2.5))
			}
		})

		It("returns the context error when canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			result, err := s.Run(cctx, birthDeath(), rng.New(1), sim.Config{MaxSteps: 10})
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.Stop).To(Equal(sim.StopCanceled))
			Expect(result.StepsTaken).To(Equal(0))
		})
	})

	Describe("trajectory", func() {
		It("keeps counts non-negative and time non-decreasing", func() {
			result, err := s.Run(ctx, birthDeath(), rng.New(5), sim.Config{MaxSteps: 2000})
			Expect(err).NotTo(HaveOccurred())

			for i := 1; i < result.Len(); i++ {
				Expect(result.Times[i]).To(BeNumerically(">=", result.Times[i-1]))
				Expect(result.Reactions[i]).To(BeElementOf(0, 1))
			}
			Expect(result.Reactions[0]).To(Equal(gillespie.NoReaction))
		})

		It("is reproducible from the same seed", func() {
			first, err := s.Run(ctx, birthDeath(), rng.New(77), sim.Config{MaxSteps: 300})
			Expect(err).NotTo(HaveOccurred())
			second, err := sim.New().Run(ctx, birthDeath(), rng.New(77), sim.Config{MaxSteps: 300})
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Times).To(Equal(first.Times))
			Expect(second.Reactions).To(Equal(first.Reactions))
			Expect(second.States).To(Equal(first.States))
		})

		It("records every Nth step plus the final state", func() {
			result, err := s.Run(ctx, birthDeath(), rng.New(5), sim.Config{MaxSteps: 25, RecordEvery: 10})
			Expect(err).NotTo(HaveOccurred())

			// initial, step 10, step 20, final (step 25)
			Expect(result.Len()).To(Equal(4))
		})

		It("does not duplicate the final state when it was already recorded", func() {
			result, err := s.Run(ctx, birthDeath(), rng.New(5), sim.Config{MaxSteps: 20, RecordEvery: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Len()).To(Equal(3))
		})
	})

	Describe("observers and metrics", func() {
		It("sees the initial snapshot and every step", func() {
			obs := &collector{}
			m := &countMetric{}
			s.AddObserver(obs)
			s.AddMetric(m)

			result, err := s.Run(ctx, decay(4), rng.New(2), sim.Config{MaxSteps: 100, RecordEvery: 3})
			Expect(err).NotTo(HaveOccurred())

			Expect(obs.snaps).To(HaveLen(5))
			Expect(obs.snaps[0].Reaction).To(Equal(gillespie.NoReaction))
			Expect(result.Metrics).To(HaveKeyWithValue("count", 5.0))
		})

		It("rejects two metrics with the same name", func() {
			s.AddMetric(&countMetric{})
			s.AddMetric(&countMetric{})

			sys := decay(3)
			_, err := s.Run(ctx, sys, rng.New(1), sim.Config{MaxSteps: 10})
			Expect(err).To(MatchError(sim.ErrDuplicateMetric))
			Expect(sys.Counts()).To(Equal([]uint64{3, 0}))
		})

		It("resets metrics between runs", func() {
			m := &countMetric{}
			s.AddMetric(m)

			_, err := s.Run(ctx, decay(2), rng.New(2), sim.Config{MaxSteps: 10})
			Expect(err).NotTo(HaveOccurred())
			result, err := s.Run(ctx, decay(1), rng.New(2), sim.Config{MaxSteps: 10})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Metrics["count"]).To(Equal(2.0))
		})
	})

	Describe("RunWithCallback", func() {
		It("stops when the callback declines", func() {
			seen := 0
			stop, err := s.RunWithCallback(ctx, birthDeath(), rng.New(1), sim.Config{MaxSteps: 100}, func(gillespie.Snapshot) bool {
				seen++
				return seen < 7
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(stop).To(Equal(sim.StopCallback))
			Expect(seen).To(Equal(7))
		})

		It("reports absorption", func() {
			stop, err := s.RunWithCallback(ctx, decay(2), rng.New(1), sim.Config{MaxSteps: 100}, func(gillespie.Snapshot) bool { return true })
			Expect(err).NotTo(HaveOccurred())
			Expect(stop).To(Equal(sim.StopAbsorbed))
		})
	})

	Describe("contract violations", func() {
		It("aborts the run with a SimError", func() {
			// A zero-propensity reaction selected by the last-index fallback
			// cannot fire: r2 = 1 lands exactly on the final cumulative sum.
			sys, err := gillespie.NewSystem([]string{"A", "B"}, []uint64{1, 0}, []gillespie.Reaction{
				{Rate: 1, Reactants: []gillespie.Reactant{{Species: 0, Quantity: 1}}},
				{Rate: 1, Reactants: []gillespie.Reactant{{Species: 1, Quantity: 1}}},
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := s.Run(ctx, sys, rng.NewSequence(0.5, 1), sim.Config{MaxSteps: 1})
			Expect(err).To(HaveOccurred())
			Expect(result.Stop).To(Equal(sim.StopFailed))
			Expect(result.Len()).To(Equal(1))

			var se *sim.SimError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(0))
			Expect(gillespie.IsContractViolation(err)).To(BeTrue())
			Expect(sys.Counts()).To(Equal([]uint64{1, 0}))
		})
	})

	It("names its stop reasons", func() {
		Expect(sim.StopAbsorbed.String()).To(Equal("absorbed"))
		Expect(sim.StopMaxTime.String()).To(Equal("max_time"))
		Expect(sim.StopFailed.String()).To(Equal("failed"))
		Expect(sim.StopReason(42).String()).To(Equal("StopReason(42)"))
	})
})
