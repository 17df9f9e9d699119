// Package pipeline runs extracted items through an ordered chain of stages.
// A stage either passes the item on, drops it with a reason or fails with a
// store error; the first drop or failure ends the run for that item.
package pipeline

import (
	"context"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// Result is what a stage decided for an item.
type Result struct {
	Item    domain.Item
	Dropped bool
	Reason  string
}

// Pass continues with item.
func Pass(item domain.Item) Result {
	return Result{Item: item}
}

// Drop stops processing the item. Dropping is not an error.
func Drop(reason string) Result {
	return Result{Dropped: true, Reason: reason}
}

// Stage is one step of a chain.
type Stage interface {
	Name() string
	Process(ctx context.Context, item domain.Item, s store.Store) (Result, error)
}

// StageFunc adapts a function to Stage via NewStage.
type StageFunc func(ctx context.Context, item domain.Item, s store.Store) (Result, error)

type funcStage struct {
	name string
	fn   StageFunc
}

// NewStage returns a Stage named name that calls fn.
func NewStage(name string, fn StageFunc) Stage {
	return funcStage{name: name, fn: fn}
}

func (f funcStage) Name() string { return f.name }

func (f funcStage) Process(ctx context.Context, item domain.Item, s store.Store) (Result, error) {
	return f.fn(ctx, item, s)
}

// Status is the terminal state of an item after a chain run.
type Status int

const (
	Passed Status = iota
	Dropped
	Failed
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Dropped:
		return "dropped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports how a chain run ended. Stage names the stage that dropped
// or failed the item and is empty when it passed.
type Outcome struct {
	Status Status
	Item   domain.Item
	Stage  string
	Reason string
	Err    error
}

// Chain is an ordered, immutable list of stages bound to one store.
type Chain struct {
	name   string
	store  store.Store
	logger logger.Logger
	stages []Stage
}

// NewChain builds a chain. It is composed once per job and reused for every item.
func NewChain(name string, s store.Store, log logger.Logger, stages ...Stage) *Chain {
	return &Chain{
		name:   name,
		store:  s,
		logger: log.With(logger.String("chain", name)),
		stages: append([]Stage(nil), stages...),
	}
}

// Name returns the chain name.
func (c *Chain) Name() string { return c.name }

// Stages returns the stage names in order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, st := range c.stages {
		names[i] = st.Name()
	}
	return names
}

// Run passes item through every stage in order.
func (c *Chain) Run(ctx context.Context, item domain.Item) Outcome {
	current := item

	for _, st := range c.stages {
		if err := ctx.Err(); err != nil {
			return Outcome{Status: Failed, Item: current, Stage: st.Name(), Err: err}
		}

		res, err := st.Process(ctx, current, c.store)
		if err != nil {
			c.logger.Error("Pipeline stage failed",
				logger.String("stage", st.Name()),
				logger.Int64("product_id", current.ProductID),
				logger.String("url", current.URL),
				logger.Error(err),
			)
			return Outcome{Status: Failed, Item: current, Stage: st.Name(), Err: err}
		}

		if res.Dropped {
			c.logger.Debug("Item dropped",
				logger.String("stage", st.Name()),
				logger.String("reason", res.Reason),
				logger.Int64("product_id", current.ProductID),
			)
			return Outcome{Status: Dropped, Item: current, Stage: st.Name(), Reason: res.Reason}
		}

		current = res.Item
	}

	return Outcome{Status: Passed, Item: current}
}
