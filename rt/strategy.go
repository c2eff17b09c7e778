package rt

import (
	"sync"
	"sync/atomic"

	"github.com/sghaida/odigraph/graph"
	"github.com/sghaida/odigraph/model"
)

// SlotState is the state of a caching strategy's slot.
type SlotState uint32

const (
	Empty SlotState = iota
	Computing
	Cached
)

func (s SlotState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Computing:
		return "computing"
	case Cached:
		return "cached"
	}
	return "unknown"
}

type cell struct{ v any }

// strategy turns one binding into values for one component instance.
//
// Caching strategies construct at most once and reuse the value; creating
// strategies construct on every access. Synchronized caching strategies
// guard construction with their own mutex after an atomic fast path.
// Conditional strategies check the binding's condition on direct access.
type strategy struct {
	c           *Component
	b           graph.Binding
	cond        model.ConditionScope
	caching     bool
	sync        bool
	conditional bool

	state atomic.Uint32
	value atomic.Pointer[cell]
	mu    sync.Mutex
}

// strategyFor returns the strategy of b in the instance owning b's graph,
// creating it on first use.
func (c *Component) strategyFor(b graph.Binding) (*strategy, error) {
	owner, ok := c.owning(b.Owner())
	if !ok {
		return nil, &ContractError{Kind: NotReached, Component: c.graph.Path(), Subject: b.String() + " owned by " + b.Owner().Path()}
	}
	if s, ok := owner.strategies.Load(b); ok {
		return s.(*strategy), nil
	}
	s, _ := owner.strategies.LoadOrStore(b, owner.newStrategy(b))
	return s.(*strategy), nil
}

// valueOf serves a direct request for b, wherever it is owned.
func (c *Component) valueOf(b graph.Binding) (any, error) {
	s, err := c.strategyFor(b)
	if err != nil {
		return nil, err
	}
	return s.get()
}

func (c *Component) newStrategy(b graph.Binding) *strategy {
	scopes := b.Scopes()
	reusable := false
	for _, sc := range scopes {
		if sc == model.ReusableScope {
			reusable = true
		}
	}
	usage, used := c.graph.Usage(b)
	s := &strategy{
		c:           c,
		b:           b,
		cond:        b.ConditionScope().And(c.graph.ConditionScope()),
		caching:     len(scopes) > 0,
		sync:        c.graph.RequiresSynchronizedAccess() && !reusable,
		conditional: !used || usage.HasOptional(),
	}
	if _, alias := b.(*graph.AliasBinding); alias {
		s.caching = false
	}
	c.log.Trace().
		Str("binding", b.String()).
		Bool("caching", s.caching).
		Bool("synchronized", s.sync).
		Bool("conditional", s.conditional).
		Msg("strategy created")
	return s
}

// State reports the slot state. Creating strategies are always Empty.
func (s *strategy) State() SlotState { return SlotState(s.state.Load()) }

// get serves a non-optional request.
func (s *strategy) get() (any, error) {
	if s.conditional {
		ok, err := s.present()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &ContractError{Kind: NotReached, Component: s.c.graph.Path(), Subject: s.b.String() + " with false condition " + s.cond.String()}
		}
	}
	return s.construct()
}

// present evaluates the binding's condition.
func (s *strategy) present() (bool, error) {
	if s.cond.IsUnscoped() {
		return true, nil
	}
	return s.c.evaluate(s.cond)
}

// construct produces a value ignoring the condition.
func (s *strategy) construct() (any, error) {
	if !s.caching {
		return s.c.create(s.b)
	}
	if v := s.value.Load(); v != nil {
		s.c.metrics.cacheHit(s.c.graph.Path())
		return v.v, nil
	}
	if s.sync {
		s.mu.Lock()
		defer s.mu.Unlock()
		if v := s.value.Load(); v != nil {
			s.c.metrics.cacheHit(s.c.graph.Path())
			return v.v, nil
		}
	}

	s.state.Store(uint32(Computing))
	v, err := s.c.create(s.b)
	if err != nil {
		s.state.Store(uint32(Empty))
		return nil, err
	}
	s.value.Store(&cell{v: v})
	s.state.Store(uint32(Cached))
	return v, nil
}
