package rt

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sghaida/odigraph/di"
	"github.com/sghaida/odigraph/graph"
	"github.com/sghaida/odigraph/model"
)

// literalSlot memoizes one normalized literal. The mutex is only taken when
// the component requires synchronized access.
type literalSlot struct {
	mu    sync.Mutex
	done  atomic.Bool
	value bool
}

func sortedLiterals(m map[model.Literal]graph.LiteralUsage) []model.Literal {
	out := make([]model.Literal, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	slices.SortFunc(out, model.CompareLiterals)
	return out
}

// evaluate computes s with literals served from the memo tables.
func (c *Component) evaluate(s model.ConditionScope) (bool, error) {
	return s.Evaluate(c.evaluateLiteral)
}

// evaluateLiteral finds the instance whose graph declared the literal,
// starting at c, and returns its memoized value with l's negation applied.
// Literals no graph declared are memoized in c.
func (c *Component) evaluateLiteral(l model.Literal) (bool, error) {
	n := l.Normalized()
	for cur := c; cur != nil; cur = cur.parent {
		if slot, ok := cur.literals[n]; ok {
			v, err := cur.literalValue(n, slot)
			return v != l.Negated, err
		}
	}
	slot, _ := c.extra.LoadOrStore(n, &literalSlot{})
	v, err := c.literalValue(n, slot.(*literalSlot))
	return v != l.Negated, err
}

func (c *Component) literalValue(n model.Literal, slot *literalSlot) (bool, error) {
	if slot.done.Load() {
		return slot.value, nil
	}
	if c.graph.RequiresSynchronizedAccess() {
		slot.mu.Lock()
		defer slot.mu.Unlock()
		if slot.done.Load() {
			return slot.value, nil
		}
	}
	v, err := c.computeLiteral(n)
	if err != nil {
		return false, err
	}
	slot.value = v
	slot.done.Store(true)
	return v, nil
}

// computeLiteral calls the literal's registry function, passing the root
// instance for instance-rooted literals.
func (c *Component) computeLiteral(n model.Literal) (bool, error) {
	f, err := c.function(n.Key())
	if err != nil {
		return false, err
	}
	var args []any
	if n.Instance {
		root, err := c.Access(model.On(n.Root))
		if err != nil {
			return false, err
		}
		args = append(args, root)
	}
	raw, err := f(args...)
	c.metrics.conditionEvaluated(c.graph.Path())
	if err != nil {
		return false, wrapConstruction(c, "literal "+n.String(), err)
	}
	v, err := di.As[bool](raw)
	if err != nil {
		return false, wrapConstruction(c, "literal "+n.String(), err)
	}
	c.log.Debug().Str("literal", n.String()).Bool("value", v).Msg("condition literal computed")
	return v, nil
}
