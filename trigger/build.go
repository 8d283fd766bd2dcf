package trigger

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var ErrInvalidTrigger = errors.New("invalid trigger")

// Tree is a validated trigger with every node numbered for its State slot.
type Tree struct {
	root  *node
	nodes []*node
	desc  string
}

type node struct {
	id          int
	kind        Kind
	subs        []*node
	count       int64
	delay       time.Duration
	early, late *node
}

// Build validates t and numbers its nodes. Shape errors are configuration errors
// and wrap ErrInvalidTrigger.
func Build(t *Trigger) (*Tree, error) {
	tree := &Tree{}
	root, err := tree.add(t, "root")
	if err != nil {
		return nil, err
	}
	tree.root = root
	tree.desc = t.String()
	return tree, nil
}

// MustBuild is Build for statically known triggers.
func MustBuild(t *Trigger) *Tree {
	tree, err := Build(t)
	if err != nil {
		panic(err)
	}
	return tree
}

func (tr *Tree) add(t *Trigger, path string) (*node, error) {
	if t == nil {
		return nil, errors.WithMessagef(ErrInvalidTrigger, "%s: trigger can't be nil", path)
	}
	switch t.kind {
	case KindAfterAll:
		if len(t.subs) < 2 {
			return nil, errors.WithMessagef(ErrInvalidTrigger, "%s: AfterAll requires at least two sub triggers, got %d", path, len(t.subs))
		}
	case KindAfterAny, KindAfterEach:
		if len(t.subs) == 0 {
			return nil, errors.WithMessagef(ErrInvalidTrigger, "%s: %v requires at least one sub trigger", path, t.kind)
		}
	case KindAfterCount:
		if t.count < 1 {
			return nil, errors.WithMessagef(ErrInvalidTrigger, "%s: AfterCount requires a positive count, got %d", path, t.count)
		}
	case KindAfterProcessingTime:
		if t.delay < 0 {
			return nil, errors.WithMessagef(ErrInvalidTrigger, "%s: AfterProcessingTime delay can't be negative, got %v", path, t.delay)
		}
	case KindNever, KindAfterEndOfWindow, KindRepeat, KindOrFinally:
	default:
		return nil, errors.WithMessagef(ErrInvalidTrigger, "%s: unknown kind %v", path, t.kind)
	}

	n := &node{id: len(tr.nodes), kind: t.kind, count: t.count, delay: t.delay}
	tr.nodes = append(tr.nodes, n)
	for i, sub := range t.subs {
		subNode, err := tr.add(sub, path+"."+t.kind.String()+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		n.subs = append(n.subs, subNode)
	}
	var err error
	if t.early != nil {
		if n.early, err = tr.add(t.early, path+".early"); err != nil {
			return nil, err
		}
	}
	if t.late != nil {
		if n.late, err = tr.add(t.late, path+".late"); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// NewState returns the state of a window the trigger has never seen.
func (tr *Tree) NewState() State {
	return make(State, len(tr.nodes))
}

// Len is the number of nodes, and the length of every State of this tree.
func (tr *Tree) Len() int {
	return len(tr.nodes)
}

func (tr *Tree) String() string {
	return tr.desc
}

// CheckState rejects a state that does not belong to this tree.
func (tr *Tree) CheckState(st State) error {
	if len(st) != len(tr.nodes) {
		return errors.WithMessagef(ErrStateMismatch, "trigger %s has %d nodes, state has %d", tr.desc, len(tr.nodes), len(st))
	}
	return nil
}
