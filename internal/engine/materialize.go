package engine

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/comprehend/internal/ir"
	"github.com/roach88/comprehend/pkg/comp"
)

// Result is the outcome of Run. Exactly one of Seq, Items or Entries is
// meaningful, depending on Container.
type Result struct {
	RunID     string           `json:"run_id"`
	Container ir.ContainerKind `json:"container"`

	// Seq is the untouched lazy sequence (Lazy only).
	Seq iter.Seq2[any, error] `json:"-"`

	// Items holds Sequence values in insertion order, or Set values ordered
	// by canonical encoding.
	Items []any `json:"items,omitempty"`

	// Entries holds Mapping entries ordered by the canonical encoding of
	// their keys.
	Entries []Entry `json:"entries,omitempty"`
}

// Run evaluates the program and materializes it according to its
// container kind. For Lazy nothing is pulled: the sequence is returned as
// is, and may be infinite.
func (p *Program) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: p.ids.Generate(), Container: p.plan.Container}
	log := slog.With("run_id", res.RunID, "id", p.plan.ID)
	log.Debug("expanding comprehension",
		"container", p.plan.Container.String(),
		"depth", p.plan.Depth,
	)

	seq := p.Seq(ctx)
	switch p.plan.Container {
	case ir.Lazy:
		res.Seq = seq
		return res, nil

	case ir.Sequence:
		items, err := comp.TryCollect(seq)
		if err != nil {
			return nil, err
		}
		res.Items = items

	case ir.Set:
		set, err := comp.TrySetBy(seq, canonicalKey)
		if err != nil {
			return nil, err
		}
		for _, k := range sortedKeys(set) {
			res.Items = append(res.Items, set[k])
		}
		if res.Items == nil {
			res.Items = []any{}
		}

	case ir.Mapping:
		m, err := comp.TryMapBy(seq, func(v any) (string, Entry, error) {
			e := v.(Entry)
			k, err := canonicalKey(e.Key)
			return k, e, err
		})
		if err != nil {
			return nil, err
		}
		for _, k := range sortedKeys(m) {
			res.Entries = append(res.Entries, m[k])
		}
	}

	log.Debug("comprehension materialized", "count", res.Len())
	return res, nil
}

// Len is the number of materialized elements (0 for Lazy).
func (r *Result) Len() int {
	if r.Container == ir.Mapping {
		return len(r.Entries)
	}
	return len(r.Items)
}

// Collect drains a Lazy result, at most limit values when limit > 0. For
// eager results it returns Value.
func (r *Result) Collect(limit int) (any, error) {
	if r.Container != ir.Lazy {
		return r.Value(), nil
	}
	seq := r.Seq
	if limit > 0 {
		seq = comp.TryLimit(seq, limit)
	}
	return comp.TryCollect(seq)
}

// Value returns the materialized container as plain data: a list for
// Sequence and Set, and for Mapping an object when every key is a string,
// otherwise a list of [key, value] pairs.
func (r *Result) Value() any {
	switch r.Container {
	case ir.Mapping:
		obj := make(map[string]any, len(r.Entries))
		for _, e := range r.Entries {
			k, ok := e.Key.(string)
			if !ok {
				return entryPairs(r.Entries)
			}
			obj[k] = e.Value
		}
		return obj
	case ir.Lazy:
		return nil
	default:
		if r.Items == nil {
			return []any{}
		}
		return r.Items
	}
}

func entryPairs(entries []Entry) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = []any{e.Key, e.Value}
	}
	return out
}

func canonicalKey(v any) (string, error) {
	k, err := ir.CanonicalKey(v)
	if err != nil {
		return "", &RuntimeError{
			Code:    ErrCodeUnhashableKey,
			Message: "value has no canonical encoding: " + err.Error(),
			Err:     err,
		}
	}
	return k, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
