package object

import (
	"fmt"
	"sort"
)

// CloneForPass returns the value a callee receives. Lists and dictionaries
// are copied recursively; instances and primitives are shared.
func CloneForPass(v Object) Object {
	switch v := v.(type) {
	case *List:
		elements := make([]Object, len(v.Elements))
		for i, e := range v.Elements {
			elements[i] = CloneForPass(e)
		}
		return &List{Elements: elements}
	case *Dictionary:
		d := &Dictionary{
			keys:  make([]string, len(v.keys)),
			pairs: make(map[string]Object, len(v.pairs)),
		}
		copy(d.keys, v.keys)
		for k, e := range v.pairs {
			d.pairs[k] = CloneForPass(e)
		}
		return d
	default:
		return v
	}
}

// CloneForSnapshot is CloneForPass that also copies instance fields, so a
// recorded frame never observes a later mutation. The copy keeps the
// instance ID and class so it still renders as the same object.
func CloneForSnapshot(v Object) Object {
	return cloneForSnapshot(v, map[*Instance]*Instance{})
}

func cloneForSnapshot(v Object, seen map[*Instance]*Instance) Object {
	switch v := v.(type) {
	case *List:
		elements := make([]Object, len(v.Elements))
		for i, e := range v.Elements {
			elements[i] = cloneForSnapshot(e, seen)
		}
		return &List{Elements: elements}
	case *Dictionary:
		d := &Dictionary{
			keys:  make([]string, len(v.keys)),
			pairs: make(map[string]Object, len(v.pairs)),
		}
		copy(d.keys, v.keys)
		for k, e := range v.pairs {
			d.pairs[k] = cloneForSnapshot(e, seen)
		}
		return d
	case *Instance:
		if c, ok := seen[v]; ok {
			return c
		}
		c := &Instance{ID: v.ID, Class: v.Class, Fields: make(map[string]Object, len(v.Fields))}
		seen[v] = c
		for k, f := range v.Fields {
			c.Fields[k] = cloneForSnapshot(f, seen)
		}
		return c
	default:
		return v
	}
}

// IsVariable reports whether v belongs in a variable snapshot. Functions,
// host functions and classes are definitions, not variables.
func IsVariable(v Object) bool {
	switch v.Type() {
	case FUNCTION_OBJ, FOREIGN_OBJ, CLASS_OBJ:
		return false
	}
	return true
}

// Equal compares values structurally; instances compare by identity.
func Equal(a, b Object) bool {
	switch a := a.(type) {
	case *Number:
		bn, ok := b.(*Number)
		return ok && a.Value == bn.Value
	case *String:
		bs, ok := b.(*String)
		return ok && a.Value == bs.Value
	case *Boolean:
		bb, ok := b.(*Boolean)
		return ok && a.Value == bb.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Undefined:
		_, ok := b.(*Undefined)
		return ok
	case *List:
		bl, ok := b.(*List)
		if !ok || len(a.Elements) != len(bl.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], bl.Elements[i]) {
				return false
			}
		}
		return true
	case *Dictionary:
		bd, ok := b.(*Dictionary)
		if !ok || a.Len() != bd.Len() {
			return false
		}
		for k, v := range a.pairs {
			other, ok := bd.pairs[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case *Instance:
		bi, ok := b.(*Instance)
		return ok && a.ID == bi.ID
	default:
		return a == b
	}
}

// IsTruthy is used when an exercise allows non-boolean conditions.
func IsTruthy(v Object) bool {
	switch v := v.(type) {
	case *Boolean:
		return v.Value
	case *Null, *Undefined:
		return false
	case *Number:
		return v.Value != 0
	case *String:
		return v.Value != ""
	case *List:
		return len(v.Elements) > 0
	case *Dictionary:
		return v.Len() > 0
	default:
		return true
	}
}

// FromNative converts decoded configuration or host values into runtime
// values. Map keys are sorted so the result is deterministic.
func FromNative(v any) (Object, error) {
	switch x := v.(type) {
	case nil:
		return NULL, nil
	case Object:
		return x, nil
	case bool:
		return NativeBoolToBooleanObject(x), nil
	case int:
		return NewNumber(float64(x)), nil
	case int64:
		return NewNumber(float64(x)), nil
	case uint64:
		return NewNumber(float64(x)), nil
	case float64:
		return NewNumber(x), nil
	case float32:
		return NewNumber(float64(x)), nil
	case string:
		return &String{Value: x}, nil
	case []any:
		elements := make([]Object, 0, len(x))
		for _, e := range x {
			o, err := FromNative(e)
			if err != nil {
				return nil, err
			}
			elements = append(elements, o)
		}
		return &List{Elements: elements}, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDictionary()
		for _, k := range keys {
			o, err := FromNative(x[k])
			if err != nil {
				return nil, err
			}
			d.Put(k, o)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to a runtime value", v)
	}
}

// ToNative converts a runtime value into plain Go values, for example to
// hand it to a host or serialise it.
func ToNative(v Object) any {
	return toNative(v, map[*Instance]bool{})
}

// toNative renders an instance that refers back to itself as its Inspect
// text at the point of the cycle.
func toNative(v Object, active map[*Instance]bool) any {
	switch x := v.(type) {
	case *Number:
		return x.Value
	case *String:
		return x.Value
	case *Boolean:
		return x.Value
	case *Null, *Undefined:
		return nil
	case *List:
		out := make([]any, len(x.Elements))
		for i, e := range x.Elements {
			out[i] = toNative(e, active)
		}
		return out
	case *Dictionary:
		out := make(map[string]any, x.Len())
		for _, k := range x.keys {
			out[k] = toNative(x.pairs[k], active)
		}
		return out
	case *Instance:
		if active[x] {
			return "<" + x.Class.Name + " ...>"
		}
		active[x] = true
		defer delete(active, x)
		out := make(map[string]any, len(x.Fields))
		for k, f := range x.Fields {
			out[k] = toNative(f, active)
		}
		return out
	default:
		return v.Inspect()
	}
}
