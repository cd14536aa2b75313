package domain

import (
	"fmt"
	"math"
	"sort"
)

// Value is a payload carried by a data pin.
type Value interface {
	Type() PinType
}

type (
	Float  float64
	Int    int64
	Bool   bool
	String string
)

func (Float) Type() PinType  { return TypeFloat }
func (Int) Type() PinType    { return TypeInt }
func (Bool) Type() PinType   { return TypeBool }
func (String) Type() PinType { return TypeString }

// Vec3 is a three component vector.
type Vec3 struct {
	X, Y, Z float64
}

func (Vec3) Type() PinType { return TypeVec3 }

// Lerp interpolates linearly between v and o.
func (v Vec3) Lerp(o Vec3, f float64) Vec3 {
	return Vec3{
		X: v.X + (o.X-v.X)*f,
		Y: v.Y + (o.Y-v.Y)*f,
		Z: v.Z + (o.Z-v.Z)*f,
	}
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

func (Quat) Type() PinType { return TypeQuat }

// IdentityQuat is the rotation that leaves vectors unchanged.
var IdentityQuat = Quat{W: 1}

// Nlerp blends two rotations with normalized linear interpolation,
// taking the shortest path.
func (q Quat) Nlerp(o Quat, f float64) Quat {
	if q.X*o.X+q.Y*o.Y+q.Z*o.Z+q.W*o.W < 0 {
		o = Quat{-o.X, -o.Y, -o.Z, -o.W}
	}
	r := Quat{
		X: q.X + (o.X-q.X)*f,
		Y: q.Y + (o.Y-q.Y)*f,
		Z: q.Z + (o.Z-q.Z)*f,
		W: q.W + (o.W-q.W)*f,
	}
	n := math.Sqrt(r.X*r.X + r.Y*r.Y + r.Z*r.Z + r.W*r.W)
	if n == 0 {
		return IdentityQuat
	}
	return Quat{r.X / n, r.Y / n, r.Z / n, r.W / n}
}

// BoneMask weights bones by name; missing bones weigh zero.
type BoneMask map[string]float64

func (BoneMask) Type() PinType { return TypeBoneMask }

// Transform is the local transform of one bone.
type Transform struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// IdentityTransform has no translation, no rotation and unit scale.
var IdentityTransform = Transform{Rotation: IdentityQuat, Scale: Vec3{1, 1, 1}}

// Lerp blends two transforms.
func (t Transform) Lerp(o Transform, f float64) Transform {
	return Transform{
		Translation: t.Translation.Lerp(o.Translation, f),
		Rotation:    t.Rotation.Nlerp(o.Rotation, f),
		Scale:       t.Scale.Lerp(o.Scale, f),
	}
}

// Pose is a set of bone transforms sampled at Timestamp.
type Pose struct {
	Bones     map[string]Transform
	Timestamp float64
	Space     PoseSpace
}

func (Pose) Type() PinType { return TypePose }

// BoneNames returns the bone names in sorted order.
func (p Pose) BoneNames() []string {
	names := make([]string, 0, len(p.Bones))
	for name := range p.Bones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that does not share the bone map.
func (p Pose) Clone() Pose {
	out := Pose{Timestamp: p.Timestamp, Space: p.Space, Bones: make(map[string]Transform, len(p.Bones))}
	for k, v := range p.Bones {
		out.Bones[k] = v
	}
	return out
}

// Duration is the content-length hint propagated by the duration pass.
// A zero value means the length is unknown or unbounded.
type Duration struct {
	Seconds float64
	Known   bool
}

// Seconds returns a known duration.
func Seconds(s float64) Duration {
	return Duration{Seconds: s, Known: true}
}

func (d Duration) String() string {
	if !d.Known {
		return "unbounded"
	}
	return fmt.Sprintf("%gs", d.Seconds)
}

// AsFloat converts numeric values to float64.
func AsFloat(v Value) (float64, error) {
	switch x := v.(type) {
	case Float:
		return float64(x), nil
	case Int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", v)
	}
}

// ZeroValue returns the neutral value for a pin type.
func ZeroValue(t PinType) Value {
	switch t {
	case TypeFloat:
		return Float(0)
	case TypeInt:
		return Int(0)
	case TypeBool:
		return Bool(false)
	case TypeString:
		return String("")
	case TypeVec3:
		return Vec3{}
	case TypeQuat:
		return IdentityQuat
	case TypePose:
		return Pose{Bones: map[string]Transform{}}
	case TypeBoneMask:
		return BoneMask{}
	case TypeEventQueue:
		return EventQueue(nil)
	default:
		return nil
	}
}

// ValueFrom converts a plain document value (as decoded from YAML or JSON)
// into a Value of type t.
func ValueFrom(t PinType, raw any) (Value, error) {
	switch t {
	case TypeFloat:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("expected float, got %T", raw)
		}
		return Float(f), nil
	case TypeInt:
		f, ok := toFloat(raw)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("expected int, got %v", raw)
		}
		return Int(int64(f)), nil
	case TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return Bool(b), nil
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return String(s), nil
	case TypeVec3:
		xs, err := floatList(raw, 3)
		if err != nil {
			return nil, err
		}
		return Vec3{xs[0], xs[1], xs[2]}, nil
	case TypeQuat:
		xs, err := floatList(raw, 4)
		if err != nil {
			return nil, err
		}
		return Quat{xs[0], xs[1], xs[2], xs[3]}, nil
	case TypeBoneMask:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected bone mask map, got %T", raw)
		}
		mask := BoneMask{}
		for k, v := range m {
			f, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("bone %q: expected weight, got %T", k, v)
			}
			mask[k] = f
		}
		return mask, nil
	case TypeEventQueue:
		return eventQueueFrom(raw)
	default:
		return nil, fmt.Errorf("type %s has no literal form", t)
	}
}

// eventQueueFrom accepts a list of string event names.
func eventQueueFrom(raw any) (EventQueue, error) {
	switch v := raw.(type) {
	case nil:
		return EventQueue(nil), nil
	case []string:
		q := make(EventQueue, len(v))
		for i, name := range v {
			q[i] = Named(name)
		}
		return q, nil
	case []any:
		q := make(EventQueue, len(v))
		for i, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("event %d: expected name, got %T", i, item)
			}
			q[i] = Named(name)
		}
		return q, nil
	}
	return nil, fmt.Errorf("expected list of event names, got %T", raw)
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}

func floatList(raw any, n int) ([]float64, error) {
	items, ok := raw.([]any)
	if !ok || len(items) != n {
		return nil, fmt.Errorf("expected list of %d numbers, got %v", n, raw)
	}
	out := make([]float64, n)
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok {
			return nil, fmt.Errorf("element %d: expected number, got %T", i, item)
		}
		out[i] = f
	}
	return out, nil
}
