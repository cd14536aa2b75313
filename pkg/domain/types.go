package domain

import "fmt"

// PinType is the declared value type of a data pin.
type PinType uint8

const (
	TypeFloat PinType = iota + 1
	TypeInt
	TypeBool
	TypeString
	TypeVec3
	TypeQuat
	TypePose
	TypeBoneMask
	TypeEventQueue
)

func (t PinType) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeVec3:
		return "vec3"
	case TypeQuat:
		return "quat"
	case TypePose:
		return "pose"
	case TypeBoneMask:
		return "bone_mask"
	case TypeEventQueue:
		return "event_queue"
	default:
		return "unknown"
	}
}

// ParsePinType converts the name used in documents to a PinType.
func ParsePinType(name string) (PinType, error) {
	switch name {
	case "float":
		return TypeFloat, nil
	case "int":
		return TypeInt, nil
	case "bool":
		return TypeBool, nil
	case "string":
		return TypeString, nil
	case "vec3":
		return TypeVec3, nil
	case "quat":
		return TypeQuat, nil
	case "pose":
		return TypePose, nil
	case "bone_mask":
		return TypeBoneMask, nil
	case "event_queue", "events":
		return TypeEventQueue, nil
	default:
		return 0, fmt.Errorf("unsupported pin type: %s", name)
	}
}

// PoseSpace is the coordinate space a pose stream is expressed in.
type PoseSpace uint8

const (
	// SpaceAny accepts or produces poses in whatever space the other end uses.
	SpaceAny PoseSpace = iota
	SpaceLocal
	SpaceCharacter
)

func (s PoseSpace) String() string {
	switch s {
	case SpaceLocal:
		return "local"
	case SpaceCharacter:
		return "character"
	default:
		return "any"
	}
}

// ParsePoseSpace converts a document name to a PoseSpace. Empty means SpaceAny.
func ParsePoseSpace(name string) (PoseSpace, error) {
	switch name {
	case "", "any":
		return SpaceAny, nil
	case "local":
		return SpaceLocal, nil
	case "character":
		return SpaceCharacter, nil
	default:
		return SpaceAny, fmt.Errorf("unsupported pose space: %s", name)
	}
}

// TimeSpec describes a time pin. Time pins carry no payload type, only the
// space of the pose stream flowing through them.
type TimeSpec struct {
	Space PoseSpace
}

// Compatible reports whether a stream produced with spec s may feed a pin
// declared with spec other.
func (s TimeSpec) Compatible(other TimeSpec) bool {
	return s.Space == SpaceAny || other.Space == SpaceAny || s.Space == other.Space
}
