package graph

import (
	"github.com/aretw0/sinew/pkg/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DataSpec is an ordered mapping of data pin id to declared type.
type DataSpec = orderedmap.OrderedMap[domain.PinID, domain.PinType]

// TimeSpecs is an ordered mapping of time pin id to its time spec.
type TimeSpecs = orderedmap.OrderedMap[domain.PinID, domain.TimeSpec]

// DataPin declares one data pin.
type DataPin struct {
	ID   domain.PinID
	Type domain.PinType
}

// TimePin declares one time pin.
type TimePin struct {
	ID   domain.PinID
	Spec domain.TimeSpec
}

// NewDataSpec builds a DataSpec preserving declaration order.
func NewDataSpec(pins ...DataPin) *DataSpec {
	s := orderedmap.New[domain.PinID, domain.PinType]()
	for _, p := range pins {
		s.Set(p.ID, p.Type)
	}
	return s
}

// NewTimeSpecs builds a TimeSpecs preserving declaration order.
func NewTimeSpecs(pins ...TimePin) *TimeSpecs {
	s := orderedmap.New[domain.PinID, domain.TimeSpec]()
	for _, p := range pins {
		s.Set(p.ID, p.Spec)
	}
	return s
}

// NodeSpec is the pin declaration of a node capability.
// Nil maps declare no pins; a nil TimeOutput declares no pose output.
type NodeSpec struct {
	DataInputs  *DataSpec
	DataOutputs *DataSpec
	TimeInputs  *TimeSpecs
	TimeOutput  *domain.TimeSpec
}

// DataPins lists the pins of s in declaration order. s may be nil.
func DataPins(s *DataSpec) []DataPin {
	if s == nil {
		return nil
	}
	out := make([]DataPin, 0, s.Len())
	for p := s.Oldest(); p != nil; p = p.Next() {
		out = append(out, DataPin{ID: p.Key, Type: p.Value})
	}
	return out
}

// TimePins lists the pins of s in declaration order. s may be nil.
func TimePins(s *TimeSpecs) []TimePin {
	if s == nil {
		return nil
	}
	out := make([]TimePin, 0, s.Len())
	for p := s.Oldest(); p != nil; p = p.Next() {
		out = append(out, TimePin{ID: p.Key, Spec: p.Value})
	}
	return out
}

func lookupData(s *DataSpec, id domain.PinID) (domain.PinType, bool) {
	if s == nil {
		return 0, false
	}
	return s.Get(id)
}

func lookupTime(s *TimeSpecs, id domain.PinID) (domain.TimeSpec, bool) {
	if s == nil {
		return domain.TimeSpec{}, false
	}
	return s.Get(id)
}
