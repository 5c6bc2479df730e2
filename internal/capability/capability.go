// Package capability implements the static description of what a
// device may emit or accept, and the pipeline-driven capability
// propagation algorithm entries run during a capability pass.
package capability

import (
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

// EventID identifies a (type, code) pair independent of domain, value
// or namespace — the key space a physical device's capability set is
// indexed by.
type EventID struct {
	Type ecodes.EventType
	Code ecodes.EventCode
}

// AbsInfo mirrors the kernel's input_absinfo for EV_ABS codes.
type AbsInfo struct {
	Min, Max, Fuzz, Flat, Resolution int32
}

// RepeatInfo mirrors the kernel's key-repeat delay/period pair.
type RepeatInfo struct {
	Delay, Period int32
}

// Range is the inclusive value range a Capability covers. FullRange is
// used for capabilities that are not value-restricted.
type Range struct {
	Min, Max int32
}

// FullRange covers every representable int32 value.
var FullRange = Range{Min: -1 << 31, Max: 1<<31 - 1}

// Contains reports whether v falls within the range.
func (r Range) Contains(v int32) bool { return v >= r.Min && v <= r.Max }

// adjacentOrOverlapping reports whether merging a and b into one range
// would not silently include values neither covered (i.e. they touch or
// overlap, not merely "both exist").
func adjacentOrOverlapping(a, b Range) bool {
	if a.Max < b.Min {
		return b.Min-a.Max <= 1
	}
	if b.Max < a.Min {
		return a.Min-b.Max <= 1
	}
	return true
}

func union(a, b Range) Range {
	r := a
	if b.Min < r.Min {
		r.Min = b.Min
	}
	if b.Max > r.Max {
		r.Max = b.Max
	}
	return r
}

// Capability declares that some input or output may emit/accept a
// particular (type, code) under a domain and namespace, across a value
// range, optionally with abs/repeat metadata.
type Capability struct {
	Type       ecodes.EventType
	Code       ecodes.EventCode
	ValueRange Range
	Domain     domain.Domain
	Namespace  event.Namespace
	AbsInfo    *AbsInfo
	RepeatInfo *RepeatInfo
}

// aggregateKey groups capabilities that may be merged by value range.
type aggregateKey struct {
	Type      ecodes.EventType
	Code      ecodes.EventCode
	Domain    domain.Domain
	Namespace event.Namespace
	abs       AbsInfo
	hasAbs    bool
	rep       RepeatInfo
	hasRep    bool
}

func keyOf(c Capability) aggregateKey {
	k := aggregateKey{Type: c.Type, Code: c.Code, Domain: c.Domain, Namespace: c.Namespace}
	if c.AbsInfo != nil {
		k.hasAbs = true
		k.abs = *c.AbsInfo
	}
	if c.RepeatInfo != nil {
		k.hasRep = true
		k.rep = *c.RepeatInfo
	}
	return k
}

// Aggregate merges capabilities that differ only in value range for the
// same (type, code, domain, namespace, abs_info, rep_info), bounding the
// worst-case blow-up from repeated splitting. Order of the output is not
// significant to callers; run_caps treats it as a set.
func Aggregate(caps []Capability) []Capability {
	groups := make(map[aggregateKey][]Range, len(caps))
	order := make([]aggregateKey, 0, len(caps))
	meta := make(map[aggregateKey]Capability, len(caps))
	for _, c := range caps {
		k := keyOf(c)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
			meta[k] = c
		}
		groups[k] = append(groups[k], c.ValueRange)
	}

	out := make([]Capability, 0, len(caps))
	for _, k := range order {
		merged := mergeRanges(groups[k])
		base := meta[k]
		for _, r := range merged {
			c := base
			c.ValueRange = r
			out = append(out, c)
		}
	}
	return out
}

func mergeRanges(ranges []Range) []Range {
	if len(ranges) <= 1 {
		return ranges
	}
	// Simple O(n^2) pass is fine: Aggregate is only invoked when the
	// total capability count has doubled, keeping amortized cost low.
	merged := append([]Range(nil), ranges[0])
	for _, r := range ranges[1:] {
		placed := false
		for i, m := range merged {
			if adjacentOrOverlapping(m, r) {
				merged[i] = union(m, r)
				placed = true
				break
			}
		}
		if !placed {
			merged = append(merged, r)
		}
	}
	// Further passes collapse chains created by out-of-order merges,
	// until a pass merges nothing more.
	for len(merged) > 1 {
		again := append([]Range(nil), merged[0])
		for _, r := range merged[1:] {
			placed := false
			for i, m := range again {
				if adjacentOrOverlapping(m, r) {
					again[i] = union(m, r)
					placed = true
					break
				}
			}
			if !placed {
				again = append(again, r)
			}
		}
		if len(again) == len(merged) {
			break
		}
		merged = again
	}
	return merged
}

// DeviceCapabilities is the static capability description of a single
// physical or virtual device: the set of (type, code) pairs it
// supports, plus any abs/repeat metadata.
type DeviceCapabilities struct {
	Codes   map[EventID]struct{}
	AbsInfo map[EventID]AbsInfo
	Repeat  *RepeatInfo
}

// NewDeviceCapabilities returns an empty capability set.
func NewDeviceCapabilities() DeviceCapabilities {
	return DeviceCapabilities{Codes: make(map[EventID]struct{}), AbsInfo: make(map[EventID]AbsInfo)}
}

// Add records that this device supports (type, code).
func (d *DeviceCapabilities) Add(id EventID) {
	d.Codes[id] = struct{}{}
}

// ToCapabilities expands the device's codes into a flat Capability list
// under the given domain and namespace, each covering the full value
// range (devices do not natively restrict value ranges; only stream
// entries do, during the capability pass).
func (d DeviceCapabilities) ToCapabilities(dom domain.Domain, ns event.Namespace) []Capability {
	out := make([]Capability, 0, len(d.Codes))
	for id := range d.Codes {
		c := Capability{
			Type: id.Type, Code: id.Code, ValueRange: FullRange,
			Domain: dom, Namespace: ns,
		}
		if a, ok := d.AbsInfo[id]; ok {
			abs := a
			c.AbsInfo = &abs
		}
		if id.Type == ecodes.EV_KEY && d.Repeat != nil {
			rep := *d.Repeat
			c.RepeatInfo = &rep
		}
		out = append(out, c)
	}
	return out
}

// IsCompatibleWith reports whether d can be used in place of old without
// requiring output devices to be recreated: every code d supports must
// already exist in old, and abs_info must not be widened. This is
// intentionally the strict direction: broadening without recreation can
// silently drop events a consumer already
// enumerated capabilities for.
func (d DeviceCapabilities) IsCompatibleWith(old DeviceCapabilities) bool {
	for id := range d.Codes {
		if _, ok := old.Codes[id]; !ok {
			return false
		}
		newAbs, hasNewAbs := d.AbsInfo[id]
		oldAbs, hasOldAbs := old.AbsInfo[id]
		if hasNewAbs != hasOldAbs {
			return false
		}
		if hasNewAbs && absWidened(newAbs, oldAbs) {
			return false
		}
	}
	return true
}

func absWidened(newAbs, oldAbs AbsInfo) bool {
	return newAbs.Min < oldAbs.Min || newAbs.Max > oldAbs.Max
}

// InputCapabilities maps each input domain to its DeviceCapabilities.
// It is mutated whenever a device is (re)opened.
type InputCapabilities map[domain.Domain]DeviceCapabilities

// ToVec flattens every domain's capabilities into one Capability slice
// under Namespace Input, the starting point for stream.RunCaps.
func (m InputCapabilities) ToVec() []Capability {
	var out []Capability
	for dom, caps := range m {
		out = append(out, caps.ToCapabilities(dom, event.Input)...)
	}
	return out
}
