// Package setupfile decodes the TOML document describing input devices,
// the output device, and the stream pipeline into a wired stream.Setup.
package setupfile

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/evflow/evflow/internal/capability"
	"github.com/evflow/evflow/internal/domain"
	"github.com/evflow/evflow/internal/event"
	"github.com/evflow/evflow/internal/logging"
	"github.com/evflow/evflow/internal/stream"
	"github.com/evflow/evflow/pkg/evdev/ecodes"
)

var logger = logging.GetLogger("setupfile")

// GrabMode controls whether an input device is exclusively captured.
type GrabMode string

const (
	GrabNone  GrabMode = "none"
	GrabAuto  GrabMode = "auto"
	GrabForce GrabMode = "force"
)

// PersistMode controls whether a device is reopened after disconnect.
type PersistMode string

const (
	PersistNone   PersistMode = "none"
	PersistReopen PersistMode = "reopen"
)

// InputDoc is one [[input]] table.
type InputDoc struct {
	Path    string `toml:"path"`
	Domain  string `toml:"domain"`
	Grab    string `toml:"grab"`
	Persist string `toml:"persist"`
}

// OutputDoc is the [[output]] table. Only one is currently supported;
// later entries are rejected by Load rather than silently ignored.
type OutputDoc struct {
	Name    string   `toml:"name"`
	Domains []string `toml:"domains"`
}

// MatchDoc names a predicate's constrained fields by their symbolic
// kernel names, decoded through pkg/evdev/ecodes's reverse lookup.
type MatchDoc struct {
	Type   string `toml:"type"`
	Code   string `toml:"code"`
	Domain string `toml:"domain"`
	Min    *int32 `toml:"min"`
	Max    *int32 `toml:"max"`
}

// ActionDoc names one MapAction by symbolic field.
type ActionDoc struct {
	SetType  string `toml:"set_type"`
	Code     string `toml:"code"`
	SetDomain string `toml:"set_domain"`
	SetValue *int32 `toml:"set_value"`
	Yield    bool   `toml:"yield"`
}

// HookActionDoc names one HookAction.
type HookActionDoc struct {
	Exec      []string `toml:"exec"`
	SetState  string   `toml:"set_state"`
	SetValue  int      `toml:"set_value"`
}

// StreamDoc is one [[stream]] table; Type selects which of the other
// fields are read.
type StreamDoc struct {
	Type string `toml:"type"`

	// map
	Match MatchDoc    `toml:"match"`
	Emit  []ActionDoc `toml:"emit"`

	// toggle
	Name     string          `toml:"name"`
	Branches [][]ActionDoc   `toml:"branches"`

	// merge
	Domains []string `toml:"domains"`
	Target  string   `toml:"target"`

	// hook
	Keys      []MatchDoc      `toml:"keys"`
	OnPress   []HookActionDoc `toml:"on_press"`
	OnRelease []HookActionDoc `toml:"on_release"`
	OnHold    []HookActionDoc `toml:"on_hold"`
	HoldMs    int             `toml:"hold_ms"`

	// withhold
	TimeoutMs int `toml:"timeout_ms"`

	// delay
	PeriodMs int `toml:"period_ms"`
}

// Document is the top-level TOML schema.
type Document struct {
	Input  []InputDoc  `toml:"input"`
	Output []OutputDoc `toml:"output"`
	Stream []StreamDoc `toml:"stream"`
}

// Input is one decoded [[input]] entry, kept around so the caller can
// open the device node and register it with the dispatch loop.
type Input struct {
	Path    string
	Domain  domain.Domain
	Grab    GrabMode
	Persist PersistMode
}

// Result is everything Load derives from a setup file short of actually
// opening device nodes, which requires root and a running kernel and so
// stays out of this package's reach.
type Result struct {
	Inputs     []Input
	OutputName string
	Setup      *stream.Setup
}

func parsePredicate(m MatchDoc) (stream.Predicate, error) {
	var p stream.Predicate
	if m.Type != "" {
		t, ok := ecodes.ParseTypeName(m.Type)
		if !ok {
			return p, fmt.Errorf("unknown event type %q", m.Type)
		}
		p.Type = &t
	}
	if m.Code != "" {
		c, ok := ecodes.ParseCodeName(m.Code)
		if !ok {
			return p, fmt.Errorf("unknown event code %q", m.Code)
		}
		p.Code = &c
	}
	if m.Domain != "" {
		d := domain.Intern(m.Domain)
		p.Domain = &d
	}
	if m.Min != nil || m.Max != nil {
		r := capability.FullRange
		if m.Min != nil {
			r.Min = *m.Min
		}
		if m.Max != nil {
			r.Max = *m.Max
		}
		p.Value = &r
	}
	return p, nil
}

func parseAction(a ActionDoc) (stream.MapAction, error) {
	var out stream.MapAction
	if a.SetType != "" {
		t, ok := ecodes.ParseTypeName(a.SetType)
		if !ok {
			return out, fmt.Errorf("unknown event type %q", a.SetType)
		}
		out.SetType = &t
	}
	if a.Code != "" {
		c, ok := ecodes.ParseCodeName(a.Code)
		if !ok {
			return out, fmt.Errorf("unknown event code %q", a.Code)
		}
		out.SetCode = &c
	}
	if a.SetDomain != "" {
		d := domain.Intern(a.SetDomain)
		out.SetDomain = &d
	}
	if a.SetValue != nil {
		out.SetValue = a.SetValue
	}
	out.Yield = a.Yield
	return out, nil
}

func parseActions(docs []ActionDoc) ([]stream.MapAction, error) {
	out := make([]stream.MapAction, 0, len(docs))
	for _, d := range docs {
		a, err := parseAction(d)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func parseHookAction(a HookActionDoc) stream.HookAction {
	return stream.HookAction{Exec: a.Exec, SetState: a.SetState, SetValue: a.SetValue}
}

func parseHookActions(docs []HookActionDoc) []stream.HookAction {
	out := make([]stream.HookAction, 0, len(docs))
	for _, d := range docs {
		out = append(out, parseHookAction(d))
	}
	return out
}

// Load reads and decodes a setup file at path, resolving every TOML
// entry into its wired stream.Entry and returning the fully-formed
// stream.Setup alongside the input-device descriptors the caller still
// has to open itself. inputCaps should reflect whatever capabilities
// are already known about the listed input devices (empty is fine; the
// dispatch loop calls Setup.UpdateInputCaps as each device opens).
func Load(path string, inputCaps capability.InputCapabilities, router stream.OutputRouter, spawn stream.Spawner) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading setup file %s: %w", path, err)
	}
	var doc Document
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing setup file %s: %w", path, err)
	}
	if len(doc.Output) != 1 {
		return nil, fmt.Errorf("setup file must declare exactly one [[output]], got %d", len(doc.Output))
	}

	inputs := make([]Input, 0, len(doc.Input))
	for _, in := range doc.Input {
		grab := GrabMode(in.Grab)
		if grab == "" {
			grab = GrabAuto
		}
		persist := PersistMode(in.Persist)
		if persist == "" {
			persist = PersistReopen
		}
		inputs = append(inputs, Input{
			Path:    in.Path,
			Domain:  domain.Intern(in.Domain),
			Grab:    grab,
			Persist: persist,
		})
	}

	var outputDomains []domain.Domain
	if doms := doc.Output[0].Domains; doms != nil {
		outputDomains = make([]domain.Domain, 0, len(doms))
		for _, name := range doms {
			outputDomains = append(outputDomains, domain.Intern(name))
		}
	}

	tokens := &stream.TokenAllocator{}
	entries := make([]stream.Entry, 0, len(doc.Stream))
	for i, sd := range doc.Stream {
		entry, err := decodeStreamEntry(sd, tokens, spawn)
		if err != nil {
			return nil, fmt.Errorf("stream entry %d (%s): %w", i, sd.Type, err)
		}
		entries = append(entries, entry)
	}

	setup := stream.NewSetup(entries, inputCaps, outputDomains, router, spawn)
	return &Result{Inputs: inputs, OutputName: doc.Output[0].Name, Setup: setup}, nil
}

func decodeStreamEntry(sd StreamDoc, tokens *stream.TokenAllocator, spawn stream.Spawner) (stream.Entry, error) {
	switch sd.Type {
	case "map":
		match, err := parsePredicate(sd.Match)
		if err != nil {
			return stream.Entry{}, err
		}
		actions, err := parseActions(sd.Emit)
		if err != nil {
			return stream.Entry{}, err
		}
		return stream.NewMap(&stream.MapEntry{Match: match, Actions: actions}), nil

	case "toggle":
		match, err := parsePredicate(sd.Match)
		if err != nil {
			return stream.Entry{}, err
		}
		branches := make([][]stream.MapAction, 0, len(sd.Branches))
		for _, b := range sd.Branches {
			actions, err := parseActions(b)
			if err != nil {
				return stream.Entry{}, err
			}
			branches = append(branches, actions)
		}
		return stream.NewToggle(&stream.ToggleEntry{Name: sd.Name, Match: match, Branches: branches}), nil

	case "merge":
		match, err := parsePredicate(sd.Match)
		if err != nil {
			return stream.Entry{}, err
		}
		doms := make([]domain.Domain, 0, len(sd.Domains))
		for _, name := range sd.Domains {
			doms = append(doms, domain.Intern(name))
		}
		target := domain.Intern(sd.Target)
		return stream.NewMerge(stream.NewMergeEntry(match, doms, target)), nil

	case "hook":
		keys, err := parsePredicates(sd.Keys)
		if err != nil {
			return stream.Entry{}, err
		}
		onPress := parseHookActions(sd.OnPress)
		onRelease := parseHookActions(sd.OnRelease)
		onHold := parseHookActions(sd.OnHold)
		hold := time.Duration(sd.HoldMs) * time.Millisecond
		h := stream.NewHookEntry(keys, onPress, onRelease, onHold, hold, tokens.Next())
		return stream.NewHook(h), nil

	case "withhold":
		keys, err := parsePredicates(sd.Keys)
		if err != nil {
			return stream.Entry{}, err
		}
		timeout := time.Duration(sd.TimeoutMs) * time.Millisecond
		w := stream.NewWithholdEntry(keys, timeout, tokens.Next())
		return stream.NewWithhold(w), nil

	case "delay":
		match, err := parsePredicate(sd.Match)
		if err != nil {
			return stream.Entry{}, err
		}
		delay := time.Duration(sd.PeriodMs) * time.Millisecond
		d := stream.NewDelayEntry(match, delay, tokens.Next())
		return stream.NewDelay(d), nil

	case "print":
		match, err := parsePredicate(sd.Match)
		if err != nil {
			return stream.Entry{}, err
		}
		return stream.NewPrint(&stream.PrintEntry{Match: match, Printer: logPrinter{}}), nil

	default:
		return stream.Entry{}, fmt.Errorf("unknown stream entry type %q", sd.Type)
	}
}

func parsePredicates(docs []MatchDoc) ([]stream.Predicate, error) {
	out := make([]stream.Predicate, 0, len(docs))
	for _, d := range docs {
		p, err := parsePredicate(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// logPrinter is the default Printer a [[stream]] print entry uses when
// the setup file does not wire anything fancier: one log line per
// observed event, at debug level, through the setupfile module logger.
type logPrinter struct{}

func (logPrinter) Print(e event.Event) {
	logger.Debug("print", "domain", domain.Name(e.Domain), "type", ecodes.TypeName(e.Type), "code", ecodes.EventName(e.Type, e.Code), "value", e.Value)
}
