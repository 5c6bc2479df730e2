package stream

// Kind tags which variant an Entry holds: a tagged sum rather than
// dynamic dispatch, since each variant's apply/wakeup signature differs
// (Hook and Toggle need the shared State, Delay and Withhold need a
// loopback handle, Print never writes output).
type Kind int

const (
	KindMap Kind = iota
	KindToggle
	KindMerge
	KindHook
	KindWithhold
	KindDelay
	KindPrint
	kindSourceGate
	kindOutputGate
)

// Entry is one stage of a stream. Exactly one of the variant pointers is
// non-nil, selected by Kind.
type Entry struct {
	Kind Kind

	Map      *MapEntry
	Toggle   *ToggleEntry
	Merge    *MergeEntry
	Hook     *HookEntry
	Withhold *WithholdEntry
	Delay    *DelayEntry
	Print    *PrintEntry

	sourceGate *sourceGate
	outputGate *outputGate
}

func NewMap(m *MapEntry) Entry           { return Entry{Kind: KindMap, Map: m} }
func NewToggle(t *ToggleEntry) Entry     { return Entry{Kind: KindToggle, Toggle: t} }
func NewMerge(m *MergeEntry) Entry       { return Entry{Kind: KindMerge, Merge: m} }
func NewHook(h *HookEntry) Entry         { return Entry{Kind: KindHook, Hook: h} }
func NewWithhold(w *WithholdEntry) Entry { return Entry{Kind: KindWithhold, Withhold: w} }
func NewDelay(d *DelayEntry) Entry       { return Entry{Kind: KindDelay, Delay: d} }
func NewPrint(p *PrintEntry) Entry       { return Entry{Kind: KindPrint, Print: p} }

func newSourceGate(g *sourceGate) Entry { return Entry{Kind: kindSourceGate, sourceGate: g} }
func newOutputGate(g *outputGate) Entry { return Entry{Kind: kindOutputGate, outputGate: g} }
