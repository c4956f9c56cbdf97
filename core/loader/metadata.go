package loader

// IfcLine is the index record for one STEP record on the tape.
type IfcLine struct {
	// ExpressID is the per-file entity id (`#N`), 0 for header records.
	ExpressID uint32
	// LineIndex is the dense slot of this line in the line table.
	LineIndex uint32
	// IfcType is the numeric entity-type code (see core/schema).
	IfcType uint32
	// TapeOffset is the byte offset of the line's first token.
	TapeOffset uint64
	// TapeEnd is the byte offset just past the line's LINE_END token.
	TapeEnd uint64
}

// RefPair is an ordered pair of expressIDs used by the relation maps.
type RefPair struct {
	First  uint32
	Second uint32
}

// MetaData holds every index built over the tape: the line table, the
// expressID and type lookups, the populated relation maps, and the linear
// scaling factor. Maps are handed out by reference after a load with
// read-only intent; mutating the loader invalidates outstanding
// references.
type MetaData struct {
	// Lines is the entity line table in parse order.
	Lines []IfcLine
	// HeaderLines are the header-section records (FILE_DESCRIPTION,
	// FILE_NAME, FILE_SCHEMA) in parse order. They are indexed like
	// entity lines but excluded from the DATA section on export.
	HeaderLines []IfcLine
	// IfcTypeToLineID buckets line indices by entity-type code in parse
	// order.
	IfcTypeToLineID map[uint32][]uint32

	// RelVoids maps a building element to its opening elements.
	RelVoids map[uint32][]uint32
	// RelAggregates maps a relating element to its aggregate members.
	RelAggregates map[uint32][]uint32
	// StyledItems maps a representation item to (styled item, style
	// assignment) pairs.
	StyledItems map[uint32][]RefPair
	// RelMaterials maps a root object to (rel-assoc, material select)
	// pairs.
	RelMaterials map[uint32][]RefPair
	// MaterialDefinitions maps a material to (material definition
	// representation, representation) pairs.
	MaterialDefinitions map[uint32][]RefPair

	// LinearScalingFactor converts the file's length unit to metres.
	LinearScalingFactor float64

	// expressIDToLine holds lineIndex+1 per expressID slot, so the zero
	// value means absent without colliding with line index 0. Grows by
	// doubling from current capacity.
	expressIDToLine []uint32
}

// NewMetaData creates an empty index set with a scaling factor of 1.
func NewMetaData() *MetaData {
	return &MetaData{
		IfcTypeToLineID:     make(map[uint32][]uint32),
		RelVoids:            make(map[uint32][]uint32),
		RelAggregates:       make(map[uint32][]uint32),
		StyledItems:         make(map[uint32][]RefPair),
		RelMaterials:        make(map[uint32][]RefPair),
		MaterialDefinitions: make(map[uint32][]RefPair),
		LinearScalingFactor: 1.0,
	}
}

// LineIndexFor returns the line index mapped to an expressID. The second
// return is false when the id is absent; dangling references are expected
// and are not an error.
func (m *MetaData) LineIndexFor(expressID uint32) (uint32, bool) {
	if expressID >= uint32(len(m.expressIDToLine)) {
		return 0, false
	}
	slot := m.expressIDToLine[expressID]
	if slot == 0 {
		return 0, false
	}
	return slot - 1, true
}

// setLineIndex maps an expressID to a line index, growing the slot table
// geometrically as needed.
func (m *MetaData) setLineIndex(expressID, lineIndex uint32) {
	if expressID >= uint32(len(m.expressIDToLine)) {
		newLen := uint32(len(m.expressIDToLine)) * 2
		if newLen <= expressID {
			newLen = expressID + 1
		}
		grown := make([]uint32, newLen)
		copy(grown, m.expressIDToLine)
		m.expressIDToLine = grown
	}
	m.expressIDToLine[expressID] = lineIndex + 1
}
