// Package loader implements the IFC loader core: tokenize STEP text onto
// a tape, index it, populate the building-model relation maps, and expose
// argument navigation and the reverse serializer.
//
// A loader instance is single-threaded: the tape cursor is shared mutable
// state, so callers must not interleave argument navigation on one loader
// from different control flows. Separate loader instances are independent.
package loader

import (
	"fmt"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/step"
	"github.com/vegarringdal/web-ifc/core/tape"
	"github.com/vegarringdal/web-ifc/internal/logging"
)

// Loader owns a tape and the indices built over it.
type Loader struct {
	settings LoaderSettings
	tape     *tape.Tape
	meta     *MetaData
	open     bool
}

// NewLoader creates an empty loader with the given settings.
func NewLoader(settings LoaderSettings) *Loader {
	return &Loader{
		settings: settings,
		tape:     tape.New(),
		meta:     NewMetaData(),
	}
}

// LoadFile tokenizes and indexes a STEP file, then runs the post-index
// passes. On failure all partial indices are discarded and the loader
// stays closed.
func (l *Loader) LoadFile(content []byte) error {
	tokenizer := step.NewTokenizer(l.tape)
	numLines, err := tokenizer.Tokenize(content)
	if err != nil {
		l.reset()
		return errors.Wrap(err, "tokenize failed")
	}

	p := &parser{tape: l.tape, meta: l.meta}
	if err := p.parseTape(numLines); err != nil {
		l.reset()
		return errors.Wrap(err, "parse failed")
	}

	if err := l.populateRelVoidsMap(); err != nil {
		l.reset()
		return errors.Wrap(err, "populating rel voids failed")
	}
	if err := l.populateRelAggregatesMap(); err != nil {
		l.reset()
		return errors.Wrap(err, "populating rel aggregates failed")
	}
	if err := l.populateStyledItemMap(); err != nil {
		l.reset()
		return errors.Wrap(err, "populating styled items failed")
	}
	if err := l.populateRelMaterialsMap(); err != nil {
		l.reset()
		return errors.Wrap(err, "populating rel materials failed")
	}
	if err := l.readLinearScalingFactor(); err != nil {
		l.reset()
		return errors.Wrap(err, "reading linear scaling factor failed")
	}

	l.open = true
	logging.Debug("file loaded", "lines", len(l.meta.Lines), "tape_bytes", l.tape.GetTotalSize())
	return nil
}

// reset discards all state after a failed load.
func (l *Loader) reset() {
	l.tape = tape.New()
	l.meta = NewMetaData()
	l.open = false
}

// IsOpen reports whether a file has been loaded successfully.
func (l *Loader) IsOpen() bool {
	return l.open
}

// GetSettings returns the configuration record the loader was created
// with.
func (l *Loader) GetSettings() LoaderSettings {
	return l.settings
}

// GetTape exposes the underlying tape.
func (l *Loader) GetTape() *tape.Tape {
	return l.tape
}

// GetMetaData exposes the index set. Read-only intent after LoadFile.
func (l *Loader) GetMetaData() *MetaData {
	return l.meta
}

// PushDataToTape appends raw bytes to the tape. Used together with
// UpdateLineTape by callers that write new entity records directly.
func (l *Loader) PushDataToTape(data []byte) {
	l.tape.Push(data)
}

// GetNumLines returns the number of indexed entity lines.
func (l *Loader) GetNumLines() int {
	return len(l.meta.Lines)
}

// GetExpressIDsWithType returns the expressIDs of all lines of one type,
// in parse order.
func (l *Loader) GetExpressIDsWithType(typeCode uint32) []uint32 {
	lineIDs := l.meta.IfcTypeToLineID[typeCode]
	out := make([]uint32, len(lineIDs))
	for i, lineID := range lineIDs {
		out[i] = l.meta.Lines[lineID].ExpressID
	}
	return out
}

// GetLineIDsWithType returns the line indices of all lines of one type,
// in parse order.
func (l *Loader) GetLineIDsWithType(typeCode uint32) []uint32 {
	return l.meta.IfcTypeToLineID[typeCode]
}

// ExpressIDToLineID maps an expressID to its line index. The second
// return is false for ids the file never defined; dangling references are
// not an error.
func (l *Loader) ExpressIDToLineID(expressID uint32) (uint32, bool) {
	return l.meta.LineIndexFor(expressID)
}

// GetLine returns the line record at a line index.
func (l *Loader) GetLine(lineID uint32) (IfcLine, error) {
	if lineID >= uint32(len(l.meta.Lines)) {
		return IfcLine{}, errors.NewNotFound("line", fmt.Sprintf("%d", lineID))
	}
	return l.meta.Lines[lineID], nil
}

// GetHeaderLines returns the header-section records in parse order.
func (l *Loader) GetHeaderLines() []IfcLine {
	return l.meta.HeaderLines
}

// GetLinearScalingFactor returns the multiplier converting the file's
// length unit to metres.
func (l *Loader) GetLinearScalingFactor() float64 {
	return l.meta.LinearScalingFactor
}

// GetRelVoids exposes the building element -> opening elements map.
func (l *Loader) GetRelVoids() map[uint32][]uint32 {
	return l.meta.RelVoids
}

// GetRelAggregates exposes the relating element -> aggregate members map.
func (l *Loader) GetRelAggregates() map[uint32][]uint32 {
	return l.meta.RelAggregates
}

// GetStyledItems exposes the representation item -> styled item pairs map.
func (l *Loader) GetStyledItems() map[uint32][]RefPair {
	return l.meta.StyledItems
}

// GetRelMaterials exposes the root object -> material pairs map.
func (l *Loader) GetRelMaterials() map[uint32][]RefPair {
	return l.meta.RelMaterials
}

// GetMaterialDefinitions exposes the material -> representation pairs map.
func (l *Loader) GetMaterialDefinitions() map[uint32][]RefPair {
	return l.meta.MaterialDefinitions
}

// CopyTapeForExpressLine copies the tape bytes of one entity line into
// dest and returns the number of bytes copied.
func (l *Loader) CopyTapeForExpressLine(expressID uint32, dest []byte) (uint32, error) {
	lineID, ok := l.meta.LineIndexFor(expressID)
	if !ok {
		return 0, errors.NewNotFound("entity", fmt.Sprintf("#%d", expressID))
	}
	line := l.meta.Lines[lineID]
	return l.tape.Copy(line.TapeOffset, line.TapeEnd, dest)
}

// UpdateLineTape registers or updates the tape range of an entity line.
// Unknown expressIDs get a fresh line record and type-bucket entry.
func (l *Loader) UpdateLineTape(expressID, typeCode uint32, start, end uint64) {
	if _, ok := l.meta.LineIndexFor(expressID); !ok {
		lineIndex := uint32(len(l.meta.Lines))
		l.meta.Lines = append(l.meta.Lines, IfcLine{
			ExpressID: expressID,
			LineIndex: lineIndex,
			IfcType:   typeCode,
		})
		l.meta.setLineIndex(expressID, lineIndex)
		l.meta.IfcTypeToLineID[typeCode] = append(l.meta.IfcTypeToLineID[typeCode], lineIndex)
	}

	lineID, _ := l.meta.LineIndexFor(expressID)
	l.meta.Lines[lineID].TapeOffset = start
	l.meta.Lines[lineID].TapeEnd = end
}
