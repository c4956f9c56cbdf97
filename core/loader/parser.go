package loader

import (
	"fmt"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/schema"
	"github.com/vegarringdal/web-ifc/core/step"
	"github.com/vegarringdal/web-ifc/core/tape"
)

// parser walks the tokenized tape once and fills the line table and the
// expressID/type indices.
type parser struct {
	tape *tape.Tape
	meta *MetaData
}

// parseTape scans from offset 0, recognising line boundaries. Data lines
// start with a REF (the expressID) followed by the type LABEL; header
// lines start with a LABEL. expectedLines is a capacity hint from the
// tokenizer.
func (p *parser) parseTape(expectedLines uint32) error {
	p.meta.Lines = make([]IfcLine, 0, expectedLines)
	if err := p.tape.MoveTo(0); err != nil {
		return err
	}

	for !p.tape.AtEnd() {
		start := p.tape.GetReadOffset()
		tag, err := p.tape.ReadTag()
		if err != nil {
			return err
		}

		switch step.TokenType(tag) {
		case step.TokenRef:
			expressID, err := p.tape.ReadUint32()
			if err != nil {
				return err
			}
			typeCode, err := p.readTypeLabel(start)
			if err != nil {
				return err
			}
			end, err := p.skipToLineEnd(start)
			if err != nil {
				return err
			}
			lineIndex := uint32(len(p.meta.Lines))
			p.meta.Lines = append(p.meta.Lines, IfcLine{
				ExpressID:  expressID,
				LineIndex:  lineIndex,
				IfcType:    typeCode,
				TapeOffset: start,
				TapeEnd:    end,
			})
			p.meta.setLineIndex(expressID, lineIndex)
			p.meta.IfcTypeToLineID[typeCode] = append(p.meta.IfcTypeToLineID[typeCode], lineIndex)

		case step.TokenLabel:
			view, err := p.tape.ReadStringView()
			if err != nil {
				return err
			}
			typeCode := schema.CodeOf(string(view))
			end, err := p.skipToLineEnd(start)
			if err != nil {
				return err
			}
			p.meta.HeaderLines = append(p.meta.HeaderLines, IfcLine{
				ExpressID:  0,
				LineIndex:  uint32(len(p.meta.HeaderLines)),
				IfcType:    typeCode,
				TapeOffset: start,
				TapeEnd:    end,
			})

		case step.TokenLineEnd:
			// Empty line, nothing to index.

		default:
			return errors.NewParse("tape", int(start), fmt.Sprintf("line starts with %s", step.TokenType(tag)))
		}
	}
	return nil
}

// readTypeLabel consumes the LABEL following a line's expressID and
// resolves it to a type code.
func (p *parser) readTypeLabel(lineStart uint64) (uint32, error) {
	tag, err := p.tape.ReadTag()
	if err != nil {
		return 0, err
	}
	if step.TokenType(tag) != step.TokenLabel {
		return 0, errors.NewParse("tape", int(lineStart), fmt.Sprintf("expected type label after expressID, got %s", step.TokenType(tag)))
	}
	view, err := p.tape.ReadStringView()
	if err != nil {
		return 0, err
	}
	return schema.CodeOf(string(view)), nil
}

// skipToLineEnd advances past the rest of a line and returns the offset
// just past its LINE_END token.
func (p *parser) skipToLineEnd(lineStart uint64) (uint64, error) {
	for {
		tag, err := p.tape.ReadTag()
		if err != nil {
			return 0, errors.NewParse("tape", int(lineStart), "line not terminated")
		}
		switch step.TokenType(tag) {
		case step.TokenLineEnd:
			return p.tape.GetReadOffset(), nil
		case step.TokenString, step.TokenEnum, step.TokenLabel:
			if _, err := p.tape.ReadStringView(); err != nil {
				return 0, err
			}
		case step.TokenRef:
			if _, err := p.tape.ReadUint32(); err != nil {
				return 0, err
			}
		case step.TokenReal:
			if _, err := p.tape.ReadFloat64(); err != nil {
				return 0, err
			}
		case step.TokenUnknown, step.TokenEmpty, step.TokenSetBegin, step.TokenSetEnd:
		default:
			return 0, errors.NewParse("tape", int(lineStart), fmt.Sprintf("invalid token tag %d", tag))
		}
	}
}
