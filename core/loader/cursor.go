package loader

import (
	"fmt"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/step"
)

// Argument navigation. These operations move the shared tape cursor; a
// caller must finish reading one argument before positioning for the
// next.

// MoveTo seeks the tape cursor to an absolute offset.
func (l *Loader) MoveTo(offset uint64) error {
	return l.tape.MoveTo(offset)
}

// MoveToLine seeks to the first token of a line.
func (l *Loader) MoveToLine(lineID uint32) error {
	line, err := l.GetLine(lineID)
	if err != nil {
		return err
	}
	return l.tape.MoveTo(line.TapeOffset)
}

// MoveToLineArgument positions the cursor at the start of the i-th
// top-level argument of a line identified by line index.
func (l *Loader) MoveToLineArgument(lineID uint32, argumentIndex int) error {
	line, err := l.GetLine(lineID)
	if err != nil {
		return err
	}
	return l.MoveToArgumentOffset(line, argumentIndex)
}

// MoveToArgumentOffset positions the cursor at the start of the 0-based
// i-th top-level argument of a line. Tokens inside nested sets are
// skipped transparently; a whole nested set counts as one argument.
func (l *Loader) MoveToArgumentOffset(line IfcLine, argumentIndex int) error {
	if err := l.tape.MoveTo(line.TapeOffset); err != nil {
		return err
	}

	movedOver := -1
	setDepth := 0
	for {
		if setDepth == 1 {
			movedOver++
			if movedOver == argumentIndex {
				return nil
			}
		}

		tag, err := l.tape.ReadTag()
		if err != nil {
			return err
		}

		switch step.TokenType(tag) {
		case step.TokenLineEnd:
			return errors.NewValidation("argumentIndex", fmt.Sprintf("line ended before argument %d", argumentIndex))
		case step.TokenUnknown, step.TokenEmpty:
		case step.TokenSetBegin:
			setDepth++
		case step.TokenSetEnd:
			setDepth--
			if setDepth == 0 {
				return errors.NewValidation("argumentIndex", fmt.Sprintf("line has fewer than %d arguments", argumentIndex+1))
			}
		case step.TokenString, step.TokenEnum, step.TokenLabel:
			if _, err := l.tape.ReadStringView(); err != nil {
				return err
			}
		case step.TokenRef:
			if _, err := l.tape.ReadUint32(); err != nil {
				return err
			}
		case step.TokenReal:
			if _, err := l.tape.ReadFloat64(); err != nil {
				return err
			}
		default:
			return errors.NewParse("tape", int(l.tape.GetReadOffset()), fmt.Sprintf("invalid token tag %d", tag))
		}
	}
}

// GetTokenType reads the token tag at the cursor. Call Reverse to restore
// the cursor afterwards.
func (l *Loader) GetTokenType() (step.TokenType, error) {
	tag, err := l.tape.ReadTag()
	if err != nil {
		return 0, err
	}
	return step.TokenType(tag), nil
}

// Reverse backs the cursor up over the most recently read token,
// including its payload.
func (l *Loader) Reverse() {
	l.tape.Reverse()
}

// GetRefArgument reads a REF argument at the cursor.
func (l *Loader) GetRefArgument() (uint32, error) {
	tag, err := l.tape.ReadTag()
	if err != nil {
		return 0, err
	}
	if step.TokenType(tag) != step.TokenRef {
		return 0, errors.NewTypeMismatch(step.TokenRef.String(), step.TokenType(tag).String())
	}
	return l.tape.ReadUint32()
}

// GetRefArgumentAt seeks to a tape offset and reads a REF argument.
func (l *Loader) GetRefArgumentAt(tapeOffset uint64) (uint32, error) {
	if err := l.tape.MoveTo(tapeOffset); err != nil {
		return 0, err
	}
	return l.GetRefArgument()
}

// GetStringArgument reads a STRING, ENUM, or LABEL argument at the cursor
// and returns an owned copy of the payload. The three kinds share the
// length-prefixed layout; enumeration names read through here during the
// unit pass.
func (l *Loader) GetStringArgument() (string, error) {
	tag, err := l.tape.ReadTag()
	if err != nil {
		return "", err
	}
	kind := step.TokenType(tag)
	if kind != step.TokenString && kind != step.TokenEnum && kind != step.TokenLabel {
		return "", errors.NewTypeMismatch(step.TokenString.String(), kind.String())
	}
	view, err := l.tape.ReadStringView()
	if err != nil {
		return "", err
	}
	return string(view), nil
}

// GetDoubleArgument reads a REAL argument at the cursor.
func (l *Loader) GetDoubleArgument() (float64, error) {
	tag, err := l.tape.ReadTag()
	if err != nil {
		return 0, err
	}
	if step.TokenType(tag) != step.TokenReal {
		return 0, errors.NewTypeMismatch(step.TokenReal.String(), step.TokenType(tag).String())
	}
	return l.tape.ReadFloat64()
}

// GetDoubleArgumentAt seeks to a tape offset and reads a REAL argument.
func (l *Loader) GetDoubleArgumentAt(tapeOffset uint64) (float64, error) {
	if err := l.tape.MoveTo(tapeOffset); err != nil {
		return 0, err
	}
	return l.GetDoubleArgument()
}

// GetSetArgument consumes a SET argument at the cursor and returns the
// tape offset of each top-level member; a nested set is one member,
// addressed by its SET_BEGIN. The cursor ends one byte past the set's
// SET_END, so the set is fully consumed at return. Offsets stay valid for
// the life of the tape — members can be read later as REF, REAL, or
// nested structure without eager conversion.
func (l *Loader) GetSetArgument() ([]uint64, error) {
	tag, err := l.tape.ReadTag()
	if err != nil {
		return nil, err
	}
	if step.TokenType(tag) != step.TokenSetBegin {
		return nil, errors.NewTypeMismatch(step.TokenSetBegin.String(), step.TokenType(tag).String())
	}

	var offsets []uint64
	depth := 1
	for {
		offset := l.tape.GetReadOffset()
		tag, err := l.tape.ReadTag()
		if err != nil {
			return nil, err
		}

		switch step.TokenType(tag) {
		case step.TokenSetBegin:
			if depth == 1 {
				offsets = append(offsets, offset)
			}
			depth++
		case step.TokenSetEnd:
			depth--
			if depth == 0 {
				return offsets, nil
			}
		case step.TokenString, step.TokenEnum, step.TokenLabel:
			if depth == 1 {
				offsets = append(offsets, offset)
			}
			if _, err := l.tape.ReadStringView(); err != nil {
				return nil, err
			}
		case step.TokenRef:
			if depth == 1 {
				offsets = append(offsets, offset)
			}
			if _, err := l.tape.ReadUint32(); err != nil {
				return nil, err
			}
		case step.TokenReal:
			if depth == 1 {
				offsets = append(offsets, offset)
			}
			if _, err := l.tape.ReadFloat64(); err != nil {
				return nil, err
			}
		case step.TokenUnknown, step.TokenEmpty:
			if depth == 1 {
				offsets = append(offsets, offset)
			}
		case step.TokenLineEnd:
			return nil, errors.NewParse("tape", int(offset), "line ended inside a set")
		default:
			return nil, errors.NewParse("tape", int(offset), fmt.Sprintf("invalid token tag %d", tag))
		}
	}
}
