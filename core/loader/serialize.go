package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/step"
)

// DumpAsIFC re-emits the indexed tape as ISO-10303-21 text. The header is
// a fixed template regardless of what the loaded file's header said; body
// lines come out in MetaData order. The serializer never fails on a
// well-indexed tape.
func (l *Loader) DumpAsIFC() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("ISO-10303-21;\n")
	buf.WriteString("HEADER;\n")
	buf.WriteString("FILE_DESCRIPTION(('no description'), '2;1');\n")
	buf.WriteString("FILE_NAME('no name', '', (''), (''), 'web-ifc-export');\n")
	buf.WriteString("FILE_SCHEMA(('IFC2X3'));\n")
	buf.WriteString("ENDSEC;\n")
	buf.WriteString("DATA;\n")

	for _, line := range l.meta.Lines {
		if err := l.writeLine(&buf, line); err != nil {
			return nil, err
		}
	}

	buf.WriteString("ENDSEC;\nEND-ISO-10303-21;")
	return buf.Bytes(), nil
}

// ExportLine re-emits a single entity line as STEP text, without the
// surrounding header and section structure.
func (l *Loader) ExportLine(expressID uint32) ([]byte, error) {
	lineID, ok := l.meta.LineIndexFor(expressID)
	if !ok {
		return nil, errors.NewNotFound("entity", fmt.Sprintf("#%d", expressID))
	}
	var buf bytes.Buffer
	if err := l.writeLine(&buf, l.meta.Lines[lineID]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportHeaderLines re-emits the loaded file's header records as STEP
// text, one string per record. Unlike DumpAsIFC, which always writes the
// fixed header template, this exposes what the source file actually
// carried.
func (l *Loader) ExportHeaderLines() ([]string, error) {
	out := make([]string, 0, len(l.meta.HeaderLines))
	for _, line := range l.meta.HeaderLines {
		var buf bytes.Buffer
		if err := l.writeLine(&buf, line); err != nil {
			return nil, err
		}
		out = append(out, strings.TrimSuffix(buf.String(), "\n"))
	}
	return out, nil
}

// writeLine walks one line's tokens from its tape offset to LINE_END.
// A comma goes before any token that is not SET_END or LINE_END, once a
// set has opened, unless the previous token was SET_BEGIN or LABEL.
func (l *Loader) writeLine(buf *bytes.Buffer, line IfcLine) error {
	if err := l.tape.MoveTo(line.TapeOffset); err != nil {
		return err
	}

	newLine := true
	insideSet := false
	prev := step.TokenEmpty

	for !l.tape.AtEnd() {
		tag, err := l.tape.ReadTag()
		if err != nil {
			return err
		}
		kind := step.TokenType(tag)

		if kind != step.TokenSetEnd && kind != step.TokenLineEnd {
			if insideSet && prev != step.TokenSetBegin && prev != step.TokenLabel && prev != step.TokenLineEnd {
				buf.WriteByte(',')
			}
		}

		if kind == step.TokenLineEnd {
			buf.WriteString(";\n")
			break
		}

		switch kind {
		case step.TokenUnknown:
			buf.WriteByte('*')
		case step.TokenEmpty:
			buf.WriteByte('$')
		case step.TokenSetBegin:
			buf.WriteByte('(')
			insideSet = true
		case step.TokenSetEnd:
			buf.WriteByte(')')
		case step.TokenString:
			view, err := l.tape.ReadStringView()
			if err != nil {
				return err
			}
			buf.WriteByte('\'')
			buf.Write(view)
			buf.WriteByte('\'')
		case step.TokenEnum:
			view, err := l.tape.ReadStringView()
			if err != nil {
				return err
			}
			buf.WriteByte('.')
			buf.Write(view)
			buf.WriteByte('.')
		case step.TokenLabel:
			view, err := l.tape.ReadStringView()
			if err != nil {
				return err
			}
			buf.Write(view)
		case step.TokenRef:
			ref, err := l.tape.ReadUint32()
			if err != nil {
				return err
			}
			buf.WriteByte('#')
			buf.WriteString(strconv.FormatUint(uint64(ref), 10))
			if newLine {
				buf.WriteByte('=')
			}
		case step.TokenReal:
			value, err := l.tape.ReadFloat64()
			if err != nil {
				return err
			}
			buf.WriteString(strconv.FormatFloat(value, 'g', -1, 64))
		}

		newLine = false
		prev = kind
	}
	return nil
}
