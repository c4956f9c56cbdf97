package loader

import (
	"github.com/vegarringdal/web-ifc/core/schema"
	"github.com/vegarringdal/web-ifc/core/step"
	"github.com/vegarringdal/web-ifc/internal/logging"
)

// siPrefixMultipliers maps SI prefix enumeration names to their
// multipliers. An unknown or absent prefix means 1.
var siPrefixMultipliers = map[string]float64{
	"":      1,
	"EXA":   1e18,
	"PETA":  1e15,
	"TERA":  1e12,
	"GIGA":  1e9,
	"MEGA":  1e6,
	"KILO":  1e3,
	"HECTO": 1e2,
	"DECA":  10,
	"DECI":  1e-1,
	"CENTI": 1e-2,
	"MILLI": 1e-3,
	"MICRO": 1e-6,
	"NANO":  1e-9,
	"PICO":  1e-12,
	"FEMTO": 1e-15,
	"ATTO":  1e-18,
}

// ConvertPrefix returns the multiplier for an SI prefix name. Unknown
// prefixes map to 1.
func ConvertPrefix(prefix string) float64 {
	if multiplier, ok := siPrefixMultipliers[prefix]; ok {
		return multiplier
	}
	return 1
}

// readLinearScalingFactor resolves the file's length unit to a
// metre-multiplier. The factor stays 1 unless exactly one IFCPROJECT
// exists and its unit assignment names a METRE length unit. The pass is
// best-effort: a project line without a resolvable unit assignment keeps
// the factor at 1 with a diagnostic instead of failing the load.
func (l *Loader) readLinearScalingFactor() error {
	if err := l.resolveLinearUnit(); err != nil {
		logging.Warn("could not resolve linear unit, keeping scaling factor 1", "error", err)
	}
	return nil
}

func (l *Loader) resolveLinearUnit() error {
	projects := l.GetExpressIDsWithType(schema.IfcProject)
	if len(projects) != 1 {
		logging.Warn("unexpected IFCPROJECT count, keeping scaling factor 1", "count", len(projects))
		return nil
	}

	projectLineID, ok := l.meta.LineIndexFor(projects[0])
	if !ok {
		return nil
	}
	projectLine := l.meta.Lines[projectLineID]

	if err := l.MoveToArgumentOffset(projectLine, 8); err != nil {
		return err
	}
	unitsID, err := l.GetRefArgument()
	if err != nil {
		return err
	}

	unitsLineID, ok := l.meta.LineIndexFor(unitsID)
	if !ok {
		// Dangling unit assignment reference, nothing to resolve.
		return nil
	}
	unitsLine := l.meta.Lines[unitsLineID]

	if err := l.MoveToArgumentOffset(unitsLine, 0); err != nil {
		return err
	}
	unitOffsets, err := l.GetSetArgument()
	if err != nil {
		return err
	}

	for _, unitOffset := range unitOffsets {
		unitRef, err := l.GetRefArgumentAt(unitOffset)
		if err != nil {
			return err
		}

		unitLineID, ok := l.meta.LineIndexFor(unitRef)
		if !ok {
			continue
		}
		unitLine := l.meta.Lines[unitLineID]
		if unitLine.IfcType != schema.IfcSiUnit {
			continue
		}

		if err := l.MoveToArgumentOffset(unitLine, 1); err != nil {
			return err
		}
		unitType, err := l.GetStringArgument()
		if err != nil {
			return err
		}

		var unitPrefix string
		if err := l.MoveToArgumentOffset(unitLine, 2); err != nil {
			return err
		}
		kind, err := l.GetTokenType()
		if err != nil {
			return err
		}
		if kind == step.TokenEnum {
			l.Reverse()
			unitPrefix, err = l.GetStringArgument()
			if err != nil {
				return err
			}
		}

		if err := l.MoveToArgumentOffset(unitLine, 3); err != nil {
			return err
		}
		unitName, err := l.GetStringArgument()
		if err != nil {
			return err
		}

		if unitType == "LENGTHUNIT" && unitName == "METRE" {
			l.meta.LinearScalingFactor = ConvertPrefix(unitPrefix)
		}
	}
	return nil
}
