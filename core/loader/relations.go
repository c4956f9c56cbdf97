package loader

import (
	"github.com/vegarringdal/web-ifc/core/schema"
	"github.com/vegarringdal/web-ifc/core/step"
)

// Post-index passes. Each pass walks the type bucket built during parse,
// so cost is proportional to the relations present, not to the file.
// References to expressIDs the file never defines are kept as-is: the
// relation maps record ids, not line lookups.

// populateRelVoidsMap records building element -> opening element edges
// from IFCRELVOIDSELEMENT entities (argument 4 relating, argument 5
// related).
func (l *Loader) populateRelVoidsMap() error {
	for _, relVoidID := range l.GetExpressIDsWithType(schema.IfcRelVoidsElement) {
		lineID, ok := l.meta.LineIndexFor(relVoidID)
		if !ok {
			continue
		}
		line := l.meta.Lines[lineID]

		if err := l.MoveToArgumentOffset(line, 4); err != nil {
			return err
		}
		relatingBuildingElement, err := l.GetRefArgument()
		if err != nil {
			return err
		}
		relatedOpeningElement, err := l.GetRefArgument()
		if err != nil {
			return err
		}

		l.meta.RelVoids[relatingBuildingElement] = append(l.meta.RelVoids[relatingBuildingElement], relatedOpeningElement)
	}
	return nil
}

// populateRelAggregatesMap records relating element -> member edges from
// IFCRELAGGREGATES entities (argument 4 relating, argument 5 a set of
// members).
func (l *Loader) populateRelAggregatesMap() error {
	for _, relAggregateID := range l.GetExpressIDsWithType(schema.IfcRelAggregates) {
		lineID, ok := l.meta.LineIndexFor(relAggregateID)
		if !ok {
			continue
		}
		line := l.meta.Lines[lineID]

		if err := l.MoveToArgumentOffset(line, 4); err != nil {
			return err
		}
		relatingElement, err := l.GetRefArgument()
		if err != nil {
			return err
		}
		aggregates, err := l.GetSetArgument()
		if err != nil {
			return err
		}

		for _, aggregateOffset := range aggregates {
			aggregateID, err := l.GetRefArgumentAt(aggregateOffset)
			if err != nil {
				return err
			}
			l.meta.RelAggregates[relatingElement] = append(l.meta.RelAggregates[relatingElement], aggregateID)
		}
	}
	return nil
}

// populateStyledItemMap records representation item -> (styled item,
// style assignment) pairs from IFCSTYLEDITEM entities. Argument 0 is
// optionally a REF to the representation item; styled items without one
// carry no indexable relation.
func (l *Loader) populateStyledItemMap() error {
	for _, styledItemID := range l.GetExpressIDsWithType(schema.IfcStyledItem) {
		lineID, ok := l.meta.LineIndexFor(styledItemID)
		if !ok {
			continue
		}
		line := l.meta.Lines[lineID]

		if err := l.MoveToArgumentOffset(line, 0); err != nil {
			return err
		}
		kind, err := l.GetTokenType()
		if err != nil {
			return err
		}
		if kind != step.TokenRef {
			continue
		}
		l.Reverse()

		representationItem, err := l.GetRefArgument()
		if err != nil {
			return err
		}
		styleAssignments, err := l.GetSetArgument()
		if err != nil {
			return err
		}

		for _, assignmentOffset := range styleAssignments {
			styleAssignmentID, err := l.GetRefArgumentAt(assignmentOffset)
			if err != nil {
				return err
			}
			l.meta.StyledItems[representationItem] = append(l.meta.StyledItems[representationItem], RefPair{
				First:  styledItemID,
				Second: styleAssignmentID,
			})
		}
	}
	return nil
}

// populateRelMaterialsMap records root object -> material pairs from
// IFCRELASSOCIATESMATERIAL (argument 4 roots, argument 5 material select)
// and material -> representation pairs from
// IFCMATERIALDEFINITIONREPRESENTATION (argument 2 representations,
// argument 3 material).
func (l *Loader) populateRelMaterialsMap() error {
	for _, relAssocID := range l.GetExpressIDsWithType(schema.IfcRelAssociatesMaterial) {
		lineID, ok := l.meta.LineIndexFor(relAssocID)
		if !ok {
			continue
		}
		line := l.meta.Lines[lineID]

		if err := l.MoveToArgumentOffset(line, 5); err != nil {
			return err
		}
		materialSelect, err := l.GetRefArgument()
		if err != nil {
			return err
		}

		if err := l.MoveToArgumentOffset(line, 4); err != nil {
			return err
		}
		relatedObjects, err := l.GetSetArgument()
		if err != nil {
			return err
		}

		for _, rootOffset := range relatedObjects {
			rootID, err := l.GetRefArgumentAt(rootOffset)
			if err != nil {
				return err
			}
			l.meta.RelMaterials[rootID] = append(l.meta.RelMaterials[rootID], RefPair{
				First:  relAssocID,
				Second: materialSelect,
			})
		}
	}

	for _, matDefID := range l.GetExpressIDsWithType(schema.IfcMaterialDefinitionRepresentation) {
		lineID, ok := l.meta.LineIndexFor(matDefID)
		if !ok {
			continue
		}
		line := l.meta.Lines[lineID]

		if err := l.MoveToArgumentOffset(line, 2); err != nil {
			return err
		}
		representations, err := l.GetSetArgument()
		if err != nil {
			return err
		}

		if err := l.MoveToArgumentOffset(line, 3); err != nil {
			return err
		}
		material, err := l.GetRefArgument()
		if err != nil {
			return err
		}

		for _, representationOffset := range representations {
			representationID, err := l.GetRefArgumentAt(representationOffset)
			if err != nil {
				return err
			}
			l.meta.MaterialDefinitions[material] = append(l.meta.MaterialDefinitions[material], RefPair{
				First:  matDefID,
				Second: representationID,
			})
		}
	}
	return nil
}
