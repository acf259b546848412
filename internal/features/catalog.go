package features

import (
	"fmt"
	"sort"
)

// Kind tells the extractor how a feature is computed.
type Kind int

const (
	// KindCount sums window counts over the selector's names.
	KindCount Kind = iota
	// KindFollowUp counts selector events followed by a target command.
	KindFollowUp
)

// Stage is a set of expansion stages a feature takes part in.
type Stage uint8

const (
	StageCategory Stage = 1 << iota
	StageBinary
	StagePairwise

	StageAll = StageCategory | StageBinary | StagePairwise
)

// Has reports whether s includes every stage of o.
func (s Stage) Has(o Stage) bool {
	return s&o == o
}

// Feature declares one base attribute.
type Feature struct {
	Name   string
	Kind   Kind
	Select Selector
	// Target is the command that must follow a selected event (KindFollowUp).
	Target string
	Phase  Phase
	// Existence features are declared {True, False} in the binary variant.
	Existence bool
	Stages    Stage
}

// Group names used by the default catalog.
const (
	GroupOpens      = "opens"
	GroupSelects    = "selects"
	GroupEdits      = "edits"
	GroupSearching  = "searching"
	GroupReferences = "references"
	GroupDebugging  = "debugging"
	GroupRuns       = "runs"
)

// Groups maps a group name to the events it covers.
type Groups map[string]Selector

// DefaultGroups returns the event groups of the IDE study.
func DefaultGroups() Groups {
	return Groups{
		GroupOpens:   Commands("FileOpenCommand"),
		GroupSelects: Commands("SelectTextCommand"),
		GroupEdits:   Commands("Insert", "Delete", "Replace", "UndoCommand"),
		GroupSearching: EclipseCommands(
			"org.eclipse.ui.edit.findNext",
			"org.eclipse.search.ui.performTextSearchFile",
			"org.eclipse.search.ui.openSearchDialog",
			"org.eclipse.search.ui.openFileSearchPage",
			"org.eclipse.search.ui.performTextSearchWorkspace",
			"org.eclipse.jdt.ui.edit.text.java.search.declarations.in.project",
			"org.eclipse.jdt.ui.edit.text.java.search.declarations.in.workspace",
		),
		GroupReferences: EclipseCommands(
			"org.eclipse.jdt.ui.edit.text.java.search.references.in.workspace",
			"org.eclipse.jdt.ui.edit.text.java.search.references.in.project",
		),
		GroupDebugging: EclipseCommands(
			"org.eclipse.debug.ui.commands.DebugLast",
			"org.eclipse.debug.ui.commands.Resume",
			"org.eclipse.debug.ui.commands.RunLast",
			"org.eclipse.debug.ui.commands.StepInto",
			"org.eclipse.debug.ui.commands.StepOver",
			"org.eclipse.debug.ui.commands.StepReturn",
			"org.eclipse.jdt.ui.JavaPerspective",
		),
		GroupRuns: Commands("RunCommand"),
	}
}

// Names returns the group names in sorted order.
func (g Groups) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a copy of g with the groups of o replacing same-named ones.
func (g Groups) Merge(o Groups) Groups {
	merged := make(Groups, len(g)+len(o))
	for name, sel := range g {
		merged[name] = sel
	}
	for name, sel := range o {
		merged[name] = sel
	}
	return merged
}

// Catalog builds the ordered list of the sixteen base features from groups.
func Catalog(groups Groups) ([]Feature, error) {
	get := func(name string) (Selector, error) {
		sel, ok := groups[name]
		if !ok {
			return Selector{}, fmt.Errorf("group %q is not defined", name)
		}
		if len(sel.Names) == 0 {
			return Selector{}, fmt.Errorf("group %q has no events", name)
		}
		return sel, nil
	}

	var catalog []Feature
	pair := func(name, group string, existence bool) error {
		sel, err := get(group)
		if err != nil {
			return err
		}
		for _, phase := range []Phase{PhaseBefore, PhaseAfter} {
			catalog = append(catalog, Feature{
				Name:      name + "_" + phase.String(),
				Kind:      KindCount,
				Select:    sel,
				Phase:     phase,
				Existence: existence,
				Stages:    StageAll,
			})
		}
		return nil
	}

	counts := []struct {
		name      string
		group     string
		existence bool
	}{
		{"opens", GroupOpens, true},
		{"selects", GroupSelects, false},
		{"edits", GroupEdits, false},
		{"searching", GroupSearching, false},
		{"references", GroupReferences, false},
		{"debugging", GroupDebugging, false},
		{"runs", GroupRuns, false},
	}
	for _, c := range counts {
		if err := pair(c.name, c.group, c.existence); err != nil {
			return nil, err
		}
	}

	search, err := get(GroupSearching)
	if err != nil {
		return nil, err
	}
	catalog = append(catalog,
		Feature{
			Name:   "exists_search_before_open",
			Kind:   KindFollowUp,
			Select: search,
			Target: "FileOpenCommand",
			Phase:  PhaseBefore,
			Stages: StageAll,
		},
		Feature{
			Name:   "exists_search_before_select",
			Kind:   KindFollowUp,
			Select: search,
			Target: "SelectTextCommand",
			Phase:  PhaseAfter,
			Stages: StageAll,
		},
	)

	return catalog, nil
}
