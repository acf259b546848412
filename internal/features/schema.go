package features

import (
	"fmt"
	"strconv"
	"strings"
)

// DomainNumeric is the declared domain of count attributes.
const DomainNumeric = "NUMERIC"

// ClassAttribute is the name of the trailing class attribute.
const ClassAttribute = "real_fork"

// Variant selects how base attributes are declared.
type Variant string

const (
	// VariantCount declares every base attribute NUMERIC.
	VariantCount Variant = "count"
	// VariantBinary declares existence features {True, False}.
	VariantBinary Variant = "binary"
)

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantCount, "":
		return VariantCount, nil
	case VariantBinary:
		return VariantBinary, nil
	default:
		return "", fmt.Errorf("unknown feature variant %q (want count or binary)", s)
	}
}

// Options control which expansion stages a schema includes.
type Options struct {
	Relation   string
	Variant    Variant
	Category   bool
	Binary     bool
	Pairwise   bool
	Thresholds Thresholds
}

// DefaultOptions enables the category and binary copies but not pairwise sums.
func DefaultOptions() Options {
	return Options{
		Relation:   "iftforks",
		Variant:    VariantCount,
		Category:   true,
		Binary:     true,
		Pairwise:   false,
		Thresholds: DefaultThresholds(),
	}
}

type columnKind int

const (
	columnBase columnKind = iota
	columnCategory
	columnBinary
	columnPairwise
)

// Column is one declared attribute and the recipe for its value.
type Column struct {
	Name   string
	Domain string

	kind    columnKind
	feature int
	partner int
	asBool  bool
}

// Schema is the ordered attribute list of a feature table. The class
// attribute is not part of Columns; it is always last.
type Schema struct {
	Relation   string
	Columns    []Column
	Class      Column
	thresholds Thresholds
	width      int
}

// BuildSchema lays out the columns for catalog under opts: base attributes,
// then category copies, then binary copies, then pairwise sums.
func BuildSchema(catalog []Feature, opts Options) (*Schema, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("feature catalog is empty")
	}
	if opts.Category && len(opts.Thresholds) == 0 {
		return nil, ErrNoThresholds
	}

	seen := make(map[string]bool, len(catalog))
	for _, f := range catalog {
		if seen[f.Name] {
			return nil, fmt.Errorf("feature %q declared twice", f.Name)
		}
		seen[f.Name] = true
	}

	s := &Schema{
		Relation:   opts.Relation,
		thresholds: opts.Thresholds,
		width:      len(catalog),
		Class: Column{
			Name:   ClassAttribute,
			Domain: enum(string(Fork), string(NotFork)),
		},
	}

	for i, f := range catalog {
		col := Column{Name: f.Name, Domain: DomainNumeric, kind: columnBase, feature: i}
		if opts.Variant == VariantBinary && f.Existence {
			col.Domain = enum("True", "False")
			col.asBool = true
		}
		s.Columns = append(s.Columns, col)
	}

	if opts.Category {
		domain := enum(opts.Thresholds.Labels()...)
		for i, f := range catalog {
			if f.Stages.Has(StageCategory) {
				s.Columns = append(s.Columns, Column{Name: "category__" + f.Name, Domain: domain, kind: columnCategory, feature: i})
			}
		}
	}

	if opts.Binary {
		for i, f := range catalog {
			if f.Stages.Has(StageBinary) {
				s.Columns = append(s.Columns, Column{Name: "binary__" + f.Name, Domain: enum("True", "False", "None"), kind: columnBinary, feature: i})
			}
		}
	}

	if opts.Pairwise {
		for i, a := range catalog {
			if !a.Stages.Has(StagePairwise) {
				continue
			}
			for j := i + 1; j < len(catalog); j++ {
				b := catalog[j]
				if !b.Stages.Has(StagePairwise) {
					continue
				}
				s.Columns = append(s.Columns, Column{
					Name:    a.Name + "-plus-" + b.Name,
					Domain:  DomainNumeric,
					kind:    columnPairwise,
					feature: i,
					partner: j,
				})
			}
		}
	}

	return s, nil
}

// Names returns the attribute names in order, class attribute last.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return append(names, s.Class.Name)
}

// Values renders the feature values of one row from its base counts.
func (s *Schema) Values(counts []int) ([]string, error) {
	if len(counts) != s.width {
		return nil, fmt.Errorf("got %d counts for %d base features", len(counts), s.width)
	}

	values := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		n := counts[c.feature]
		switch c.kind {
		case columnBase:
			if !c.asBool {
				if n < 0 {
					return nil, fmt.Errorf("%s: %w", c.Name, ErrNegativeCount)
				}
				values = append(values, strconv.Itoa(n))
				continue
			}
			fallthrough
		case columnBinary:
			ok, err := Exists(n)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			values = append(values, boolValue(ok))
		case columnCategory:
			label, err := s.thresholds.Bin(n)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			values = append(values, label)
		case columnPairwise:
			values = append(values, strconv.Itoa(n+counts[c.partner]))
		}
	}
	return values, nil
}

// Row renders a full data row: feature values followed by the label.
func (s *Schema) Row(counts []int, label Label) ([]string, error) {
	values, err := s.Values(counts)
	if err != nil {
		return nil, err
	}
	return append(values, string(label)), nil
}

func enum(values ...string) string {
	return "{" + strings.Join(values, ",") + "}"
}

func boolValue(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
