// Package taxonomy maps tracking-provider task identifiers to the semantic
// leave/work categories the analyzer classifies against. Providers differ in
// how they identify tasks (Harvest uses numeric IDs, AgileDay free-text task
// names); the resolution strategy is fixed per taxonomy instance so the
// classification code stays provider-agnostic.
package taxonomy

import (
	"fmt"
	"strings"
)

// Category is a semantic leave/work category.
type Category int

const (
	None Category = iota
	PublicHoliday
	Vacation
	UnpaidLeave
	ParentalLeave
	ExtraPaidLeave
	FlexLeave
	SickLeave
	ChildSickness
	InternallyInvoicable
	ProductServiceDevelopment
)

// String returns the category name as used in configuration
func (c Category) String() string {
	switch c {
	case PublicHoliday:
		return "publicHoliday"
	case Vacation:
		return "vacation"
	case UnpaidLeave:
		return "unpaidLeave"
	case ParentalLeave:
		return "parentalLeave"
	case ExtraPaidLeave:
		return "extraPaidLeave"
	case FlexLeave:
		return "flexLeave"
	case SickLeave:
		return "sickLeave"
	case ChildSickness:
		return "childSickness"
	case InternallyInvoicable:
		return "internallyInvoicable"
	case ProductServiceDevelopment:
		return "productServiceDevelopment"
	default:
		return "none"
	}
}

// Mapping binds semantic categories to one provider's task identifiers.
// Empty fields mean the provider has no task for that category.
type Mapping struct {
	PublicHoliday             string
	Vacation                  string
	UnpaidLeave               string
	ParentalLeave             string
	ExtraPaidLeave            string
	FlexLeave                 string
	SickLeave                 string
	ChildSickness             string
	InternallyInvoicable      string
	ProductServiceDevelopment string
}

func (m Mapping) pairs() []struct {
	id  string
	cat Category
} {
	return []struct {
		id  string
		cat Category
	}{
		{m.PublicHoliday, PublicHoliday},
		{m.Vacation, Vacation},
		{m.UnpaidLeave, UnpaidLeave},
		{m.ParentalLeave, ParentalLeave},
		{m.ExtraPaidLeave, ExtraPaidLeave},
		{m.FlexLeave, FlexLeave},
		{m.SickLeave, SickLeave},
		{m.ChildSickness, ChildSickness},
		{m.InternallyInvoicable, InternallyInvoicable},
		{m.ProductServiceDevelopment, ProductServiceDevelopment},
	}
}

// Taxonomy resolves task identifiers to categories. Instances are
// read-only after construction.
type Taxonomy struct {
	categories       map[string]Category
	normalize        func(string) string
	hasPublicHoliday bool
}

// NewIDTaxonomy builds a taxonomy over exact task-ID strings, as supplied
// by providers with stable numeric task identifiers.
func NewIDTaxonomy(m Mapping) (*Taxonomy, error) {
	return build(m, func(s string) string { return s })
}

// NewNameTaxonomy builds a taxonomy over free-text task names, compared
// case-insensitively.
func NewNameTaxonomy(m Mapping) (*Taxonomy, error) {
	return build(m, strings.ToLower)
}

func build(m Mapping, normalize func(string) string) (*Taxonomy, error) {
	categories := make(map[string]Category)
	for _, p := range m.pairs() {
		if p.id == "" {
			continue
		}
		key := normalize(p.id)
		if existing, ok := categories[key]; ok {
			return nil, fmt.Errorf("task identifier %q mapped to both %s and %s",
				p.id, existing, p.cat)
		}
		categories[key] = p.cat
	}

	return &Taxonomy{
		categories:       categories,
		normalize:        normalize,
		hasPublicHoliday: m.PublicHoliday != "",
	}, nil
}

// Category returns the semantic category of a task identifier, or None
// for identifiers the taxonomy does not know (ordinary work).
func (t *Taxonomy) Category(taskID string) Category {
	return t.categories[t.normalize(taskID)]
}

// HasPublicHoliday reports whether this taxonomy carries a dedicated
// public-holiday task
func (t *Taxonomy) HasPublicHoliday() bool {
	return t.hasPublicHoliday
}

// IsHoliday reports whether the task marks the whole day as leave:
// public holiday, paid vacation or unpaid leave.
func (t *Taxonomy) IsHoliday(taskID string) bool {
	switch t.Category(taskID) {
	case PublicHoliday, Vacation, UnpaidLeave:
		return true
	}
	return false
}

// IsAway is the narrow variant of IsHoliday used by taxonomies without a
// public-holiday category: paid vacation or unpaid leave only.
func (t *Taxonomy) IsAway(taskID string) bool {
	switch t.Category(taskID) {
	case Vacation, UnpaidLeave:
		return true
	}
	return false
}

// IsDayOff reports whether the entry's day is not a working-or-sick day:
// IsHoliday plus flex leave. This is the single capability the analyzer
// uses for day classification.
func (t *Taxonomy) IsDayOff(taskID string) bool {
	return t.IsHoliday(taskID) || t.Category(taskID) == FlexLeave
}

// CountsTowardWorkHours reports whether an entry's hours count toward
// total worked hours: billable work, or time tagged sick leave, child
// sickness, internally invoicable or product/service development.
func (t *Taxonomy) CountsTowardWorkHours(taskID string, billable bool) bool {
	if billable {
		return true
	}
	switch t.Category(taskID) {
	case SickLeave, ChildSickness, InternallyInvoicable, ProductServiceDevelopment:
		return true
	}
	return false
}
