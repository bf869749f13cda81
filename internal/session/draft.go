package session

import (
	"fmt"
	"strings"

	"foodbot/internal/models"
)

// Draft is the mutable item -> quantity working set for one session.
// Iteration order is first-add order so rendered responses are stable;
// a repeated Set keeps the item's original position.
type Draft struct {
	quantities map[string]int
	names      []string
}

// NewDraft creates an empty draft order
func NewDraft() *Draft {
	return &Draft{
		quantities: make(map[string]int),
	}
}

// Set records the quantity for an item. A repeated name overwrites the
// previous quantity, it does not add to it: the caller speaks the new
// total, not a delta.
func (d *Draft) Set(name string, quantity int) {
	if _, ok := d.quantities[name]; !ok {
		d.names = append(d.names, name)
	}
	d.quantities[name] = quantity
}

// Remove deletes an item and reports whether it was present
func (d *Draft) Remove(name string) bool {
	if _, ok := d.quantities[name]; !ok {
		return false
	}
	delete(d.quantities, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)
			break
		}
	}
	return true
}

// Quantity returns the recorded quantity for an item
func (d *Draft) Quantity(name string) (int, bool) {
	q, ok := d.quantities[name]
	return q, ok
}

// Len returns the number of distinct items in the draft
func (d *Draft) Len() int {
	return len(d.quantities)
}

// Empty reports whether the draft has no items
func (d *Draft) Empty() bool {
	return len(d.quantities) == 0
}

// Lines returns the draft contents in first-add order
func (d *Draft) Lines() []models.DraftLine {
	lines := make([]models.DraftLine, 0, len(d.names))
	for _, name := range d.names {
		lines = append(lines, models.DraftLine{Name: name, Quantity: d.quantities[name]})
	}
	return lines
}

// String renders the draft as "2 burger, 1 fries"
func (d *Draft) String() string {
	parts := make([]string, 0, len(d.names))
	for _, name := range d.names {
		parts = append(parts, fmt.Sprintf("%d %s", d.quantities[name], name))
	}
	return strings.Join(parts, ", ")
}
