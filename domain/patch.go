package domain

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Patch describes a partial update. Nil fields are left untouched; ClearDue
// distinguishes "set dueDate to null" from "dueDate not supplied".
type Patch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Category    *Category
	Status      *Status
	DueDate     *time.Time
	ClearDue    bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Category == nil && p.Status == nil && p.DueDate == nil && !p.ClearDue
}

// ParsePatch decodes a partial-update body. Unknown keys are ignored so older
// servers tolerate newer clients. Unlike creation, invalid enum or date values
// here are rejected rather than coerced: a patch that cannot be applied as
// written must not silently change the task to something else.
func ParsePatch(body []byte) (Patch, error) {
	var changes map[string]interface{}
	if err := sonic.Unmarshal(body, &changes); err != nil {
		return Patch{}, ErrInvalidBody
	}
	var p Patch
	for key, raw := range changes {
		switch key {
		case "title":
			v, ok := raw.(string)
			if !ok || strings.TrimSpace(v) == "" {
				return Patch{}, ErrEmptyTitle
			}
			v = strings.TrimSpace(v)
			p.Title = &v
		case "description":
			v, ok := raw.(string)
			if !ok {
				return Patch{}, ErrInvalidBody
			}
			p.Description = &v
		case "priority":
			v, ok := raw.(string)
			pr := Priority(v)
			if !ok || !pr.valid() {
				return Patch{}, ErrInvalidPriority
			}
			p.Priority = &pr
		case "category":
			v, ok := raw.(string)
			ct := Category(v)
			if !ok || !ct.valid() {
				return Patch{}, ErrInvalidCategory
			}
			p.Category = &ct
		case "status":
			v, ok := raw.(string)
			st := Status(v)
			if !ok || !st.valid() {
				return Patch{}, ErrInvalidStatus
			}
			p.Status = &st
		case "dueDate":
			if raw == nil {
				p.ClearDue = true
				continue
			}
			v, ok := raw.(string)
			if !ok {
				return Patch{}, ErrInvalidDueDate
			}
			due, err := ParseDueDate(v)
			if err != nil {
				return Patch{}, err
			}
			if due == nil {
				p.ClearDue = true
				continue
			}
			p.DueDate = due
		}
	}
	return p, nil
}

// Apply merges the patch into the task and refreshes UpdatedAt.
func (t Task) Apply(p Patch, now time.Time) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ClearDue {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	t.UpdatedAt = now
	return t
}
