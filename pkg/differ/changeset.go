// Package differ compares the rows already in a table with the rows a
// snapshot wants there, matching them by natural key.
package differ

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/staymap/pkg/store"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a row must be created.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a row must be updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates a stale row must be deleted.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a single field.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// Addition is a row to create.
type Addition struct {
	Key    string
	Fields store.Fields
}

// Update is an existing row whose fields differ from the new record.
type Update struct {
	Key      string
	Existing store.Record
	New      store.Fields
	Changes  []FieldChange
}

// Removal is an existing row no new record claimed.
type Removal struct {
	Key    string
	Record store.Record
}

// Changeset is the plan that turns the existing rows into the new ones.
type Changeset struct {
	Added     []Addition
	Updated   []Update
	Unchanged []string       // keys of rows that already match
	Removed   []Removal
	Invalid   []store.Fields // new records whose key is empty
	Summary   ChangesetSummary
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	Added        int
	Updated      int
	Unchanged    int
	Removed      int
	Invalid      int
	TotalChanges int
}

// HasChanges returns true if the changeset contains any writes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// String returns a one-line summary.
func (c *Changeset) String() string {
	return fmt.Sprintf("%d to create, %d to update, %d unchanged, %d to delete",
		c.Summary.Added, c.Summary.Updated, c.Summary.Unchanged, c.Summary.Removed)
}

// Describe returns a multi-line description of every planned write.
func (c *Changeset) Describe() string {
	var b strings.Builder
	for _, a := range c.Added {
		fmt.Fprintf(&b, "+ %s\n", a.Key)
	}
	for _, u := range c.Updated {
		fmt.Fprintf(&b, "~ %s\n", u.Key)
		for _, ch := range u.Changes {
			fmt.Fprintf(&b, "    %s: %v -> %v\n", ch.Field, ch.OldValue, ch.NewValue)
		}
	}
	for _, r := range c.Removed {
		fmt.Fprintf(&b, "- %s\n", r.Key)
	}
	return b.String()
}

func (c *Changeset) finalize() {
	sort.Slice(c.Added, func(i, j int) bool { return c.Added[i].Key < c.Added[j].Key })
	sort.Slice(c.Updated, func(i, j int) bool { return c.Updated[i].Key < c.Updated[j].Key })
	sort.Strings(c.Unchanged)
	sort.SliceStable(c.Removed, func(i, j int) bool { return c.Removed[i].Key < c.Removed[j].Key })

	c.Summary = ChangesetSummary{
		Added:     len(c.Added),
		Updated:   len(c.Updated),
		Unchanged: len(c.Unchanged),
		Removed:   len(c.Removed),
		Invalid:   len(c.Invalid),
	}
	c.Summary.TotalChanges = c.Summary.Added + c.Summary.Updated + c.Summary.Removed
}
