package transform

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrDuplicateStage = errors.New("duplicate stage")
	ErrUnknownStage   = errors.New("unknown stage")
)

// Config is one entry of a Pipeline: a stage with its display name and on/off switch.
type Config struct {
	Name    string
	Enabled bool
	Stage   Stage
}

// ID returns the kind of the configured stage, which identifies the entry within a
// Pipeline.
func (c Config) ID() Kind {
	if c.Stage == nil {
		return ""
	}
	return c.Stage.Kind()
}

// Pipeline is the ordered list of stage configurations. Stages run top to bottom.
// Every mutating helper returns a new Pipeline and leaves the receiver untouched.
type Pipeline []Config

// DefaultPipeline returns every stage, disabled, in the order the settings panel
// lists them.
func DefaultPipeline() Pipeline {
	return Pipeline{
		{Name: "Highlight long posts", Stage: HighlightLong{MinLength: DefaultMinLength}},
		{Name: "Hide posts by selected users", Stage: HideUsers{HiddenUserIDs: []int{}}},
		{Name: "Group posts by user (insert separators)", Stage: GroupByUser{}},
		{Name: "Sort by comment count (desc)", Stage: SortByComments{}},
	}
}

// Validate checks that every entry carries a stage and that ids are unique.
func (p Pipeline) Validate() error {
	seen := make(map[Kind]struct{}, len(p))
	for i, c := range p {
		if c.Stage == nil {
			return fmt.Errorf("%w: entry %d has no stage", ErrUnknownStage, i)
		}
		if _, ok := seen[c.ID()]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStage, c.ID())
		}
		seen[c.ID()] = struct{}{}
	}
	return nil
}

// Index returns the position of the entry with the given id, or -1.
func (p Pipeline) Index(id Kind) int {
	return slices.IndexFunc(p, func(c Config) bool {
		return c.ID() == id
	})
}

// Enabled reports whether the pipeline holds an enabled entry with the given id.
func (p Pipeline) Enabled(id Kind) bool {
	i := p.Index(id)
	return i >= 0 && p[i].Enabled
}

// Requires reports whether any enabled stage needs dep.
func (p Pipeline) Requires(dep Dependency) bool {
	for _, c := range p {
		if c.Enabled && c.Stage != nil && slices.Contains(c.Stage.Requires(), dep) {
			return true
		}
	}
	return false
}

// Toggle flips the enabled flag of the entry with the given id.
func (p Pipeline) Toggle(id Kind) Pipeline {
	out := slices.Clone(p)
	if i := out.Index(id); i >= 0 {
		out[i].Enabled = !out[i].Enabled
	}
	return out
}

// SetEnabled sets the enabled flag of the entry with the given id.
func (p Pipeline) SetEnabled(id Kind, enabled bool) Pipeline {
	out := slices.Clone(p)
	if i := out.Index(id); i >= 0 {
		out[i].Enabled = enabled
	}
	return out
}

// MoveUp swaps entry i with its predecessor. Out of range positions are a no-op.
func (p Pipeline) MoveUp(i int) Pipeline {
	out := slices.Clone(p)
	if i <= 0 || i >= len(out) {
		return out
	}
	out[i-1], out[i] = out[i], out[i-1]
	return out
}

// MoveDown swaps entry i with its successor. Out of range positions are a no-op.
func (p Pipeline) MoveDown(i int) Pipeline {
	out := slices.Clone(p)
	if i < 0 || i >= len(out)-1 {
		return out
	}
	out[i], out[i+1] = out[i+1], out[i]
	return out
}

// SetMinLength updates the highlightLong threshold. Negative values are stored as 0,
// which applies DefaultMinLength.
func (p Pipeline) SetMinLength(n int) Pipeline {
	out := slices.Clone(p)
	if i := out.Index(KindHighlightLong); i >= 0 {
		out[i].Stage = HighlightLong{MinLength: max(n, 0)}
	}
	return out
}

// ToggleHiddenUser adds userID to the hideUsers set, or removes it when present.
func (p Pipeline) ToggleHiddenUser(userID int) Pipeline {
	out := slices.Clone(p)
	i := out.Index(KindHideUsers)
	if i < 0 {
		return out
	}

	current, _ := out[i].Stage.(HideUsers)
	ids := make([]int, 0, len(current.HiddenUserIDs)+1)
	found := false
	for _, id := range current.HiddenUserIDs {
		if id == userID {
			found = true
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if !found {
		ids = append(ids, userID)
	}

	out[i].Stage = HideUsers{HiddenUserIDs: ids}
	return out
}

// OrderWarnings describes enabled stages whose position makes the output differ from
// the usual intent: sorting or filtering after grouping only works inside each group.
func (p Pipeline) OrderWarnings() []string {
	var warnings []string
	grouped := false
	for _, c := range p {
		if !c.Enabled || c.Stage == nil {
			continue
		}
		switch c.ID() {
		case KindGroupByUser:
			grouped = true
		case KindSortByComments:
			if grouped {
				warnings = append(warnings, "sortByComments runs after groupByUser: posts are only sorted within each group")
			}
		case KindHideUsers:
			if grouped {
				warnings = append(warnings, "hideUsers runs after groupByUser: runs split by hidden posts are not merged")
			}
		}
	}
	return warnings
}
