// Package transform turns an ordered list of stage configurations into a single
// function over the scored page, producing the render-ready feed.
package transform

import (
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
)

// Compiled is the composition of the enabled stages of a Pipeline.
type Compiled struct {
	stages []Stage
}

// Compile drops disabled entries and keeps the enabled stages in list order.
func Compile(p Pipeline) *Compiled {
	stages := make([]Stage, 0, len(p))
	for _, c := range p {
		if !c.Enabled || c.Stage == nil {
			continue
		}
		stages = append(stages, c.Stage)
	}
	return &Compiled{stages: stages}
}

// Stages returns the kinds of the stages that will run, in order.
func (c *Compiled) Stages() []Kind {
	kinds := make([]Kind, 0, len(c.stages))
	for _, s := range c.stages {
		kinds = append(kinds, s.Kind())
	}
	return kinds
}

// Apply wraps every item as a post and feeds the list through each stage in turn. The
// input is not modified.
func (c *Compiled) Apply(items []content.ScoredItem) []RenderItem {
	out := make([]RenderItem, 0, len(items))
	for _, item := range items {
		out = append(out, NewPost(item))
	}
	return c.run(out)
}

// run applies the stages to an already typed list, so compiled pipelines can be
// chained.
func (c *Compiled) run(items []RenderItem) []RenderItem {
	for _, s := range c.stages {
		items = s.apply(items)
	}
	return items
}
