package transform

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()

	require.NoError(t, p.Validate())
	require.Equal(t, []Kind{KindHighlightLong, KindHideUsers, KindGroupByUser, KindSortByComments}, kinds(p))
	for _, c := range p {
		require.False(t, c.Enabled)
	}
	require.Empty(t, Compile(p).Stages())
}

func kinds(p Pipeline) []Kind {
	out := make([]Kind, 0, len(p))
	for _, c := range p {
		out = append(out, c.ID())
	}
	return out
}

func TestPipelineHelpers(t *testing.T) {
	t.Run("toggle_returns_a_new_pipeline", func(t *testing.T) {
		p := DefaultPipeline()
		toggled := p.Toggle(KindGroupByUser)

		require.True(t, toggled.Enabled(KindGroupByUser))
		require.False(t, p.Enabled(KindGroupByUser))
		require.False(t, toggled.Toggle(KindGroupByUser).Enabled(KindGroupByUser))
	})

	t.Run("set_enabled", func(t *testing.T) {
		p := DefaultPipeline().SetEnabled(KindHideUsers, true)
		require.True(t, p.Enabled(KindHideUsers))
		require.True(t, p.SetEnabled(KindHideUsers, true).Enabled(KindHideUsers))
	})

	t.Run("move_up_and_down", func(t *testing.T) {
		p := DefaultPipeline()

		require.Equal(t, []Kind{KindHighlightLong, KindHideUsers, KindSortByComments, KindGroupByUser}, kinds(p.MoveUp(3)))
		require.Equal(t, []Kind{KindHideUsers, KindHighlightLong, KindGroupByUser, KindSortByComments}, kinds(p.MoveDown(0)))

		// out of range moves are no-ops
		require.Equal(t, kinds(p), kinds(p.MoveUp(0)))
		require.Equal(t, kinds(p), kinds(p.MoveDown(3)))
		require.Equal(t, kinds(p), kinds(p.MoveUp(9)))
		require.Equal(t, kinds(p), kinds(p.MoveDown(-1)))
	})

	t.Run("set_min_length", func(t *testing.T) {
		p := DefaultPipeline().SetMinLength(50)
		require.Equal(t, HighlightLong{MinLength: 50}, p[p.Index(KindHighlightLong)].Stage)

		p = p.SetMinLength(-4)
		require.Equal(t, HighlightLong{MinLength: 0}, p[p.Index(KindHighlightLong)].Stage)
	})

	t.Run("toggle_hidden_user", func(t *testing.T) {
		p := DefaultPipeline().ToggleHiddenUser(3).ToggleHiddenUser(1).ToggleHiddenUser(5)
		require.Equal(t, HideUsers{HiddenUserIDs: []int{3, 1, 5}}, p[p.Index(KindHideUsers)].Stage)

		p = p.ToggleHiddenUser(1)
		require.Equal(t, HideUsers{HiddenUserIDs: []int{3, 5}}, p[p.Index(KindHideUsers)].Stage)
	})

	t.Run("helpers_on_missing_entries", func(t *testing.T) {
		p := Pipeline{{Name: "group", Stage: GroupByUser{}}}
		require.Equal(t, p, p.ToggleHiddenUser(1))
		require.Equal(t, p, p.SetMinLength(10))
		require.Equal(t, p, p.Toggle(KindSortByComments))
		require.Equal(t, -1, p.Index(KindSortByComments))
	})

	t.Run("requires_comment_counts_only_when_sort_is_enabled", func(t *testing.T) {
		p := DefaultPipeline()
		require.False(t, p.Requires(DependencyCommentCounts))
		require.True(t, p.Toggle(KindSortByComments).Requires(DependencyCommentCounts))
		require.False(t, p.Toggle(KindGroupByUser).Toggle(KindHideUsers).Requires(DependencyCommentCounts))
	})
}

func TestValidate(t *testing.T) {
	require.ErrorIs(t, Pipeline{{Stage: GroupByUser{}}, {Stage: GroupByUser{}}}.Validate(), ErrDuplicateStage)
	require.ErrorIs(t, Pipeline{{Name: "empty"}}.Validate(), ErrUnknownStage)
	require.NoError(t, Pipeline{}.Validate())
}

func TestOrderWarnings(t *testing.T) {
	require.Empty(t, enabled(HideUsers{}, SortByComments{}, GroupByUser{}).OrderWarnings())
	require.Len(t, enabled(GroupByUser{}, SortByComments{}, HideUsers{}).OrderWarnings(), 2)

	// disabled stages do not count
	p := enabled(GroupByUser{}, SortByComments{}).Toggle(KindGroupByUser)
	require.Empty(t, p.OrderWarnings())
}

func TestConfigJSON(t *testing.T) {
	t.Run("wire_form", func(t *testing.T) {
		data, err := json.Marshal(DefaultPipeline().ToggleHiddenUser(2))
		require.NoError(t, err)

		require.JSONEq(t, `[
			{"id":"highlightLong","name":"Highlight long posts","enabled":false,"settings":{"minLength":200}},
			{"id":"hideUsers","name":"Hide posts by selected users","enabled":false,"settings":{"hiddenUserIds":[2]}},
			{"id":"groupByUser","name":"Group posts by user (insert separators)","enabled":false,"settings":{}},
			{"id":"sortByComments","name":"Sort by comment count (desc)","enabled":false,"settings":{}}
		]`, string(data))
	})

	t.Run("round_trip", func(t *testing.T) {
		want := DefaultPipeline().Toggle(KindHideUsers).ToggleHiddenUser(4).SetMinLength(120).MoveDown(2)

		data, err := json.Marshal(want)
		require.NoError(t, err)

		got, err := ParsePipeline(data)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("missing_settings_use_defaults", func(t *testing.T) {
		got, err := ParsePipeline([]byte(`[{"id":"highlightLong","enabled":true},{"id":"hideUsers","enabled":true,"settings":null}]`))
		require.NoError(t, err)
		require.Equal(t, HighlightLong{MinLength: DefaultMinLength}, got[0].Stage)
		require.Equal(t, HideUsers{HiddenUserIDs: []int{}}, got[1].Stage)
	})

	t.Run("explicit_zero_min_length_is_kept", func(t *testing.T) {
		got, err := ParsePipeline([]byte(`[{"id":"highlightLong","settings":{"minLength":0}}]`))
		require.NoError(t, err)
		require.Equal(t, HighlightLong{MinLength: 0}, got[0].Stage)
	})

	for _, tc := range []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "unknown_id", input: `[{"id":"shuffle","enabled":true}]`, wantErr: ErrUnknownStage},
		{name: "missing_id", input: `[{"enabled":true}]`, wantErr: ErrUnknownStage},
		{name: "numeric_id", input: `[{"id":3}]`, wantErr: ErrUnknownStage},
		{name: "duplicate_id", input: `[{"id":"groupByUser"},{"id":"groupByUser"}]`, wantErr: ErrDuplicateStage},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePipeline([]byte(tc.input))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("unknown_settings_are_rejected", func(t *testing.T) {
		_, err := ParsePipeline([]byte(`[{"id":"hideUsers","settings":{"hiddenUsers":[1]}}]`))
		require.ErrorContains(t, err, `invalid settings for "hideUsers"`)
	})

	t.Run("mistyped_settings_are_rejected", func(t *testing.T) {
		_, err := ParsePipeline([]byte(`[{"id":"highlightLong","settings":{"minLength":"long"}}]`))
		require.Error(t, err)
	})

	t.Run("marshal_without_stage", func(t *testing.T) {
		_, err := json.Marshal(Config{Name: "broken"})
		require.ErrorIs(t, err, ErrUnknownStage)
	})
}

func TestPipelineYAML(t *testing.T) {
	input := `
- id: sortByComments
  name: Sort by comment count (desc)
  enabled: true
- id: hideUsers
  name: Hide
  enabled: true
  settings:
    hiddenUserIds: [1, 2]
- id: groupByUser
  enabled: true
`
	got, err := ParsePipeline([]byte(input))
	require.NoError(t, err)
	require.Equal(t, Pipeline{
		{Name: "Sort by comment count (desc)", Enabled: true, Stage: SortByComments{}},
		{Name: "Hide", Enabled: true, Stage: HideUsers{HiddenUserIDs: []int{1, 2}}},
		{Enabled: true, Stage: GroupByUser{}},
	}, got)

	out, err := got.YAML()
	require.NoError(t, err)

	again, err := ParsePipeline(out)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestReadPipelineFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "pipeline.yaml")
	data, err := DefaultPipeline().Toggle(KindSortByComments).YAML()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	p, err := ReadPipelineFile(path)
	require.NoError(t, err)
	require.True(t, p.Enabled(KindSortByComments))

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`[{"id":"nope"}]`), 0o600))
	_, err = ReadPipelineFile(broken)
	require.ErrorIs(t, err, ErrUnknownStage)
	require.ErrorContains(t, err, "broken.json")

	_, err = ReadPipelineFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRenderItemJSON(t *testing.T) {
	items := Compile(enabled(GroupByUser{})).Apply(scored([]int{7}, []int{2}))

	data, err := json.Marshal(items)
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"type":"separator","userId":7,"user":{"id":7,"name":"user","email":""}},
		{"type":"post","post":{"id":1,"userId":7,"title":"","body":"short"},"author":{"id":7,"name":"user","email":""},"commentCount":2,"score":1,"highlight":false}
	]`, string(data))
}
