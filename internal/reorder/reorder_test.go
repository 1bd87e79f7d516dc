package reorder

import (
	"errors"
	"reflect"
	"testing"

	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/grouping"
	"github.com/carden-code/wb-stickers/internal/pageindex"
)

func index(total int, pages map[string][]int) *pageindex.Index {
	ix := &pageindex.Index{Pages: pages, Total: total}
	for k := range pages {
		ix.Order = append(ix.Order, k)
	}
	return ix
}

func sources(entries []Entry) []int {
	var out []int
	for _, e := range entries {
		if e.Kind == EntrySeparator {
			out = append(out, -1)
			continue
		}
		out = append(out, e.Source)
	}
	return out
}

func TestBuildAndEntries(t *testing.T) {
	// Scenario: keys k1,k3 under A and k2 under B, pages in reverse order.
	ix := index(3, map[string][]int{"k1": {2}, "k2": {1}, "k3": {0}})
	groups := []grouping.Group{
		{Article: "A", Keys: []string{"k1", "k3"}},
		{Article: "B", Keys: []string{"k2"}},
	}

	plan, err := Build(groups, ix, Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !reflect.DeepEqual(plan.Order, []int{2, 0, 1}) {
		t.Errorf("unexpected order %v", plan.Order)
	}
	want := []PlacedGroup{
		{Article: "A", Count: 2, Pages: 2, Position: 0},
		{Article: "B", Count: 1, Pages: 1, Position: 2},
	}
	if !reflect.DeepEqual(plan.Groups, want) {
		t.Errorf("unexpected groups %+v", plan.Groups)
	}

	entries := plan.Entries()
	if got := sources(entries); !reflect.DeepEqual(got, []int{-1, 2, 0, -1, 1}) {
		t.Errorf("unexpected entries %v", got)
	}
	if entries[0].Article != "A" || entries[0].Count != 2 || entries[3].Article != "B" || entries[3].Count != 1 {
		t.Errorf("unexpected separators %+v %+v", entries[0], entries[3])
	}
}

func TestBuildMissingAndEmptyGroups(t *testing.T) {
	ix := index(4, map[string][]int{"k1": {0}, "k2": {3}})
	groups := []grouping.Group{
		{Article: "A", Keys: []string{"k1", "nope"}},
		{Article: "Empty", Keys: []string{"gone"}},
		{Article: "B", Keys: []string{"k2"}},
	}

	plan, err := Build(groups, ix, Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !reflect.DeepEqual(plan.Missing, []string{"nope", "gone"}) {
		t.Errorf("unexpected missing %v", plan.Missing)
	}
	if len(plan.Groups) != 2 || plan.Groups[0].Count != 1 {
		t.Errorf("expected empty group to be left out, got %+v", plan.Groups)
	}
	if !reflect.DeepEqual(plan.Leftovers, []int{1, 2}) {
		t.Errorf("unexpected leftovers %v", plan.Leftovers)
	}
	if got := sources(plan.Entries()); !reflect.DeepEqual(got, []int{-1, 0, -1, 3}) {
		t.Errorf("leftovers must not be appended by default, got %v", got)
	}
}

func TestBuildAppendLeftovers(t *testing.T) {
	ix := index(4, map[string][]int{"s1": {2}})
	plan, err := Build([]grouping.Group{{Article: "A", Keys: []string{"s1"}}}, ix, Options{AppendLeftovers: true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := sources(plan.Entries()); !reflect.DeepEqual(got, []int{-1, 2, 0, 1, 3}) {
		t.Errorf("unexpected entries %v", got)
	}
}

func TestBuildKeyPlacedOnce(t *testing.T) {
	ix := index(2, map[string][]int{"s1": {0, 1}})
	groups := []grouping.Group{
		{Article: "A", Keys: []string{"s1"}},
		{Article: "B", Keys: []string{"s1"}},
	}
	plan, err := Build(groups, ix, Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(plan.Groups) != 1 || plan.Groups[0].Pages != 2 {
		t.Errorf("expected one group with both pages, got %+v", plan.Groups)
	}
}

func TestBuildNothingMatched(t *testing.T) {
	ix := index(2, map[string][]int{"s1": {0}})
	_, err := Build([]grouping.Group{{Article: "A", Keys: []string{"other"}}}, ix, Options{AppendLeftovers: true})
	var ee *errs.ExtractionError
	if !errors.As(err, &ee) {
		t.Errorf("expected ExtractionError, got %v", err)
	}
}

func TestSeparatorText(t *testing.T) {
	if got := SeparatorText(DefaultTemplate, "ART-1", 3); got != "Article: ART-1\nCount: 3" {
		t.Errorf("unexpected text %q", got)
	}
	if got := SeparatorText("Артикул: {article}\nКоличество: {count}", "X", 1); got != "Артикул: X\nКоличество: 1" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestMarker(t *testing.T) {
	tests := map[string]string{
		DefaultTemplate:                           "Article:",
		"Артикул: {article}\nКоличество: {count}": "Артикул:",
		"{article} ({count})":                     "",
		"Group":                                   "Group",
	}
	for in, want := range tests {
		if got := Marker(in); got != want {
			t.Errorf("Marker(%q) = %q, want %q", in, got, want)
		}
	}
}
