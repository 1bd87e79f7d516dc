package grouping

import (
	"reflect"
	"testing"
)

func TestBuild(t *testing.T) {
	in := []Assignment{
		{Key: "k1", Article: "B"},
		{Key: "k2", Article: "A"},
		{Key: "k3", Article: "B"},
		{Key: "k1", Article: "B"},
		{Key: "k4", Article: "—"},
		{Key: "k5", Article: "a"},
	}

	tests := []struct {
		name  string
		order Order
		want  []Group
	}{
		{
			name:  "first appearance",
			order: OrderFirstAppearance,
			want: []Group{
				{Article: "B", Keys: []string{"k1", "k3"}},
				{Article: "A", Keys: []string{"k2"}},
				{Article: "—", Keys: []string{"k4"}},
				{Article: "a", Keys: []string{"k5"}},
			},
		},
		{
			name:  "lexicographic",
			order: OrderLexicographic,
			want: []Group{
				{Article: "A", Keys: []string{"k2"}},
				{Article: "B", Keys: []string{"k1", "k3"}},
				{Article: "a", Keys: []string{"k5"}},
				{Article: "—", Keys: []string{"k4"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(in, tt.order)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Build() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildCounts(t *testing.T) {
	groups := Build([]Assignment{{"1", "X"}, {"2", "X"}, {"2", "X"}}, OrderFirstAppearance)
	if len(groups) != 1 || groups[0].Count() != 2 {
		t.Errorf("expected one group of 2, got %+v", groups)
	}
	if got := Build(nil, OrderLexicographic); len(got) != 0 {
		t.Errorf("expected no groups, got %+v", got)
	}
}

func TestParseOrder(t *testing.T) {
	if o, err := ParseOrder(" Lexicographic "); err != nil || o != OrderLexicographic {
		t.Errorf("ParseOrder() = %q, %v", o, err)
	}
	if _, err := ParseOrder("random"); err == nil {
		t.Error("expected error for unknown order")
	}
}
