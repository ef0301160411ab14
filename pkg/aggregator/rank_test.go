package aggregator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/scichart/pkg/aggregator"
)

func TestChart_Aggregator_RankUnion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b map[string]int64
		topK int
		want []string
	}{
		{
			name: "combined volume",
			a:    map[string]int64{"x": 10, "y": 5},
			b:    map[string]int64{"x": 1, "z": 8},
			topK: 2,
			want: []string{"x", "z"},
		},
		{
			name: "tie broken by group A",
			a:    map[string]int64{"p": 3, "q": 6},
			b:    map[string]int64{"p": 6, "q": 3},
			topK: 5,
			want: []string{"q", "p"},
		},
		{
			name: "labels seen in one group only",
			a:    map[string]int64{"p": 2, "q": 2},
			b:    map[string]int64{"p": 1, "q": 4, "r": 0},
			topK: 5,
			want: []string{"q", "p", "r"},
		},
		{
			name: "full tie sorts by label",
			a:    map[string]int64{"m": 1, "k": 1},
			b:    map[string]int64{"m": 1, "k": 1},
			topK: 2,
			want: []string{"k", "m"},
		},
		{
			name: "only one group has data",
			a:    nil,
			b:    map[string]int64{"z": 8, "w": 9},
			topK: 10,
			want: []string{"w", "z"},
		},
		{
			name: "zero top_k",
			a:    map[string]int64{"x": 1},
			topK: 0,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, aggregator.RankUnion(tt.a, tt.b, tt.topK))
		})
	}
}

func TestChart_Aggregator_RankUnionIsCappedAndDeduplicated(t *testing.T) {
	t.Parallel()

	a := map[string]int64{}
	b := map[string]int64{}
	for i := range 50 {
		label := string(rune('A' + i%26))
		a[label] += int64(i)
		if i%3 == 0 {
			b[label] += int64(50 - i)
		}
	}
	for topK := 1; topK <= 30; topK++ {
		got := aggregator.RankUnion(a, b, topK)
		require.LessOrEqual(t, len(got), topK)
		seen := map[string]bool{}
		for i, label := range got {
			require.False(t, seen[label])
			seen[label] = true
			if i > 0 {
				prev := got[i-1]
				require.GreaterOrEqual(t, a[prev]+b[prev], a[label]+b[label])
			}
		}
	}
}
