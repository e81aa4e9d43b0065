package coalescent

import (
	"testing"

	"github.com/samsledje/compbio/arg"
	"github.com/samsledje/compbio/internal/xrand"
	"github.com/stretchr/testify/require"
)

func TestSampleARGNoRecombinationYieldsSingleTree(t *testing.T) {
	rng := xrand.New(42)
	g, err := SampleARG(rng, 5, 1000, 0, 0, 100, 0)
	require.NoError(t, err)

	root, ok := g.Root()
	require.True(t, ok)

	leaves, err := g.LeafNames(nil)
	require.NoError(t, err)
	require.Len(t, leaves, 5)

	tree, err := g.GetTree(nil)
	require.NoError(t, err)
	rootName, err := g.NameOf(root)
	require.NoError(t, err)
	require.Equal(t, rootName, tree.Nodes[tree.Root].Name)
}

func TestSampleARGWithRecombinationYieldsMarginalTrees(t *testing.T) {
	rng := xrand.New(7)
	g, err := SampleARG(rng, 8, 1000, 0.05, 0, 1000, 0)
	require.NoError(t, err)

	root, ok := g.Root()
	require.True(t, ok)
	_ = root

	next := arg.IterMarginalTrees(g, g.Start, g.End)
	count := 0
	for {
		_, ok := next()
		if !ok {
			break
		}
		count++
	}
	require.GreaterOrEqual(t, count, 1)
}

func TestMakeARGFromTimesBuildsCleanTree(t *testing.T) {
	rng := xrand.New(1)
	times := SampleCoalTimes(rng, 4, 1000, 0, 0)
	require.Len(t, times, 3)

	g, err := MakeARGFromTimes(rng, 4, 0, 50, times)
	require.NoError(t, err)

	_, ok := g.Root()
	require.True(t, ok)

	leaves, err := g.LeafNames(nil)
	require.NoError(t, err)
	require.Len(t, leaves, 4)
}
