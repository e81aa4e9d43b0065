package arg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalParentSampleCoal(t *testing.T) {
	a, idA, _, idC := buildSmallARG(t)
	p, ok, err := a.LocalParent(idA, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, idC, p)

	_, ok, err = a.LocalParent(idC, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalParentRecombDependsOnPos(t *testing.T) {
	a, err := New(0, 10)
	require.NoError(t, err)
	idS, err := a.AddSample("s")
	require.NoError(t, err)
	idR, err := a.AddRecomb("r", 1.0, idS)
	require.NoError(t, err)
	require.NoError(t, a.SetPos(idR, 4))
	idC1, err := a.AddSample("c1")
	require.NoError(t, err)
	idLeft, err := a.AddCoal("left", 2.0, idR, idC1)
	require.NoError(t, err)
	idC2, err := a.AddSample("c2")
	require.NoError(t, err)
	idRight, err := a.AddCoal("right", 2.5, idR, idC2)
	require.NoError(t, err)
	require.NoError(t, a.SetRecombParents(idR, idLeft, idRight))

	p, ok, err := a.LocalParent(idR, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, idLeft, p)

	p, ok, err = a.LocalParent(idR, 6)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, idRight, p)
}

// buildRecombARG mirrors the region_test recomb-splitting fixture, fully
// populated with ancestral regions, for use by marginal-tree tests.
func buildRecombARG(t *testing.T) (a *ARG, idA, idB, idAB, idR, idC, idD, idLeft, idRight NodeID) {
	t.Helper()
	a, err := New(0, 10)
	require.NoError(t, err)
	idA, err = a.AddSample("a")
	require.NoError(t, err)
	idB, err = a.AddSample("b")
	require.NoError(t, err)
	idAB, err = a.AddCoal("ab", 1.0, idA, idB)
	require.NoError(t, err)
	idR, err = a.AddRecomb("r", 2.0, idAB)
	require.NoError(t, err)
	require.NoError(t, a.SetPos(idR, 4))
	idC, err = a.AddSample("c")
	require.NoError(t, err)
	idD, err = a.AddSample("d")
	require.NoError(t, err)
	idLeft, err = a.AddCoal("left", 3.0, idR, idC)
	require.NoError(t, err)
	idRight, err = a.AddCoal("right", 3.5, idR, idD)
	require.NoError(t, err)
	require.NoError(t, a.SetRecombParents(idR, idLeft, idRight))
	require.NoError(t, a.SetAncestral())
	return
}

func TestGetMarginalTreeIsACleanTree(t *testing.T) {
	a, _, _, _, _, _, _, idLeft, _ := buildRecombARG(t)

	pos := 2.0                   // left of the breakpoint
	tree, err := a.GetTree(&pos) // derived through GetMarginalTree(pos)
	require.NoError(t, err)

	parentless := 0
	for _, n := range tree.Nodes {
		if n.Parent == -1 {
			parentless++
		}
	}
	require.Equal(t, 1, parentless, "a marginal tree must have exactly one root")

	leftName, err := a.NameOf(idLeft)
	require.NoError(t, err)
	require.Equal(t, leftName, tree.Nodes[tree.Root].Name)
}

func TestIterRecombBlocksCoversWholeRange(t *testing.T) {
	a, _, _, _, _, _, _, _, _ := buildRecombARG(t)
	next := IterRecombBlocks(a, 0, 10)

	blk, ok := next()
	require.True(t, ok)
	require.Equal(t, Block{Start: 0, End: 4}, blk)

	blk, ok = next()
	require.True(t, ok)
	require.Equal(t, Block{Start: 4, End: 10}, blk)

	_, ok = next()
	require.False(t, ok)
}

func TestIterMarginalTreesYieldsDistinctTopologies(t *testing.T) {
	a, _, _, _, _, _, _, idLeft, idRight := buildRecombARG(t)
	next := IterMarginalTrees(a, 0, 10)

	t1, ok := next()
	require.True(t, ok)
	t2, ok := next()
	require.True(t, ok)
	_, ok = next()
	require.False(t, ok)

	require.Equal(t, t1.Nodes[t1.Root].Name, mustNameOf(t, a, idLeft))
	require.Equal(t, t2.Nodes[t2.Root].Name, mustNameOf(t, a, idRight))
}

func mustNameOf(t *testing.T, a *ARG, id NodeID) Name {
	t.Helper()
	name, err := a.NameOf(id)
	require.NoError(t, err)
	return name
}

func TestGetTreeWithoutPosRequiresTree(t *testing.T) {
	a, _, _, _, _, _, _, _, _ := buildRecombARG(t)
	_, err := a.GetTree(nil)
	require.Error(t, err)
}

func TestGetTreeNoRecombinationSucceeds(t *testing.T) {
	a, _, _, idC := buildSmallARG(t)
	require.NoError(t, a.SetAncestral())
	tree, err := a.GetTree(nil)
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 3)
	require.Equal(t, mustNameOf(t, a, idC), tree.Nodes[tree.Root].Name)
}
