package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/vizbridge/errors"
)

func testTree() Tree {
	return Tree{
		"root": {
			"child_a": {},
			"child_b": {
				"grandchild": {},
			},
		},
	}
}

func TestBuild_TreeStructure(t *testing.T) {
	g, err := Build(testTree())
	require.NoError(t, err)

	assert.Equal(t, "root", g.Root())
	assert.Equal(t, 4, g.Len())

	// root is the sole node without a parent
	assert.Equal(t, "", g.Parent("root"))
	assert.Equal(t, "root", g.Parent("child_a"))
	assert.Equal(t, "root", g.Parent("child_b"))
	assert.Equal(t, "child_b", g.Parent("grandchild"))
}

func TestBuild_EntityPaths(t *testing.T) {
	g, err := Build(testTree())
	require.NoError(t, err)

	testCases := []struct {
		frame string
		path  string
	}{
		{"root", "/root"},
		{"child_a", "/root/child_a"},
		{"child_b", "/root/child_b"},
		{"grandchild", "/root/child_b/grandchild"},
	}
	for _, tc := range testCases {
		path, ok := g.EntityPath(tc.frame)
		require.True(t, ok, tc.frame)
		assert.Equal(t, tc.path, path)
	}

	_, ok := g.EntityPath("unknown")
	assert.False(t, ok)
}

func TestBuild_EmptyTree(t *testing.T) {
	g, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, "", g.Root())
	assert.Equal(t, 0, g.Len())
}

func TestBuild_MultipleRootsRejected(t *testing.T) {
	_, err := Build(Tree{"a": {}, "b": {}})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestBuild_DuplicateFrameRejected(t *testing.T) {
	_, err := Build(Tree{
		"root": {
			"x": {"dup": {}},
			"y": {"dup": {}},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestPathToRoot(t *testing.T) {
	g, err := Build(testTree())
	require.NoError(t, err)

	chain, err := g.PathToRoot("grandchild")
	require.NoError(t, err)
	assert.Equal(t, []string{"grandchild", "child_b", "root"}, chain)

	chain, err = g.PathToRoot("root")
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, chain)

	_, err = g.PathToRoot("missing")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestNodes_Sorted(t *testing.T) {
	g, err := Build(testTree())
	require.NoError(t, err)

	nodes := g.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, "child_a", nodes[0].Name)
	assert.Equal(t, "child_b", nodes[1].Name)
	assert.Equal(t, "grandchild", nodes[2].Name)
	assert.Equal(t, "root", nodes[3].Name)
}
