package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSample builds:
//
//	api
//	  apiBody
//	    structNameId "A"
//	  apiBody
//	    structNameId "B"
//	    handlerValue "H"
func buildSample() *Tree {
	src := []byte("A B H")
	b := NewBuilder("/x.api", src)
	b.Open(KindAPI, 0)
	b.Open(KindAPIBody, 0)
	b.Open(KindStructNameID, 0)
	b.Token(KindIdent, 0, 1)
	b.Close(1)
	b.Close(1)
	b.Open(KindAPIBody, 2)
	b.Open(KindStructNameID, 2)
	b.Token(KindIdent, 2, 3)
	b.Close(3)
	b.Open(KindHandlerValue, 4)
	b.Token(KindIdent, 4, 5)
	b.Close(5)
	return b.Finish()
}

func TestIndexOf_PreOrder(t *testing.T) {
	t.Parallel()
	root := buildSample().Root()
	idx := IndexOf(root, KindStructNameID, KindHandlerValue, KindAPIBody)

	require.Len(t, idx[KindStructNameID], 2)
	assert.Equal(t, "A", idx[KindStructNameID][0].Text())
	assert.Equal(t, "B", idx[KindStructNameID][1].Text())
	assert.Len(t, idx[KindHandlerValue], 1)
	assert.Len(t, idx[KindAPIBody], 2)
	assert.Equal(t, []Kind{KindAPIBody, KindStructNameID, KindHandlerValue}, idx.Kinds())
}

func TestIndexOf_NoKinds(t *testing.T) {
	t.Parallel()
	assert.Empty(t, IndexOf(buildSample().Root()))
}

func TestIndexOf_InvalidRootPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { IndexOf(Node{}, KindAPI) })
}

func TestNode_Navigation(t *testing.T) {
	t.Parallel()
	tree := buildSample()
	root := tree.Root()
	require.Equal(t, 2, root.ChildCount())

	body := root.Child(1)
	name := body.ChildOfKind(KindStructNameID)
	require.True(t, name.Valid())
	assert.Equal(t, body, name.Parent())
	assert.Equal(t, root, name.EnclosingRoot())
	assert.Equal(t, KindHandlerValue, body.LastChild().Kind())
	assert.False(t, root.Parent().Valid())
	assert.False(t, name.Child(0).LastChild().Valid())
	assert.Equal(t, Position{Line: 1, Col: 3}, name.Pos())
	assert.Equal(t, "B", name.Key())
	assert.Equal(t, 9, tree.Len())
}

func TestNode_Identity(t *testing.T) {
	t.Parallel()
	a := buildSample()
	b := buildSample()
	assert.True(t, a.Root() == a.Root())
	assert.False(t, a.Root() == b.Root(), "equal content, distinct trees")
}

func TestNode_ZeroValue(t *testing.T) {
	t.Parallel()
	var n Node
	assert.False(t, n.Valid())
	assert.Equal(t, KindInvalid, n.Kind())
	assert.Empty(t, n.Text())
	assert.Nil(t, n.Children())
	assert.Equal(t, "<invalid>", n.String())
}

func TestWalk_SkipChildren(t *testing.T) {
	t.Parallel()
	var kinds []Kind
	buildSample().Root().Walk(func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindAPIBody
	})
	assert.Equal(t, []Kind{KindAPI, KindAPIBody, KindAPIBody}, kinds)
}

func TestFindAll(t *testing.T) {
	t.Parallel()
	root := buildSample().Root()

	got := FindAll(root, Path{KindAPI, KindAPIBody, KindStructNameID, KindIdent})
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Text())
	assert.Equal(t, "B", got[1].Text())

	assert.Nil(t, FindAll(root, Path{KindAPIBody}))
	assert.Nil(t, FindAll(root, Path{KindAPI, KindTypeStatement}))
	assert.Nil(t, FindAll(Node{}, Path{KindAPI}))
}

func TestPath_Join(t *testing.T) {
	t.Parallel()
	p := Path{KindStructNameID, KindIdent}
	assert.Equal(t, Path{KindAPI, KindStructNameID, KindIdent}, p.Join(Path{KindAPI}))
	assert.Equal(t, p, p.Join(nil))
	assert.Equal(t, "/structNameId/IDENT", p.String())
}

func TestKind_Names(t *testing.T) {
	t.Parallel()
	for k := KindAPI; k < kindCount; k++ {
		got, ok := KindByName(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := KindByName("nope")
	assert.False(t, ok)
	assert.True(t, KindIdent.IsToken())
	assert.False(t, KindAPI.IsToken())
	assert.Equal(t, "invalid", Kind(200).String())
}
