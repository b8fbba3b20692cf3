package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDoc(t *testing.T) (*Document, *Node) {
	t.Helper()
	d := New("doc1")
	p := d.AddChild(d.Root, TypeParagraph, "")
	s := d.AddChild(p, TypeSentence, "")
	for _, w := range []string{"the", "speling", "is", "bad"} {
		d.AddChild(s, TypeWord, w)
	}
	return d, s
}

func TestWalkOrder(t *testing.T) {
	d, _ := buildDoc(t)
	words := d.Walk(TypeWord)
	require.Len(t, words, 4)
	require.Equal(t, []string{"the", "speling", "is", "bad"}, texts(words))
}

func texts(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text
	}
	return out
}

func TestAddSuggestionsAccumulate(t *testing.T) {
	d, s := buildDoc(t)
	word := s.Children[1]
	conf := 0.9
	_, err := d.AddSuggestions(word.ID, []Suggestion{{Words: []string{"spelling"}, Confidence: &conf}}, Meta{Set: "set1", Class: "nonworderror"})
	require.NoError(t, err)
	_, err = d.AddSuggestions(word.ID, []Suggestion{{Words: []string{"spelling2"}}}, Meta{Set: "set2", Class: "other"})
	require.NoError(t, err)

	require.Len(t, word.Corrections, 2)
	require.Equal(t, "nonworderror", word.Corrections[0].Class)
	require.Equal(t, []string{"the"}, []string{s.Children[0].Text}) // original text untouched
	require.Equal(t, "speling", word.Text)                          // original text preserved
}

func TestSplitPreservesOriginal(t *testing.T) {
	d := New("doc2")
	p := d.AddChild(d.Root, TypeParagraph, "")
	s := d.AddChild(p, TypeSentence, "")
	w := d.AddChild(s, TypeWord, "mistakess")
	conf := 0.9
	c, err := d.Split(w.ID, []Suggestion{{Words: []string{"mis", "takes"}, Confidence: &conf}}, Meta{Class: "spliterror"})
	require.NoError(t, err)
	require.Equal(t, []string{"mistakess"}, c.Original)
	require.Equal(t, "mistakess", w.Text)
	require.Equal(t, KindSplit, c.Kind)
}

func TestMergeRequiresTwoWords(t *testing.T) {
	d, s := buildDoc(t)
	_, err := d.Merge([]string{s.Children[0].ID}, "merged", nil, Meta{})
	require.Error(t, err)

	_, err = d.Merge([]string{s.Children[0].ID, s.Children[1].ID}, "merged", nil, Meta{Class: "mergeerror"})
	require.NoError(t, err)
	require.Len(t, s.Children[0].Corrections, 1)
	require.Equal(t, []string{"the", "speling"}, s.Children[0].Corrections[0].Original)
}

func TestUnknownTargetErrors(t *testing.T) {
	d, _ := buildDoc(t)
	_, err := d.AddSuggestions("does-not-exist", nil, Meta{})
	require.Error(t, err)
}

func TestDeclareSetIdempotent(t *testing.T) {
	d, _ := buildDoc(t)
	require.False(t, d.HasDeclaredSet("s", "c"))
	d.DeclareSet("s", "c")
	require.True(t, d.HasDeclaredSet("s", "c"))
	d.DeclareSet("s", "c") // second call is a no-op, doesn't panic or duplicate
	require.True(t, d.HasDeclaredSet("s", "c"))
}

func TestSummarizeDumpJSON(t *testing.T) {
	d, s := buildDoc(t)
	word := s.Children[1]
	_, _ = d.AddSuggestions(word.ID, []Suggestion{{Words: []string{"spelling"}}}, Meta{Annotator: "errorlist", Class: "nonworderror"})
	out, err := d.DumpJSON()
	require.NoError(t, err)
	require.Contains(t, string(out), "spelling")
	require.Contains(t, string(out), "nonworderror")
}
