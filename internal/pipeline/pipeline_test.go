package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"corrigo/internal/registry"
	"corrigo/pkg/document"
)

// lexiconModule is a minimal local Word-level module used to exercise a
// lexicon lookup that attaches exactly one suggestion to a misspelled
// word.
type lexiconModule struct {
	lexicon map[string]string
}

func (m *lexiconModule) Init(ctx context.Context, doc *document.Document) error { return nil }

func (m *lexiconModule) PrepareInput(ctx context.Context, unit *document.Node, params map[string]string) (any, bool, error) {
	return unit.Text, true, nil
}

func (m *lexiconModule) Run(ctx context.Context, payload any) (any, bool, error) {
	word := payload.(string)
	corrected, ok := m.lexicon[word]
	if !ok {
		return nil, false, nil
	}
	return corrected, true, nil
}

func (m *lexiconModule) ProcessOutput(ctx context.Context, output, payload any, unitID string, params map[string]string) ([]registry.Query, error) {
	return []registry.Query{{
		Op:          "suggest",
		TargetID:    unitID,
		Suggestions: []document.Suggestion{{Words: []string{output.(string)}}},
	}}, nil
}

func (m *lexiconModule) Finish(ctx context.Context, doc *document.Document) error { return nil }

func buildSentence(t *testing.T, words ...string) (*document.Document, []*document.Node) {
	t.Helper()
	doc := document.New("d1")
	p := doc.AddChild(doc.Root, document.TypeParagraph, "")
	s := doc.AddChild(p, document.TypeSentence, "")
	nodes := make([]*document.Node, len(words))
	for i, w := range words {
		nodes[i] = doc.AddChild(s, document.TypeWord, w)
	}
	return doc, nodes
}

func TestPipelineSingleLocalLexiconModule(t *testing.T) {
	doc, words := buildSentence(t, "the", "speling", "is", "bad")

	catalog := registry.NewCatalog()
	catalog.Register("lexicon", func(spec *registry.Spec) (registry.Module, error) {
		return &lexiconModule{lexicon: map[string]string{"speling": "spelling"}}, nil
	})

	spec, err := registry.NewSpec("lex1")
	require.NoError(t, err)
	spec.Kind = "lexicon"
	spec.UnitType = document.TypeWord
	spec.Local = true
	spec.Set = "errors"
	spec.Class = "nonworderror"
	spec.Annotator = "lex1"

	reg, err := registry.NewRegistry([]*registry.Spec{spec}, catalog)
	require.NoError(t, err)

	ctrl := &Controller{
		Registry: reg,
		Doc:      doc,
		Config:   Config{Threads: 2, Timeout: 5 * time.Second},
	}
	require.NoError(t, ctrl.Run(context.Background()))

	require.Empty(t, words[0].Corrections)
	require.Len(t, words[1].Corrections, 1)
	c := words[1].Corrections[0]
	require.Equal(t, []string{"spelling"}, c.Suggestions[0].Words)
	require.Equal(t, "nonworderror", c.Class)
	require.Equal(t, "speling", words[1].Text, "original text must be preserved")
	require.Empty(t, words[2].Corrections)
	require.Empty(t, words[3].Corrections)
}

// depModule records the order in which modules complete Run so the test
// can assert the dependency barrier held.
type depModule struct {
	name  string
	order *[]string
	mu    *sync.Mutex
}

func (m *depModule) Init(ctx context.Context, doc *document.Document) error { return nil }
func (m *depModule) PrepareInput(ctx context.Context, unit *document.Node, params map[string]string) (any, bool, error) {
	return unit.ID, true, nil
}
func (m *depModule) Run(ctx context.Context, payload any) (any, bool, error) {
	m.mu.Lock()
	*m.order = append(*m.order, m.name)
	m.mu.Unlock()
	return "x", true, nil
}
func (m *depModule) ProcessOutput(ctx context.Context, output, payload any, unitID string, params map[string]string) ([]registry.Query, error) {
	return nil, nil
}
func (m *depModule) Finish(ctx context.Context, doc *document.Document) error { return nil }

func TestPipelineDependencyBarrierOrdersAcrossModules(t *testing.T) {
	doc, _ := buildSentence(t, "alpha")

	var mu sync.Mutex
	var order []string

	catalog := registry.NewCatalog()
	catalog.Register("dep", func(spec *registry.Spec) (registry.Module, error) {
		return &depModule{name: spec.ID, order: &order, mu: &mu}, nil
	})

	specA, err := registry.NewSpec("A")
	require.NoError(t, err)
	specA.Kind, specA.UnitType, specA.Local, specA.Set, specA.Class, specA.Annotator = "dep", document.TypeWord, true, "s", "c", "a"

	specB, err := registry.NewSpec("B")
	require.NoError(t, err)
	specB.Kind, specB.UnitType, specB.Local, specB.Set, specB.Class, specB.Annotator = "dep", document.TypeWord, true, "s", "c", "b"
	specB.Depends = []string{"A"}

	reg, err := registry.NewRegistry([]*registry.Spec{specB, specA}, catalog)
	require.NoError(t, err)

	ctrl := &Controller{Registry: reg, Doc: doc, Config: Config{Threads: 4, Timeout: 5 * time.Second}}
	require.NoError(t, ctrl.Run(context.Background()))

	require.Equal(t, "A", order[0], "A must complete before B, regardless of dispatch order")
}

func TestPipelineBadTargetQueryDoesNotAbortRun(t *testing.T) {
	doc, words := buildSentence(t, "teh", "cat")

	catalog := registry.NewCatalog()
	catalog.Register("badquery", func(spec *registry.Spec) (registry.Module, error) {
		return &badQueryModule{}, nil
	})

	spec, err := registry.NewSpec("bq")
	require.NoError(t, err)
	spec.Kind, spec.UnitType, spec.Local = "badquery", document.TypeWord, true
	spec.Set, spec.Class, spec.Annotator = "s", "c", "a"

	reg, err := registry.NewRegistry([]*registry.Spec{spec}, catalog)
	require.NoError(t, err)

	ctrl := &Controller{Registry: reg, Doc: doc, Config: Config{Threads: 2, Timeout: 5 * time.Second}}
	require.NoError(t, ctrl.Run(context.Background()))

	// The module's first unit emits a query targeting a nonexistent id
	// (QueryError, logged) and its second unit emits a valid suggestion;
	// both units must still be attempted.
	found := false
	for _, w := range words {
		if len(w.Corrections) > 0 {
			found = true
		}
	}
	require.True(t, found, "a valid query from the same module must still apply")
}

type badQueryModule struct{}

func (m *badQueryModule) Init(ctx context.Context, doc *document.Document) error { return nil }
func (m *badQueryModule) PrepareInput(ctx context.Context, unit *document.Node, params map[string]string) (any, bool, error) {
	return unit.Text, true, nil
}
func (m *badQueryModule) Run(ctx context.Context, payload any) (any, bool, error) {
	return payload, true, nil
}
func (m *badQueryModule) ProcessOutput(ctx context.Context, output, payload any, unitID string, params map[string]string) ([]registry.Query, error) {
	if output.(string) == "teh" {
		return []registry.Query{{Op: "errorflag", TargetID: "does-not-exist"}}, nil
	}
	return []registry.Query{{Op: "suggest", TargetID: unitID, Suggestions: []document.Suggestion{{Words: []string{output.(string)}}}}}, nil
}
func (m *badQueryModule) Finish(ctx context.Context, doc *document.Document) error { return nil }

func TestDoneSetWaitUnblocksOnMarkDone(t *testing.T) {
	d := NewDoneSet([]string{"A", "B"})
	waited := make(chan error, 1)
	go func() { waited <- d.Wait(context.Background(), []string{"A", "B"}) }()

	select {
	case <-waited:
		t.Fatal("Wait returned before either dependency marked done")
	case <-time.After(20 * time.Millisecond):
	}

	d.MarkDone("A")
	d.MarkDone("B")
	require.NoError(t, <-waited)
}

func TestDoneSetWaitRespectsContextCancellation(t *testing.T) {
	d := NewDoneSet([]string{"A"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, d.Wait(ctx, []string{"A"}))
}
