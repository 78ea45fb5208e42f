package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/rule"
	"github.com/nml-lang/nml/token"
)

// fakeRule is a minimal rule.Rule for exercising Registry/Best in
// isolation, without a real driver/builder.
type fakeRule struct {
	name     string
	priority int
	offset   int
	matches  bool
	eligible bool
}

func (f fakeRule) Name() string                          { return f.name }
func (f fakeRule) Priority() int                         { return f.priority }
func (f fakeRule) Context(ast.ContainerKind) bool        { return f.eligible }
func (f fakeRule) Search(*token.Cursor) (int, bool)      { return f.offset, f.matches }
func (f fakeRule) Build(*token.Cursor, *rule.State) error { return nil }

func TestRegistry_Eligible_FiltersByContext(t *testing.T) {
	reg := rule.NewRegistry()
	reg.Register(
		fakeRule{name: "a", eligible: true},
		fakeRule{name: "b", eligible: false},
		fakeRule{name: "c", eligible: true},
	)

	eligible := reg.Eligible(ast.ContainerDocument)
	require.Len(t, eligible, 2)
	assert.Equal(t, "a", eligible[0].Name())
	assert.Equal(t, "c", eligible[1].Name())
}

func TestBest_PicksEarliestOffset(t *testing.T) {
	rules := []rule.Rule{
		fakeRule{name: "late", matches: true, offset: 10},
		fakeRule{name: "early", matches: true, offset: 3},
	}

	match, ok := rule.Best(rules, nil)
	require.True(t, ok)
	assert.Equal(t, "early", match.Rule.Name())
	assert.Equal(t, 3, match.Offset)
}

func TestBest_BreaksOffsetTieByPriority(t *testing.T) {
	rules := []rule.Rule{
		fakeRule{name: "low-priority", matches: true, offset: 5, priority: 20},
		fakeRule{name: "high-priority", matches: true, offset: 5, priority: 5},
	}

	match, ok := rule.Best(rules, nil)
	require.True(t, ok)
	assert.Equal(t, "high-priority", match.Rule.Name())
}

func TestBest_NoMatches_ReturnsFalse(t *testing.T) {
	rules := []rule.Rule{
		fakeRule{name: "a", matches: false},
	}

	_, ok := rule.Best(rules, nil)
	assert.False(t, ok)
}
