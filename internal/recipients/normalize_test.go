package recipients

import (
	"fmt"
	"testing"

	"github.com/ignite/email-shooter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_TextExample(t *testing.T) {
	set := Normalize(ExtractText("a@x.com, A@X.COM;b@y.com"))
	require.Equal(t, 2, set.Len())
	assert.Equal(t, domain.RecipientSet{"a@x.com", "b@y.com"}, set)
}

func TestNormalize_PreservesFirstSeenOrder(t *testing.T) {
	set := Normalize([]string{"C@z.com", "a@x.com", "c@Z.com", "B@y.com", "a@X.com"})
	assert.Equal(t, domain.RecipientSet{"c@z.com", "a@x.com", "b@y.com"}, set)
}

func TestNormalize_SkipsEmpty(t *testing.T) {
	set := Normalize([]string{"", "   ", "a@x.com"})
	assert.Equal(t, domain.RecipientSet{"a@x.com"}, set)
}

func TestNormalize_Properties(t *testing.T) {
	inputs := [][]string{
		nil,
		{"a@x.com"},
		{"A@X.COM", "a@x.com", " a@x.com "},
		{"Ünïcode@Exämple.COM", "ünïcode@exämple.com"},
		{"x", "X", "y", "Y", "z"},
	}
	for i, in := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			set := Normalize(in)
			assert.LessOrEqual(t, set.Len(), len(in))
			for _, addr := range set {
				assert.Equal(t, addr, Canonicalize(string(addr)), "canonical form must be idempotent")
			}
			assert.Equal(t, set, Normalize(set.Strings()), "normalizing a set again must not change it")
		})
	}
}

func TestMerge_Commutative(t *testing.T) {
	text := ExtractText("a@x.com; B@y.com\nc@z.com")
	file := []string{"b@Y.com", "d@w.com", "A@x.com"}

	ab := Merge(text, file)
	ba := Merge(file, text)

	assert.ElementsMatch(t, ab, ba)
	assert.Equal(t, 4, ab.Len())
}

func TestMerge_EmptySides(t *testing.T) {
	assert.Equal(t, 0, Merge(nil, nil).Len())
	assert.Equal(t, domain.RecipientSet{"a@x.com"}, Merge(nil, []string{"A@x.com"}))
	assert.Equal(t, domain.RecipientSet{"a@x.com"}, Merge([]string{"A@x.com"}, nil))
}
