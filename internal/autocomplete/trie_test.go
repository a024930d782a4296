package autocomplete

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrie_SearchPrefix_SortsByFrequencyThenTerm(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Insert("search engine", 5)
	tr.Insert("search bar", 10)
	tr.Insert("search box", 10)

	hits := tr.SearchPrefix("search", 10)
	require.Equal(t, []string{"search bar", "search box", "search engine"}, hits)
}

func TestTrie_SearchPrefix_CaseInsensitive(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Insert("Golang", 1)
	hits := tr.SearchPrefix("GO", 10)
	require.Equal(t, []string{"Golang"}, hits)
}

func TestTrie_SearchPrefix_NoMatchingNodeIsEmpty(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Insert("search", 1)
	require.Empty(t, tr.SearchPrefix("zzz", 10))
}

func TestTrie_SearchPrefix_Truncates(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Insert("a1", 3)
	tr.Insert("a2", 2)
	tr.Insert("a3", 1)
	hits := tr.SearchPrefix("a", 2)
	require.Len(t, hits, 2)
}

func TestTrie_Insert_OverwritesFrequency(t *testing.T) {
	t.Parallel()
	tr := NewTrie()
	tr.Insert("search", 1)
	tr.Insert("search", 9)
	hits := tr.SearchPrefix("search", 10)
	require.Equal(t, []string{"search"}, hits)
	require.Equal(t, 1, tr.Size())
}
