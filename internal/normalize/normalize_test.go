package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openaccess-service/internal/domain"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "An ordinary abstract.", "An ordinary abstract."},
		{"tags removed", "<p>First.</p><p>Second.</p>", "First. Second."},
		{"entities decoded", "Fish &amp; Chips &lt;review&gt;", "Fish & Chips <review>"},
		{"jats markup", `<jats:p>CRISPR<jats:sup>1</jats:sup> editing</jats:p>`, "CRISPR 1 editing"},
		{"whitespace collapsed", "a\n  b\t\tc", "a b c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso date", "2021-03-15", "2021"},
		{"free text", "Published in March 1998 by the press", "1998"},
		{"first plausible match wins", "Reprinted 2005, first edition 1987", "2005"},
		{"day numbers ignored", "15/03/2021", "2021"},
		{"no year", "n.d.", domain.UnknownYear},
		{"empty", "", domain.UnknownYear},
		{"implausible digits", "123 45678", domain.UnknownYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractYear(tt.in))
		})
	}
}

func TestAuthors(t *testing.T) {
	t.Run("trims and drops empties", func(t *testing.T) {
		got := Authors([]string{"  Ada Lovelace ", "", "\t", "Charles Babbage"})
		assert.Equal(t, []string{"Ada Lovelace", "Charles Babbage"}, got)
	})

	t.Run("empty input falls back to placeholder", func(t *testing.T) {
		assert.Equal(t, []string{domain.PlaceholderAuthor}, Authors(nil))
		assert.Equal(t, []string{domain.PlaceholderAuthor}, Authors([]string{"", " "}))
	})

	t.Run("caps at MaxAuthors", func(t *testing.T) {
		many := make([]string, 30)
		for i := range many {
			many[i] = "Author"
		}
		assert.Len(t, Authors(many), MaxAuthors)
	})
}

func TestAbstract(t *testing.T) {
	assert.Equal(t, domain.PlaceholderAbstract, Abstract(""))
	assert.Equal(t, domain.PlaceholderAbstract, Abstract("<p>  </p>"))
	assert.Equal(t, "Short.", Abstract("Short."))

	long := strings.Repeat("x", MaxAbstractLength+100)
	got := Abstract(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), MaxAbstractLength+3)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
}

func TestSubjects(t *testing.T) {
	got := Subjects([]string{"Biology", " biology ", "Genetics", ""})
	assert.Equal(t, []string{"Biology", "Genetics"}, got)

	many := make([]string, 40)
	for i := range many {
		many[i] = strings.Repeat("s", i+1)
	}
	assert.Len(t, Subjects(many), MaxSubjects)
}
