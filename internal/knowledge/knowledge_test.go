package knowledge

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndex = `topics:
  - key: a
    file: a.md
    keywords: [alpha, "Shared Term"]
  - key: b
    file: b.md
    keywords: [beta, shared term]
  - key: general
    file: general-info.md
    keywords: [help]
`

func testBase(t *testing.T, files fstest.MapFS) *Base {
	t.Helper()
	b, err := New(files, nil)
	require.NoError(t, err)
	return b
}

func TestDefaultIndex(t *testing.T) {
	b, err := Default(nil)
	require.NoError(t, err)

	topics := b.Topics()
	require.Len(t, topics, 4)
	assert.Equal(t, []string{"module-0", "module-1", "module-2", "general"},
		[]string{topics[0].Key, topics[1].Key, topics[2].Key, topics[3].Key})
	assert.Contains(t, topics[2].Keywords, "wabi sabi")
}

func TestDefaultDocumentsExist(t *testing.T) {
	b, err := Default(nil)
	require.NoError(t, err)

	for _, topic := range b.Topics() {
		got := b.Relevant(topic.Keywords[0])
		assert.Contains(t, got, "--- "+topic.File+" ---", "topic %s", topic.Key)
	}
}

func TestFiles(t *testing.T) {
	b, err := Default(nil)
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"What is the OCEAN model?", []string{"module-0-introduction.md"}},
		{"how does STRESS affect the brain", []string{"module-1-neurobiology.md"}},
		{"explain task bracketing", []string{"module-2-learning-habits.md"}},
		{"where do I see my progress", []string{"general-info.md"}},
		{"tell me a joke", []string{"general-info.md"}},
		{"growth mindset and habits", []string{"module-1-neurobiology.md", "module-2-learning-habits.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Files(tt.query))
		})
	}
}

func TestRelevantConcatenatesInIndexOrder(t *testing.T) {
	b := testBase(t, fstest.MapFS{
		"index.yaml":              {Data: []byte(testIndex)},
		"content/a.md":            {Data: []byte("A body")},
		"content/b.md":            {Data: []byte("B body")},
		"content/general-info.md": {Data: []byte("General body")},
	})

	got := b.Relevant("something about a SHARED TERM")
	assert.Equal(t, "\n\n--- a.md ---\nA body\n\n--- b.md ---\nB body", got)
}

func TestRelevantFallsBackToGeneral(t *testing.T) {
	b := testBase(t, fstest.MapFS{
		"index.yaml":              {Data: []byte(testIndex)},
		"content/a.md":            {Data: []byte("A body")},
		"content/general-info.md": {Data: []byte("General body")},
	})

	assert.Equal(t, "\n\n--- general-info.md ---\nGeneral body", b.Relevant("unrelated"))
}

func TestRelevantSkipsUnreadableFiles(t *testing.T) {
	b := testBase(t, fstest.MapFS{
		"index.yaml":   {Data: []byte(testIndex)},
		"content/b.md": {Data: []byte("B body")},
	})

	got := b.Relevant("alpha beta")
	assert.Equal(t, "\n\n--- b.md ---\nB body", got)
	assert.False(t, strings.Contains(got, "a.md"))
}

func TestRelevantNothingReadable(t *testing.T) {
	b := testBase(t, fstest.MapFS{
		"index.yaml": {Data: []byte(testIndex)},
	})

	assert.Equal(t, NoContent, b.Relevant("alpha"))
	assert.Equal(t, NoContent, b.Relevant("no keywords here"))
}

func TestNewRejectsBadIndex(t *testing.T) {
	_, err := New(fstest.MapFS{}, nil)
	assert.Error(t, err)

	_, err = New(fstest.MapFS{"index.yaml": {Data: []byte("topics: [")}}, nil)
	assert.Error(t, err)
}
