package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singabi/dbkb/internal/retrieval"
	"github.com/singabi/dbkb/internal/testutil"
)

func newTestRetriever() *retrieval.Retriever {
	return retrieval.NewRetriever(testutil.NewMockStore(), testutil.NewMockEmbedder(8))
}

func TestNewServer(t *testing.T) {
	s, err := NewServer(Config{Name: "dbkb", Version: "1.0.0"}, newTestRetriever())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewServerValidatesConfig(t *testing.T) {
	_, err := NewServer(Config{Version: "1.0.0"}, newTestRetriever())
	require.Error(t, err)

	_, err = NewServer(Config{Name: "dbkb"}, newTestRetriever())
	require.Error(t, err)
}
