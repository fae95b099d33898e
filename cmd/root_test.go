package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"build", "search", "stats", "clear", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestSearchSubcommands(t *testing.T) {
	sub := make(map[string]bool)
	for _, c := range searchCmd.Commands() {
		sub[c.Name()] = true
	}

	assert.True(t, sub["tables"])
	assert.True(t, sub["requirements"])

	flag := searchTablesCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "5", flag.DefValue)
}

func TestDestructiveCommandsHaveForceFlag(t *testing.T) {
	assert.NotNil(t, clearCmd.Flags().Lookup("force"))
	assert.NotNil(t, buildCmd.Flags().Lookup("force"))
}
