package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripts(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"script", "--game-script", "test/game-scripts"})
	err := cmd.Execute()
	if err != nil {
		t.Fatalf(err.Error())
	}
}

func TestSimulate(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"simulate", "--num-deals", "200", "--players", "4"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "200 deals completed with 4 players")
}

func TestStacksNeedsATable(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"stacks"})
	assert.Error(t, cmd.Execute())
}
