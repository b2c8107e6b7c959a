package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_PrintsRecipeTypes(t *testing.T) {
	uiOut := swapUI(t)

	cmd := newListCmd()
	require.NoError(t, cmd.RunE(cmd, nil))

	got := uiOut.String()
	assert.Contains(t, got, "text.findAndReplace")
	assert.Contains(t, got, "file.create")
	assert.Contains(t, got, "file.rename")
	assert.Contains(t, got, "file.delete")
	assert.Contains(t, got, "deps.upgradeVersion")
}
