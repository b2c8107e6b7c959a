package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reshape.dev/pkg/reshape/internal/adapter"
)

func useReportsDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	viper.Set(outputFlagName, dir)
	t.Cleanup(func() { viper.Set(outputFlagName, defaultReportsDir) })

	return dir
}

func TestReportCmd_ListsSavedRuns(t *testing.T) {
	dir := useReportsDir(t)

	saved, err := adapter.NewFileReportStore(dir).Save(adapter.RunReport{Pipeline: "demo"})
	require.NoError(t, err)

	cmd := newReportCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	require.NoError(t, cmd.RunE(cmd, nil))

	assert.Contains(t, out.String(), saved.ID)
	assert.Contains(t, out.String(), "demo")
}

func TestReportCmd_ShowsSingleRun(t *testing.T) {
	dir := useReportsDir(t)
	uiOut := swapUI(t)

	saved, err := adapter.NewFileReportStore(dir).Save(adapter.RunReport{
		Pipeline: "demo",
		Results: []adapter.ResultEntry{
			{Kind: adapter.ResultChanged, Before: "a.txt", After: "a.txt"},
		},
	})
	require.NoError(t, err)

	cmd := newReportCmd()
	cmd.SetOut(&bytes.Buffer{})

	require.NoError(t, cmd.RunE(cmd, []string{saved.ID}))

	assert.Contains(t, uiOut.String(), saved.ID)
	assert.Contains(t, uiOut.String(), "a.txt")
}

func TestReportCmd_UnknownID(t *testing.T) {
	useReportsDir(t)

	cmd := newReportCmd()
	cmd.SetOut(&bytes.Buffer{})

	require.Error(t, cmd.RunE(cmd, []string{"does-not-exist"}))
}
