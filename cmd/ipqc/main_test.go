package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCheckpointRef(t *testing.T) {
	n, sub, err := parseCheckpointRef("22.TOP")
	require.NoError(t, err)
	assert.Equal(t, 22, n)
	assert.Equal(t, "TOP", sub)

	n, sub, err = parseCheckpointRef("7")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Empty(t, sub)

	_, _, err = parseCheckpointRef("x.TOP")
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), "ipqc %v", args)
	return out.String()
}

// The commands share package state, so the whole operator flow runs in one test.
func TestCLI_OperatorFlow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("IPQC_DATABASE_DSN", filepath.Join(dir, "ipqc.db"))
	t.Setenv("IPQC_LOG_LEVEL", "error")

	text := "Date :- 25/12/25\nTime :- 8:20\nShift Night\nShop Floor\nTemperature\n23℃\nHumidity\n45%"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CL-0001.txt"), []byte(text), 0o644))

	out := execute(t, "process", "CL-0001.txt")
	assert.Contains(t, out, "Checklist CL-0001: ocr_processed")
	assert.Contains(t, out, "Pages processed: [1]")

	out = execute(t, "edit", "CL-0001", "2", "50%")
	assert.Contains(t, out, `Sr 2 result = "50%" (manual)`)

	out = execute(t, "save", "CL-0001")
	assert.Contains(t, out, "saved")

	out = execute(t, "export", "CL-0001", "--format", "json", "--out", filepath.Join(dir, "out"))
	assert.Contains(t, out, "Exported CL-0001")
	assert.FileExists(t, filepath.Join(dir, "out", "CL-0001.json"))

	out = execute(t, "list")
	assert.Contains(t, out, "CL-0001")
	assert.Contains(t, out, "exported")

	out = execute(t, "show", "CL-0001")
	assert.Contains(t, out, "Date 2025-12-25")
	assert.Contains(t, out, "Activity:")

	out = execute(t, "dbhealth")
	assert.Contains(t, out, "DB health: OK (sqlite)")
}
