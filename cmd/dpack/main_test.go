package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPackUnpackList(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a", "f.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a", "g.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Symlink("a/f.txt", filepath.Join(src, "b")))
	t.Setenv("DPACK_CONFIG", "")

	archive := filepath.Join(t.TempDir(), "a.dpack")
	var stdout, stderr bytes.Buffer
	ctx := context.Background()

	require.NoError(t, run(ctx, []string{"--log-format", "json", "--digest", "blake3", "pack", src, archive}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `"msg":"packed entry"`)

	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, run(ctx, []string{"unpack", archive, out}, &stdout, &stderr))
	data, err := os.ReadFile(filepath.Join(out, "a", "g.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"list", archive}, &stdout, &stderr))
	assert.Equal(t, ""+
		"         0  directory a/\n"+
		"         4  regular   a/f.txt (2 bytes)\n"+
		"        18  duplicate a/g.txt (2 bytes at offset 12)\n"+
		"        34  leave     1\n"+
		"        37  symlink   b -> a/f.txt\n", stdout.String())
}

func TestRunConfigFile(t *testing.T) {
	t.Setenv("DPACK_CONFIG", "")
	cfgPath := filepath.Join(t.TempDir(), "dpack.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: warn\n"), 0o600))

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "f"), []byte("x"), 0o644))
	archive := filepath.Join(t.TempDir(), "a.dpack")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--config", cfgPath, "pack", src, archive}, &stdout, &stderr))
	assert.NotContains(t, stderr.String(), "packed entry")

	stderr.Reset()
	require.NoError(t, run(context.Background(),
		[]string{"--config", cfgPath, "--log-level", "info", "pack", src, archive}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "packed entry")
}

func TestRunErrors(t *testing.T) {
	t.Setenv("DPACK_CONFIG", "")
	bad := filepath.Join(t.TempDir(), "bad.dpack")
	require.NoError(t, os.WriteFile(bad, []byte{4, 1, 0}, 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"zip"}},
		{"pack operands", []string{"pack", "only-one"}},
		{"unpack operands", []string{"unpack", "a", "b", "c"}},
		{"list operands", []string{"list"}},
		{"unknown flag", []string{"--nope", "list", bad}},
		{"bad digest", []string{"--digest", "md5", "list", bad}},
		{"bad chunk size", []string{"--chunk-size", "1", "list", bad}},
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "list", bad}},
		{"malformed archive", []string{"unpack", bad, t.TempDir()}},
		{"missing source", []string{"pack", filepath.Join(t.TempDir(), "none"), filepath.Join(t.TempDir(), "x.dpack")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(context.Background(), tt.args, &stdout, &stderr))
		})
	}
}

func TestRunHelp(t *testing.T) {
	t.Setenv("DPACK_CONFIG", "")
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "dpack [flags] pack")
}
