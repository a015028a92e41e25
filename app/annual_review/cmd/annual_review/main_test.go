package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("input: from-yaml\nllm:\n  model: yaml-model\n  aggregate_model: yaml-agg\n"), 0o644))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DEEPSEEK_API_KEY=sk-file\n"), 0o644))

	t.Setenv("DEEPSEEK_AGG_MODEL", "env-agg")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("DEEPSEEK_MODEL", "")
	os.Unsetenv("DEEPSEEK_API_KEY")
	os.Unsetenv("DEEPSEEK_MODEL")

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", cfgPath,
		"--env-file", envPath,
		"--temperature", "0.7",
	}))
	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Input)
	assert.Equal(t, "yaml-model", cfg.LLM.Model)
	assert.Equal(t, "env-agg", cfg.LLM.AggregateModel)
	assert.Equal(t, "sk-file", cfg.LLM.APIKey)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 4000, cfg.LLM.MaxTokensIndividual)
}

func TestResolveConfigRequiresInput(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--env-file", filepath.Join(t.TempDir(), "none")}))
	_, err := resolveConfig(cmd)
	assert.Error(t, err)
}

func TestExecuteReportsErrors(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "none")

	var stderr bytes.Buffer
	code := execute([]string{"--env-file", envFile}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "--input")

	stderr.Reset()
	code = execute([]string{"--env-file", envFile, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--input", "in"}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "无法加载配置文件")
}
