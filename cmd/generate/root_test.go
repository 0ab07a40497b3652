package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/config"
	v0 "reelgen/internal/contracts/renderer/v0"
)

const engineScript = `#!/bin/sh
input=$(cat)
out=$(printf '%s' "$input" | sed -n 's/.*"output":"\([^"]*\)".*/\1/p')
[ -n "$out" ] || { echo "no output in spec" >&2; exit 2; }
printf '%s' "$input" > "$out"
`

// writeSetup creates assets, an engine script and a config file pointing at
// them, and returns the config path.
func writeSetup(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	for _, p := range []*string{&cfg.Assets.BackgroundVideo, &cfg.Assets.BackgroundAudio, &cfg.Assets.Voice, &cfg.Assets.Font} {
		name := filepath.Join(dir, filepath.Base(*p))
		require.NoError(t, os.WriteFile(name, []byte("asset"), 0o644))
		*p = name
	}
	cfg.Engine.Executable = "sh"
	cfg.Engine.Script = filepath.Join(dir, "engine.sh")
	cfg.Engine.TimeoutSeconds = 30
	require.NoError(t, os.WriteFile(cfg.Engine.Script, []byte(script), 0o755))
	cfg.Scratch.Dir = filepath.Join(dir, "scratch")
	require.NoError(t, os.MkdirAll(cfg.Scratch.Dir, 0o755))
	cfg.Storage.LocalRoot = filepath.Join(dir, "data")
	cfg.Logging.Level = "error"

	data, err := toml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "reelgen.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writePlan(t *testing.T, plan string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(plan), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestPrintSpecUsesURLsForImages(t *testing.T) {
	cfgPath := writeSetup(t, engineScript)

	out, err := execute(t, "--config", cfgPath, "--print-spec", "--out", "/videos/out.mp4")
	require.NoError(t, err)

	var spec v0.JobSpec
	require.NoError(t, json.Unmarshal([]byte(out), &spec))
	assert.Equal(t, "/videos/out.mp4", spec.Output)
	require.Len(t, spec.Clips, 1)
	require.Len(t, spec.Clips[0].Blocks, 2)
	assert.Equal(t, "Hello World", spec.Clips[0].Blocks[0].(v0.TextBlock).Text)
	assert.True(t, strings.HasPrefix(spec.Clips[0].Blocks[1].(v0.ImageBlock).Path, "https://"))
}

func TestPrintSpecRejectsInvalidPlan(t *testing.T) {
	cfgPath := writeSetup(t, engineScript)
	plan := writePlan(t, `{"clips":[{"blocks":[{"type":"video"}]}]}`)

	_, err := execute(t, "--config", cfgPath, "--plan", plan, "--print-spec")
	assert.Error(t, err)
}

func TestGenerateWritesOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	cfgPath := writeSetup(t, engineScript)
	plan := writePlan(t, `{"clips":[{"blocks":[{"type":"text","text":"from the cli"}]}]}`)
	target := filepath.Join(t.TempDir(), "final.mp4")

	out, err := execute(t, "--config", cfgPath, "--plan", plan, "--out", target)
	require.NoError(t, err)
	assert.Equal(t, target, strings.TrimSpace(out))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "from the cli")
}

func TestGenerateFailureReturnsError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	cfgPath := writeSetup(t, "#!/bin/sh\necho boom >&2\nexit 1\n")
	plan := writePlan(t, `{"clips":[{"blocks":[{"type":"text","text":"x"}]}]}`)

	out, err := execute(t, "--config", cfgPath, "--plan", plan)
	assert.ErrorIs(t, err, errGenerationFailed)
	assert.Empty(t, out)
}
