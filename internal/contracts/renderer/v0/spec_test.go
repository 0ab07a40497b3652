package v0

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/pkg/errors"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	return p
}

func validSpec(t *testing.T) JobSpec {
	t.Helper()
	dir := t.TempDir()
	return JobSpec{
		BackgroundVideo: touch(t, dir, "bg.mp4"),
		BackgroundAudio: touch(t, dir, "bg.mp3"),
		Output:          filepath.Join(dir, "out.mp4"),
		Gap:             Duration(time.Second),
		Clips: []Clip{{
			Voice: touch(t, dir, "voice.mp3"),
			Blocks: []Block{
				TextBlock{Text: "Hello World", FontSize: 72, Font: touch(t, dir, "font.ttf"), Color: "white"},
				ImageBlock{Path: touch(t, dir, "image.png")},
			},
		}},
	}
}

func TestJobSpecWireFormat(t *testing.T) {
	spec := JobSpec{
		BackgroundVideo: "/a/bg.mp4",
		BackgroundAudio: "/a/bg.mp3",
		Output:          "/tmp/out.mp4",
		Gap:             Duration(1500 * time.Millisecond),
		Clips: []Clip{{
			Voice: "/a/voice.mp3",
			Blocks: []Block{
				TextBlock{Text: "Hello World", FontSize: 72, Font: "/a/font.ttf", Color: "white"},
				ImageBlock{Path: "/tmp/img.png"},
			},
		}},
	}

	data, err := json.Marshal(spec)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"background_video": "/a/bg.mp4",
		"background_audio": "/a/bg.mp3",
		"output": "/tmp/out.mp4",
		"gap": 1.5,
		"clips": [{
			"voice": "/a/voice.mp3",
			"blocks": [
				{"type": "text", "text": "Hello World", "font-size": 72, "font": "/a/font.ttf", "color": "white"},
				{"type": "image", "path": "/tmp/img.png"}
			]
		}]
	}`, string(data))

	var decoded JobSpec
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, spec, decoded)
}

func TestWholeSecondGapEncodesAsInteger(t *testing.T) {
	data, err := json.Marshal(Duration(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestClipRejectsUnknownBlockType(t *testing.T) {
	var c Clip
	err := json.Unmarshal([]byte(`{"voice":"/v.mp3","blocks":[{"type":"video","path":"/x"}]}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown block type "video"`)
}

func TestLocalPathsFollowRenderOrder(t *testing.T) {
	spec := JobSpec{
		BackgroundVideo: "bg.mp4",
		BackgroundAudio: "bg.mp3",
		Clips: []Clip{{
			Voice:  "v.mp3",
			Blocks: []Block{TextBlock{Text: "hi", Font: "f.ttf"}, ImageBlock{Path: "i.png"}},
		}},
	}
	assert.Equal(t, []string{"bg.mp4", "bg.mp3", "v.mp3", "f.ttf", "i.png"}, spec.LocalPaths())
}

func TestValidate(t *testing.T) {
	require.NoError(t, validSpec(t).Validate())

	tests := []struct {
		name   string
		mutate func(*JobSpec)
	}{
		{"no clips", func(s *JobSpec) { s.Clips = nil }},
		{"no voice", func(s *JobSpec) { s.Clips[0].Voice = "" }},
		{"no blocks", func(s *JobSpec) { s.Clips[0].Blocks = nil }},
		{"missing image", func(s *JobSpec) { s.Clips[0].Blocks[1] = ImageBlock{Path: "/does/not/exist.png"} }},
		{"missing background", func(s *JobSpec) { s.BackgroundVideo = filepath.Join(t.TempDir(), "gone.mp4") }},
		{"no output", func(s *JobSpec) { s.Output = "" }},
		{"output dir missing", func(s *JobSpec) { s.Output = "/does/not/exist/out.mp4" }},
		{"negative gap", func(s *JobSpec) { s.Gap = Duration(-time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec(t)
			tt.mutate(&spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}
