package v0

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"reelgen/internal/pkg/errors"
)

// JobSpec v0: the document the render engine reads from stdin.
// - background_video / background_audio: local media paths
// - output: where the engine must write the mp4
// - gap: pause between clips, in seconds
// - clips: rendered in order, each with a voice track and ordered blocks
type JobSpec struct {
	BackgroundVideo string   `json:"background_video"`
	BackgroundAudio string   `json:"background_audio"`
	Output          string   `json:"output"`
	Gap             Duration `json:"gap"`
	Clips           []Clip   `json:"clips"`
}

// Clip is one narrated section of the video.
type Clip struct {
	Voice  string  `json:"voice"`
	Blocks []Block `json:"blocks"`
}

// BlockKind is the wire discriminator stored in a block's "type" field.
type BlockKind string

const (
	KindText  BlockKind = "text"
	KindImage BlockKind = "image"
)

// Block is a visual element of a clip. The set of kinds is closed: only types
// in this package can satisfy it, and every kind must report the local files
// it needs and encode itself.
type Block interface {
	Kind() BlockKind
	LocalPaths() []string
	json.Marshaler
	block()
}

// TextBlock overlays text rendered with a font file.
type TextBlock struct {
	Text     string
	FontSize int
	Font     string
	Color    string
}

func (TextBlock) Kind() BlockKind { return KindText }
func (TextBlock) block()          {}

func (b TextBlock) LocalPaths() []string {
	if b.Font == "" {
		return nil
	}
	return []string{b.Font}
}

func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(textWire{
		Type:     KindText,
		Text:     b.Text,
		FontSize: b.FontSize,
		Font:     b.Font,
		Color:    b.Color,
	})
}

// ImageBlock shows a local image.
type ImageBlock struct {
	Path string
}

func (ImageBlock) Kind() BlockKind { return KindImage }
func (ImageBlock) block()          {}

func (b ImageBlock) LocalPaths() []string { return []string{b.Path} }

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageWire{Type: KindImage, Path: b.Path})
}

type textWire struct {
	Type     BlockKind `json:"type"`
	Text     string    `json:"text"`
	FontSize int       `json:"font-size"`
	Font     string    `json:"font"`
	Color    string    `json:"color"`
}

type imageWire struct {
	Type BlockKind `json:"type"`
	Path string    `json:"path"`
}

var blockDecoders = map[BlockKind]func([]byte) (Block, error){
	KindText: func(data []byte) (Block, error) {
		var w textWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return TextBlock{Text: w.Text, FontSize: w.FontSize, Font: w.Font, Color: w.Color}, nil
	},
	KindImage: func(data []byte) (Block, error) {
		var w imageWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return ImageBlock{Path: w.Path}, nil
	},
}

// UnmarshalJSON decodes blocks by their "type" field and rejects unknown kinds.
func (c *Clip) UnmarshalJSON(data []byte) error {
	var raw struct {
		Voice  string            `json:"voice"`
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	blocks := make([]Block, 0, len(raw.Blocks))
	for i, item := range raw.Blocks {
		var head struct {
			Type BlockKind `json:"type"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		decode, ok := blockDecoders[head.Type]
		if !ok {
			return fmt.Errorf("block %d: unknown block type %q", i, head.Type)
		}
		b, err := decode(item)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}

	c.Voice = raw.Voice
	c.Blocks = blocks
	return nil
}

// Duration is a time.Duration carried on the wire as a number of seconds.
type Duration time.Duration

// Seconds converts d to a float number of seconds.
func (d Duration) Seconds() float64 { return time.Duration(d).Seconds() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(d.Seconds(), 'f', -1, 64)), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("duration must be a number of seconds: %w", err)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// LocalPaths lists every local input file the engine will open, in order.
func (s JobSpec) LocalPaths() []string {
	paths := []string{s.BackgroundVideo, s.BackgroundAudio}
	for _, c := range s.Clips {
		paths = append(paths, c.Voice)
		for _, b := range c.Blocks {
			paths = append(paths, b.LocalPaths()...)
		}
	}
	return paths
}

// Validate checks the structural invariants and that every referenced file
// exists at this moment.
func (s JobSpec) Validate() error {
	if len(s.Clips) == 0 {
		return errors.ValidationField("clips", "at least one clip is required")
	}
	if s.Gap < 0 {
		return errors.ValidationField("gap", "gap must not be negative")
	}
	for i, c := range s.Clips {
		if c.Voice == "" {
			return errors.ValidationField(fmt.Sprintf("clips[%d].voice", i), "voice is required")
		}
		if len(c.Blocks) == 0 {
			return errors.ValidationField(fmt.Sprintf("clips[%d].blocks", i), "at least one block is required")
		}
		for j, b := range c.Blocks {
			if b == nil {
				return errors.ValidationField(fmt.Sprintf("clips[%d].blocks[%d]", i, j), "block is nil")
			}
		}
	}

	for _, p := range s.LocalPaths() {
		if p == "" {
			return errors.Validation("empty local path in job spec")
		}
		info, err := os.Stat(p)
		if err != nil {
			return errors.WrapWithCode(err, errors.CodeValidation, "jobspec.validate", "referenced file is not accessible").
				WithField("path", p)
		}
		if info.IsDir() {
			return errors.Validation("referenced path is a directory").WithField("path", p)
		}
	}

	if s.Output == "" {
		return errors.ValidationField("output", "output path is required")
	}
	dir := filepath.Dir(s.Output)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeValidation, "jobspec.validate", "output directory is not accessible").
			WithField("path", dir)
	}
	if !info.IsDir() {
		return errors.Validation("output parent is not a directory").WithField("path", dir)
	}
	return nil
}
