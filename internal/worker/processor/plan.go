package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"reelgen/internal/config"
	v0 "reelgen/internal/contracts/renderer/v0"
	"reelgen/internal/pkg/errors"
)

const (
	maxClips         = 20
	maxBlocksPerClip = 10
	maxTextLen       = 500
	minFontSize      = 8
	maxFontSize      = 512
)

var colorPattern = regexp.MustCompile(`^[#A-Za-z0-9]{1,32}$`)

// Plan is the caller's description of the video content. Local paths never
// appear in a plan; the builder resolves them from configuration.
type Plan struct {
	Clips []PlanClip `json:"clips"`
}

type PlanClip struct {
	Blocks []PlanBlock `json:"blocks"`
}

// PlanBlock is a text overlay or a remote image. FontSize and Color fall back
// to the configured defaults when zero.
type PlanBlock struct {
	Type     v0.BlockKind `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL string       `json:"image_url,omitempty"`
	FontSize int          `json:"font_size,omitempty"`
	Color    string       `json:"color,omitempty"`
}

// DefaultPlan is used when a request brings no plan: the demo text followed
// by the demo image.
func DefaultPlan(demo config.Demo) Plan {
	blocks := []PlanBlock{{Type: v0.KindText, Text: demo.Text}}
	if demo.ImageURL != "" {
		blocks = append(blocks, PlanBlock{Type: v0.KindImage, ImageURL: demo.ImageURL})
	}
	return Plan{Clips: []PlanClip{{Blocks: blocks}}}
}

// ParsePlan decodes and validates a JSON plan. Unknown fields are rejected.
func ParsePlan(data []byte) (Plan, error) {
	var p Plan
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Plan{}, errors.WrapWithCode(err, errors.CodeBadRequest, "plan.parse", "invalid plan json")
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (p Plan) IsEmpty() bool { return len(p.Clips) == 0 }

// Validate checks limits and block contents.
func (p Plan) Validate() error {
	if len(p.Clips) == 0 {
		return errors.ValidationField("clips", "at least one clip is required")
	}
	if len(p.Clips) > maxClips {
		return errors.ValidationField("clips", fmt.Sprintf("at most %d clips are allowed", maxClips))
	}

	for i, c := range p.Clips {
		if len(c.Blocks) == 0 {
			return errors.ValidationField(fmt.Sprintf("clips[%d].blocks", i), "at least one block is required")
		}
		if len(c.Blocks) > maxBlocksPerClip {
			return errors.ValidationField(fmt.Sprintf("clips[%d].blocks", i), fmt.Sprintf("at most %d blocks are allowed", maxBlocksPerClip))
		}
		for j, b := range c.Blocks {
			if err := b.validate(); err != nil {
				return errors.ValidationField(fmt.Sprintf("clips[%d].blocks[%d]", i, j), err.Error())
			}
		}
	}
	return nil
}

func (b PlanBlock) validate() error {
	switch b.Type {
	case v0.KindText:
		text := strings.TrimSpace(b.Text)
		if text == "" {
			return fmt.Errorf("text is required")
		}
		if len(text) > maxTextLen {
			return fmt.Errorf("text exceeds %d bytes", maxTextLen)
		}
		if b.FontSize != 0 && (b.FontSize < minFontSize || b.FontSize > maxFontSize) {
			return fmt.Errorf("font_size must be between %d and %d", minFontSize, maxFontSize)
		}
		if b.Color != "" && !colorPattern.MatchString(b.Color) {
			return fmt.Errorf("color %q is not allowed", b.Color)
		}
	case v0.KindImage:
		u, err := url.Parse(strings.TrimSpace(b.ImageURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("image_url must be an http(s) url")
		}
	default:
		return fmt.Errorf("unknown block type %q", b.Type)
	}
	return nil
}

// ImageURLs returns every image URL in render order without duplicates.
func (p Plan) ImageURLs() []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, c := range p.Clips {
		for _, b := range c.Blocks {
			if b.Type != v0.KindImage {
				continue
			}
			u := strings.TrimSpace(b.ImageURL)
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}
