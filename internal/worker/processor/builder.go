package processor

import (
	"fmt"
	"strings"
	"time"

	"reelgen/internal/config"
	v0 "reelgen/internal/contracts/renderer/v0"
	"reelgen/internal/pkg/errors"
)

// Builder turns a plan into the engine's JobSpec. It does no I/O: local asset
// paths come from configuration and fetched images from the caller.
type Builder struct {
	assets config.Assets
	gap    time.Duration
}

func NewBuilder(assets config.Assets, gap time.Duration) *Builder {
	return &Builder{assets: assets, gap: gap}
}

// Build resolves plan into a JobSpec writing to output. fetched maps image
// URLs to local paths; a missing entry is an error. Block order is kept.
func (b *Builder) Build(plan Plan, fetched map[string]string, output string) (v0.JobSpec, error) {
	spec := v0.JobSpec{
		BackgroundVideo: b.assets.BackgroundVideo,
		BackgroundAudio: b.assets.BackgroundAudio,
		Output:          output,
		Gap:             v0.Duration(b.gap),
		Clips:           make([]v0.Clip, 0, len(plan.Clips)),
	}

	for i, pc := range plan.Clips {
		clip := v0.Clip{
			Voice:  b.assets.Voice,
			Blocks: make([]v0.Block, 0, len(pc.Blocks)),
		}
		for j, pb := range pc.Blocks {
			block, err := b.block(pb, fetched)
			if err != nil {
				return v0.JobSpec{}, errors.ValidationField(fmt.Sprintf("clips[%d].blocks[%d]", i, j), err.Error())
			}
			clip.Blocks = append(clip.Blocks, block)
		}
		spec.Clips = append(spec.Clips, clip)
	}

	return spec, nil
}

func (b *Builder) block(pb PlanBlock, fetched map[string]string) (v0.Block, error) {
	switch pb.Type {
	case v0.KindText:
		tb := v0.TextBlock{
			Text:     strings.TrimSpace(pb.Text),
			FontSize: pb.FontSize,
			Font:     b.assets.Font,
			Color:    pb.Color,
		}
		if tb.FontSize == 0 {
			tb.FontSize = b.assets.FontSize
		}
		if tb.Color == "" {
			tb.Color = b.assets.Color
		}
		return tb, nil
	case v0.KindImage:
		path, ok := fetched[strings.TrimSpace(pb.ImageURL)]
		if !ok || path == "" {
			return nil, fmt.Errorf("image %s was not fetched", pb.ImageURL)
		}
		return v0.ImageBlock{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", pb.Type)
	}
}
