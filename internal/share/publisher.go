package share

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/pkg/logger"
)

// Publisher renders, uploads and links one scored attempt. It satisfies the
// worker pool's publisher contract.
type Publisher struct {
	renderer *Renderer
	uploader Uploader
	links    Links
	logger   logger.Logger
}

// NewPublisher wires the three share stages together.
func NewPublisher(renderer *Renderer, uploader Uploader, links Links) *Publisher {
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &Publisher{
		renderer: renderer,
		uploader: uploader,
		links:    links,
		logger:   logger.Get().Named("share"),
	}
}

// Publish implements the worker publisher. Without an uploader, or with
// uploads disabled, the links point at the game site instead of an image.
func (p *Publisher) Publish(ctx context.Context, job model.ShareJob) (model.ShareResult, error) { //nolint:gocritic // hugeParam: matches the worker contract
	if err := ctx.Err(); err != nil {
		return model.ShareResult{}, err
	}

	png, err := p.renderer.Render(job.Score, job.Path)
	if err != nil {
		return model.ShareResult{}, fmt.Errorf("render %s: %w", job.JobID, err)
	}

	var up Uploaded
	if p.uploader != nil {
		up, err = p.uploader.Upload(ctx, png)
		switch {
		case errors.Is(err, ErrUploadDisabled):
			p.logger.Debug(ctx, "image upload disabled, sharing site link only",
				logger.String("job_id", job.JobID))
		case err != nil:
			return model.ShareResult{}, fmt.Errorf("upload %s: %w", job.JobID, err)
		}
	}

	target := up.URL
	if target == "" {
		target = p.links.Site()
	}
	links, err := p.links.All(target, job.Score)
	if err != nil {
		return model.ShareResult{}, fmt.Errorf("links %s: %w", job.JobID, err)
	}

	p.logger.Info(ctx, "share published",
		logger.String("job_id", job.JobID),
		logger.String("session_id", job.SessionID),
		logger.Int("score", job.Score),
		logger.Int("png_bytes", len(png)),
	)
	return model.ShareResult{ImageURL: up.URL, ViewerURL: up.ViewerURL, Links: links}, nil
}
