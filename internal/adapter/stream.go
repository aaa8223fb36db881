package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// URLResolver turns a video id into a URL a player can open
type URLResolver interface {
	Resolve(ctx context.Context, videoID string) (string, error)
}

// StreamResolver resolves direct media stream URLs for players that cannot
// open watch pages themselves
type StreamResolver struct {
	client *youtube.Client
	logger *slog.Logger
}

// NewStreamResolver creates a resolver using the default client
func NewStreamResolver(logger *slog.Logger) *StreamResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamResolver{client: &youtube.Client{}, logger: logger}
}

// Resolve returns the stream URL of the best muxed audio+video format
func (r *StreamResolver) Resolve(ctx context.Context, videoID string) (string, error) {
	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch video %s: %w", videoID, err)
	}

	format := pickFormat(video.Formats)
	if format == nil {
		return "", fmt.Errorf("no playable format for video %s", videoID)
	}

	url, err := r.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("failed to resolve stream for %s: %w", videoID, err)
	}
	r.logger.Debug("resolved stream", "videoID", videoID, "itag", format.ItagNo, "quality", format.Quality)
	return url, nil
}

// pickFormat prefers formats carrying both video and audio, then audio only
func pickFormat(formats youtube.FormatList) *youtube.Format {
	withAudio := formats.WithAudioChannels()
	for i := range withAudio {
		if strings.HasPrefix(withAudio[i].MimeType, "video/") {
			return &withAudio[i]
		}
	}
	if len(withAudio) > 0 {
		return &withAudio[0]
	}
	return nil
}
