package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	yt "github.com/kkdai/youtube/v2"
)

// Entry is one playlist item, in playlist order.
type Entry struct {
	URL   string
	Title string
}

// Source lists playlist entries and downloads per-video audio.
type Source interface {
	Playlist(ctx context.Context, playlistURL string) ([]Entry, error)
	DownloadAudio(ctx context.Context, videoURL, dir string) (string, error)
}

type Client struct {
	yt     yt.Client
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return &Client{logger: logger}
}

// Playlist resolves a playlist URL to its ordered entries.
func (c *Client) Playlist(ctx context.Context, playlistURL string) ([]Entry, error) {
	pl, err := c.yt.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}

	entries := make([]Entry, 0, len(pl.Videos))
	for _, v := range pl.Videos {
		entries = append(entries, Entry{
			URL:   "https://www.youtube.com/watch?v=" + v.ID,
			Title: v.Title,
		})
	}
	c.logger.Info("playlist resolved", "url", playlistURL, "videos", len(entries))
	return entries, nil
}

// DownloadAudio fetches the best audio-only stream for a video into dir and
// returns the written file path.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, dir string) (string, error) {
	video, err := c.yt.GetVideoContext(ctx, videoURL)
	if err != nil {
		return "", fmt.Errorf("resolve video: %w", err)
	}

	formats := video.Formats.Type("audio")
	if len(formats) == 0 {
		formats = video.Formats.WithAudioChannels()
	}
	if len(formats) == 0 {
		return "", fmt.Errorf("no audio format for %s", videoURL)
	}
	formats.Sort()
	format := &formats[0]

	stream, _, err := c.yt.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	path := filepath.Join(dir, "audio"+audioExt(format.MimeType))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, stream); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("download audio: %w", err)
	}

	c.logger.Debug("audio downloaded", "video", videoURL, "path", path)
	return path, nil
}

func audioExt(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "audio/webm"):
		return ".webm"
	case strings.Contains(mimeType, "audio/mpeg"):
		return ".mp3"
	default:
		return ".m4a"
	}
}
