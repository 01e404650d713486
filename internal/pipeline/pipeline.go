// Package pipeline turns a video playlist into speaker-attributed transcript
// documents and registers them with the remote index.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coachhq/coachd/internal/openai"
	"github.com/coachhq/coachd/internal/speaker"
	"github.com/coachhq/coachd/internal/youtube"
)

const (
	collectionName = "Speaker"

	defaultChunkSize    = 800
	defaultChunkOverlap = 400

	placeholderDownloadFailed   = "Audio could not be downloaded."
	placeholderTranscribeFailed = "Text conversion failed."
)

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// Indexer registers finished transcript documents with the remote index.
type Indexer interface {
	CreateVectorStore(ctx context.Context, name string, chunking openai.ChunkingConfig) (string, error)
	UploadFile(ctx context.Context, filename string, contents io.Reader) (string, error)
	UploadBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (*openai.BatchStatus, error)
}

// Options configures one pipeline run.
type Options struct {
	PlaylistURL        string `json:"playlist_url"`
	MaxVideos          int    `json:"max_videos,omitempty"`
	MaxChunkSizeTokens int    `json:"max_chunk_size_tokens,omitempty"`
	ChunkOverlapTokens int    `json:"chunk_overlap_tokens,omitempty"`
}

// Result summarizes one pipeline run.
type Result struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	VectorStoreID      string   `json:"vector_store_id,omitempty"`
	ProcessedVideos    int      `json:"processed_videos"`
	TranscriptionFiles []string `json:"transcription_files"`
}

// Runner executes the playlist-to-index pipeline: list entries, download and
// transcribe each in order, accumulate per-speaker documents, then upload the
// batch. One run at a time is assumed; entries are never processed in
// parallel.
type Runner struct {
	source      youtube.Source
	transcriber Transcriber
	index       Indexer
	outputDir   string
	language    string
	logger      *slog.Logger
}

func NewRunner(source youtube.Source, transcriber Transcriber, index Indexer, outputDir, language string, logger *slog.Logger) *Runner {
	return &Runner{
		source:      source,
		transcriber: transcriber,
		index:       index,
		outputDir:   outputDir,
		language:    language,
		logger:      logger,
	}
}

// Run executes the full pipeline. It never returns an error: entry-level
// failures degrade to placeholder transcripts, and run-level failures are
// folded into the Result.
func (r *Runner) Run(ctx context.Context, opts Options) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("pipeline panic", "panic", rec)
			result = Result{Success: false, Message: fmt.Sprintf("Error occurred: %v", rec)}
		}
	}()

	if opts.MaxChunkSizeTokens <= 0 {
		opts.MaxChunkSizeTokens = defaultChunkSize
	}
	if opts.ChunkOverlapTokens <= 0 {
		opts.ChunkOverlapTokens = defaultChunkOverlap
	}

	entries, err := r.source.Playlist(ctx, opts.PlaylistURL)
	if err != nil {
		r.logger.Error("playlist listing failed", "url", opts.PlaylistURL, "error", err)
		entries = nil
	}
	if opts.MaxVideos > 0 && len(entries) > opts.MaxVideos {
		entries = entries[:opts.MaxVideos]
		r.logger.Info("playlist truncated", "videos", len(entries))
	}
	if len(entries) == 0 {
		return Result{Success: false, Message: "No transcriptions were created"}
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		r.logger.Error("create output folder failed", "dir", r.outputDir, "error", err)
		return Result{Success: false, Message: fmt.Sprintf("Error occurred: %v", err)}
	}

	files := make([]string, 0, len(entries))
	for i, entry := range entries {
		r.logger.Info("processing video", "title", entry.Title, "index", i+1, "total", len(entries))

		text := r.transcribeEntry(ctx, entry, i+1)

		name := speaker.ExtractName(entry.Title)
		path, err := r.appendSpeakerDoc(name, text)
		if err != nil {
			r.logger.Error("write transcript failed", "speaker", name, "error", err)
			continue
		}
		files = append(files, path)
		r.logger.Info("transcript saved", "speaker", name, "file", path)
	}

	vectorStoreID, err := r.upload(ctx, opts)
	if err != nil {
		r.logger.Error("index upload failed", "error", err)
		return Result{
			Success:            false,
			Message:            "Pipeline partially completed - transcriptions created but vector store upload failed",
			ProcessedVideos:    len(entries),
			TranscriptionFiles: files,
		}
	}

	return Result{
		Success:            true,
		Message:            "Pipeline completed successfully!",
		VectorStoreID:      vectorStoreID,
		ProcessedVideos:    len(entries),
		TranscriptionFiles: files,
	}
}

// transcribeEntry downloads and transcribes one entry, degrading to a
// placeholder on failure. The entry's temp dir is removed regardless of
// outcome; cleanup errors are logged and swallowed.
func (r *Runner) transcribeEntry(ctx context.Context, entry youtube.Entry, index int) string {
	dir, err := os.MkdirTemp("", "coach-audio-*")
	if err != nil {
		r.logger.Error("create temp dir failed", "error", err)
		return placeholderDownloadFailed
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("temp cleanup failed", "dir", dir, "error", err)
		}
	}()

	audioPath, err := r.source.DownloadAudio(ctx, entry.URL, dir)
	if err != nil {
		r.logger.Warn("audio download failed", "video", entry.URL, "index", index, "error", err)
		return placeholderDownloadFailed
	}

	text, err := r.transcriber.Transcribe(ctx, audioPath, r.language)
	if err != nil {
		r.logger.Warn("transcription failed", "video", entry.URL, "index", index, "error", err)
		return placeholderTranscribeFailed
	}
	if strings.TrimSpace(text) == "" {
		return placeholderTranscribeFailed
	}
	return text
}

// appendSpeakerDoc appends one transcript section to the speaker's markdown
// document, creating it on first write. A speaker appearing in multiple
// entries accumulates one growing document with separator markers.
func (r *Runner) appendSpeakerDoc(name, transcript string) (string, error) {
	path := filepath.Join(r.outputDir, speaker.SanitizeFilename(name)+".md")

	var buf bytes.Buffer
	if _, err := os.Stat(path); err == nil {
		buf.WriteString("---\n\n")
	}
	fmt.Fprintf(&buf, "# %s\n\n%s\n\n", strings.ReplaceAll(name, "_", " "), transcript)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return "", fmt.Errorf("append %s: %w", path, err)
	}
	return path, nil
}

// upload creates the remote collection and pushes every accumulated speaker
// document as one batch, blocking until the batch settles.
func (r *Runner) upload(ctx context.Context, opts Options) (string, error) {
	paths, err := filepath.Glob(filepath.Join(r.outputDir, "*.md"))
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no transcript documents in %s", r.outputDir)
	}
	sort.Strings(paths)

	vectorStoreID, err := r.index.CreateVectorStore(ctx, collectionName, openai.ChunkingConfig{
		MaxChunkSizeTokens: opts.MaxChunkSizeTokens,
		ChunkOverlapTokens: opts.ChunkOverlapTokens,
	})
	if err != nil {
		return "", err
	}

	fileIDs := make([]string, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		id, uploadErr := r.index.UploadFile(ctx, filepath.Base(path), f)
		f.Close()
		if uploadErr != nil {
			return "", uploadErr
		}
		fileIDs = append(fileIDs, id)
	}

	batch, err := r.index.UploadBatch(ctx, vectorStoreID, fileIDs)
	if err != nil {
		return "", err
	}
	if batch.Status != "completed" {
		return "", fmt.Errorf("file batch finished with status %s", batch.Status)
	}

	r.logger.Info("vector store upload complete",
		"vector_store_id", vectorStoreID,
		"files", batch.FileCounts.Completed,
	)
	return vectorStoreID, nil
}
