package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coachhq/coachd/internal/openai"
	"github.com/coachhq/coachd/internal/youtube"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSource struct {
	entries  []youtube.Entry
	listErr  error
	failURLs map[string]bool
	dirs     []string
}

func (s *stubSource) Playlist(ctx context.Context, playlistURL string) ([]youtube.Entry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.entries, nil
}

func (s *stubSource) DownloadAudio(ctx context.Context, videoURL, dir string) (string, error) {
	s.dirs = append(s.dirs, dir)
	if s.failURLs[videoURL] {
		return "", errors.New("download blocked")
	}
	path := filepath.Join(dir, "audio.m4a")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubIndexer struct {
	createErr   error
	uploadErr   error
	batchStatus string
	created     []string
	uploaded    []string
	batched     []string
}

func (s *stubIndexer) CreateVectorStore(ctx context.Context, name string, chunking openai.ChunkingConfig) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, name)
	return "vs_test", nil
}

func (s *stubIndexer) UploadFile(ctx context.Context, filename string, contents io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploaded = append(s.uploaded, filename)
	return "file_" + filename, nil
}

func (s *stubIndexer) UploadBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (*openai.BatchStatus, error) {
	s.batched = fileIDs
	status := s.batchStatus
	if status == "" {
		status = "completed"
	}
	return &openai.BatchStatus{
		ID:         "batch_test",
		Status:     status,
		FileCounts: openai.FileCounts{Completed: len(fileIDs), Total: len(fileIDs)},
	}, nil
}

func newTestRunner(t *testing.T, source youtube.Source, transcriber Transcriber, index Indexer) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	return NewRunner(source, transcriber, index, dir, "tr", discardLogger()), dir
}

func TestRun_Success(t *testing.T) {
	source := &stubSource{entries: []youtube.Entry{
		{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
		{URL: "https://youtu.be/2", Title: "Talks - John Smith | 2020"},
		{URL: "https://youtu.be/3", Title: "Talks - Jane Doe | 2022"},
	}}
	index := &stubIndexer{}
	runner, dir := newTestRunner(t, source, &stubTranscriber{text: "transcript body"}, index)

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.VectorStoreID != "vs_test" {
		t.Errorf("expected vector store id, got %q", result.VectorStoreID)
	}
	if result.ProcessedVideos != 3 {
		t.Errorf("expected 3 processed videos, got %d", result.ProcessedVideos)
	}
	if len(result.TranscriptionFiles) != 3 {
		t.Errorf("expected 3 file entries, got %v", result.TranscriptionFiles)
	}

	// Two speakers accumulate into two documents.
	if len(index.uploaded) != 2 {
		t.Fatalf("expected 2 uploaded documents, got %v", index.uploaded)
	}
	if len(index.created) != 1 || index.created[0] != "Speaker" {
		t.Errorf("expected one Speaker collection, got %v", index.created)
	}

	jane, err := os.ReadFile(filepath.Join(dir, "Jane_Doe.md"))
	if err != nil {
		t.Fatalf("missing Jane_Doe.md: %v", err)
	}
	if !strings.HasPrefix(string(jane), "# Jane Doe\n\ntranscript body\n\n") {
		t.Errorf("unexpected document head: %q", jane)
	}
	if !strings.Contains(string(jane), "---\n\n# Jane Doe") {
		t.Errorf("expected separator before second appearance, got %q", jane)
	}
}

func TestRun_EmptyPlaylist(t *testing.T) {
	runner, dir := newTestRunner(t, &stubSource{}, &stubTranscriber{text: "x"}, &stubIndexer{})

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if result.Success {
		t.Error("expected failure result")
	}
	if result.ProcessedVideos != 0 {
		t.Errorf("expected 0 processed videos, got %d", result.ProcessedVideos)
	}
	if len(result.TranscriptionFiles) != 0 {
		t.Errorf("expected no files, got %v", result.TranscriptionFiles)
	}
	docs, _ := filepath.Glob(filepath.Join(dir, "*.md"))
	if len(docs) != 0 {
		t.Errorf("expected no documents produced, got %v", docs)
	}
}

func TestRun_ListingErrorIsFailureResult(t *testing.T) {
	source := &stubSource{listErr: errors.New("remote lookup failed")}
	runner, _ := newTestRunner(t, source, &stubTranscriber{text: "x"}, &stubIndexer{})

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if result.Success || result.ProcessedVideos != 0 {
		t.Errorf("expected failure with 0 processed, got %+v", result)
	}
}

func TestRun_DownloadFailureDegradesToPlaceholder(t *testing.T) {
	source := &stubSource{
		entries: []youtube.Entry{
			{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
			{URL: "https://youtu.be/2", Title: "Talks - John Smith | 2020"},
			{URL: "https://youtu.be/3", Title: "Talks - Mary Major | 2019"},
		},
		failURLs: map[string]bool{"https://youtu.be/2": true},
	}
	runner, dir := newTestRunner(t, source, &stubTranscriber{text: "transcript body"}, &stubIndexer{})

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.ProcessedVideos != 3 {
		t.Errorf("expected 3 processed videos, got %d", result.ProcessedVideos)
	}

	docs, _ := filepath.Glob(filepath.Join(dir, "*.md"))
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %v", docs)
	}

	john, err := os.ReadFile(filepath.Join(dir, "John_Smith.md"))
	if err != nil {
		t.Fatalf("missing John_Smith.md: %v", err)
	}
	if !strings.Contains(string(john), placeholderDownloadFailed) {
		t.Errorf("expected download placeholder, got %q", john)
	}
}

func TestRun_TranscribeFailureDegradesToPlaceholder(t *testing.T) {
	source := &stubSource{entries: []youtube.Entry{
		{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
	}}
	runner, dir := newTestRunner(t, source, &stubTranscriber{err: errors.New("model overloaded")}, &stubIndexer{})

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if !result.Success || result.ProcessedVideos != 1 {
		t.Fatalf("expected success with 1 processed, got %+v", result)
	}

	jane, err := os.ReadFile(filepath.Join(dir, "Jane_Doe.md"))
	if err != nil {
		t.Fatalf("missing Jane_Doe.md: %v", err)
	}
	if !strings.Contains(string(jane), placeholderTranscribeFailed) {
		t.Errorf("expected transcription placeholder, got %q", jane)
	}
}

func TestRun_UploadFailureIsPartialSuccess(t *testing.T) {
	source := &stubSource{entries: []youtube.Entry{
		{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
	}}
	index := &stubIndexer{createErr: errors.New("quota exceeded")}
	runner, _ := newTestRunner(t, source, &stubTranscriber{text: "transcript body"}, index)

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if result.Success {
		t.Error("expected partial-success result")
	}
	if !strings.Contains(result.Message, "partially completed") {
		t.Errorf("expected partial message, got %q", result.Message)
	}
	if result.ProcessedVideos != 1 || len(result.TranscriptionFiles) != 1 {
		t.Errorf("expected transcripts preserved in result, got %+v", result)
	}
	if result.VectorStoreID != "" {
		t.Errorf("expected no vector store id, got %q", result.VectorStoreID)
	}
}

func TestRun_BatchNotCompletedIsPartialSuccess(t *testing.T) {
	source := &stubSource{entries: []youtube.Entry{
		{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
	}}
	index := &stubIndexer{batchStatus: "failed"}
	runner, _ := newTestRunner(t, source, &stubTranscriber{text: "transcript body"}, index)

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if result.Success {
		t.Error("expected partial-success result")
	}
	if !strings.Contains(result.Message, "partially completed") {
		t.Errorf("expected partial message, got %q", result.Message)
	}
}

func assertDirsRemoved(t *testing.T, dirs []string) {
	t.Helper()
	for _, dir := range dirs {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("temp dir %s not removed: %v", dir, err)
		}
	}
}

func TestRun_RemovesTempDirs(t *testing.T) {
	source := &stubSource{entries: []youtube.Entry{
		{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
		{URL: "https://youtu.be/2", Title: "Talks - John Smith | 2020"},
	}}
	runner, _ := newTestRunner(t, source, &stubTranscriber{text: "transcript body"}, &stubIndexer{})

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(source.dirs) != 2 {
		t.Fatalf("expected 2 download dirs, got %v", source.dirs)
	}
	assertDirsRemoved(t, source.dirs)
}

func TestRun_RemovesTempDirsOnTranscribeFailure(t *testing.T) {
	source := &stubSource{entries: []youtube.Entry{
		{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
	}}
	runner, _ := newTestRunner(t, source, &stubTranscriber{err: errors.New("model overloaded")}, &stubIndexer{})

	runner.Run(context.Background(), Options{PlaylistURL: "https://playlist"})

	if len(source.dirs) != 1 {
		t.Fatalf("expected 1 download dir, got %v", source.dirs)
	}
	assertDirsRemoved(t, source.dirs)
}

func TestRun_MaxVideosTruncates(t *testing.T) {
	source := &stubSource{entries: []youtube.Entry{
		{URL: "https://youtu.be/1", Title: "Talks - Jane Doe | 2021"},
		{URL: "https://youtu.be/2", Title: "Talks - John Smith | 2020"},
		{URL: "https://youtu.be/3", Title: "Talks - Mary Major | 2019"},
	}}
	runner, _ := newTestRunner(t, source, &stubTranscriber{text: "transcript body"}, &stubIndexer{})

	result := runner.Run(context.Background(), Options{PlaylistURL: "https://playlist", MaxVideos: 2})

	if result.ProcessedVideos != 2 {
		t.Errorf("expected 2 processed videos, got %d", result.ProcessedVideos)
	}
	if len(result.TranscriptionFiles) != 2 {
		t.Errorf("expected 2 file entries, got %v", result.TranscriptionFiles)
	}
}
