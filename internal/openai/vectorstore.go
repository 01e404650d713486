package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type ChunkingConfig struct {
	MaxChunkSizeTokens int
	ChunkOverlapTokens int
}

// FileCounts reports per-state file totals for an upload batch.
type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// BatchStatus is the terminal state of a vector store file batch.
type BatchStatus struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	FileCounts FileCounts `json:"file_counts"`
}

type vectorStoreRequest struct {
	Name             string           `json:"name"`
	ChunkingStrategy chunkingStrategy `json:"chunking_strategy"`
}

type chunkingStrategy struct {
	Type   string         `json:"type"`
	Static staticChunking `json:"static"`
}

type staticChunking struct {
	MaxChunkSizeTokens int `json:"max_chunk_size_tokens"`
	ChunkOverlapTokens int `json:"chunk_overlap_tokens"`
}

// CreateVectorStore creates a named collection with a static chunking
// configuration and returns its identifier.
func (c *Client) CreateVectorStore(ctx context.Context, name string, chunking ChunkingConfig) (string, error) {
	reqBody := vectorStoreRequest{
		Name: name,
		ChunkingStrategy: chunkingStrategy{
			Type: "static",
			Static: staticChunking{
				MaxChunkSizeTokens: chunking.MaxChunkSizeTokens,
				ChunkOverlapTokens: chunking.ChunkOverlapTokens,
			},
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/vector_stores", reqBody, &resp); err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create vector store: empty id in response")
	}
	return resp.ID, nil
}

// UploadFile uploads one document blob for later attachment to a vector store
// and returns the file identifier.
func (c *Client) UploadFile(ctx context.Context, filename string, contents io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return "", fmt.Errorf("copy file contents: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("upload file %s: %w", filename, err)
	}
	return resp.ID, nil
}

// UploadBatch attaches previously uploaded files to a vector store as one
// batch and blocks until the remote service reports a terminal status.
func (c *Client) UploadBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (*BatchStatus, error) {
	reqBody := map[string]any{"file_ids": fileIDs}

	var batch BatchStatus
	path := fmt.Sprintf("/vector_stores/%s/file_batches", vectorStoreID)
	if err := c.postJSON(ctx, path, reqBody, &batch); err != nil {
		return nil, fmt.Errorf("create file batch: %w", err)
	}

	for batch.Status == "in_progress" {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		statusPath := fmt.Sprintf("/vector_stores/%s/file_batches/%s", vectorStoreID, batch.ID)
		if err := c.getJSON(ctx, statusPath, &batch); err != nil {
			return nil, fmt.Errorf("poll file batch: %w", err)
		}
	}
	return &batch, nil
}
