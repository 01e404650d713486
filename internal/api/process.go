package api

import (
	"encoding/json"
	"net/http"

	"github.com/coachhq/coachd/internal/pipeline"
)

// process handles POST /process: runs the full playlist-to-index pipeline
// synchronously and returns its result record. Failure results are still
// reported with a 200; the result's success flag carries the outcome.
func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}
	if opts.PlaylistURL == "" {
		opts.PlaylistURL = s.playlistURL
	}
	if opts.PlaylistURL == "" {
		writeError(w, http.StatusBadRequest, "playlist_url is required")
		return
	}

	s.logger.Info("pipeline run requested",
		"playlist_url", opts.PlaylistURL,
		"max_videos", opts.MaxVideos,
	)

	result := s.runner.Run(r.Context(), opts)
	writeJSON(w, http.StatusOK, result)
}
