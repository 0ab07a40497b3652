package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"reelgen/internal/httpkit"
	"reelgen/internal/models"
	"reelgen/internal/pkg/errors"
	"reelgen/internal/ports"
	"reelgen/internal/worker/processor"
	"reelgen/internal/worker/util"
)

const (
	videoMime         = "video/mp4"
	downloadName      = "generated.mp4"
	defaultListLimit  = 50
	maxListLimit      = 200
	signedURLLifetime = 30 * time.Minute
)

// GenerateVideo runs the default plan and streams the result as a download.
// The temporary output is removed once the response is written.
func (h *Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	path, ok := h.gen.Generate(ctx, processor.Request{})
	if !ok {
		http.Error(w, "Video generation failed", http.StatusInternalServerError)
		return
	}
	defer h.removeOutput(ctx, path)

	f, err := os.Open(path)
	if err != nil {
		log.Error("generated video unreadable", "path", path, "error", err.Error())
		http.Error(w, "Video generation failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Error("generated video unreadable", "path", path, "error", err.Error())
		http.Error(w, "Video generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", videoMime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	http.ServeContent(w, r, downloadName, info.ModTime(), f)
}

// CreateVideo generates a video from an optional JSON plan, publishes it to
// storage and records it.
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	body, err := httpkit.ReadBody(w, r)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeBadRequest, "videos.create", "request body too large or unreadable")
	}

	req := processor.Request{JobID: util.NewID("job")}
	if len(bytes.TrimSpace(body)) > 0 {
		plan, err := processor.ParsePlan(body)
		if err != nil {
			return err
		}
		req.Plan = &plan
	}

	path, ok := h.gen.Generate(ctx, req)
	if !ok {
		return errors.New(errors.CodeRender, "video generation failed").WithField("job_id", req.JobID)
	}
	defer h.removeOutput(ctx, path)

	f, err := os.Open(path)
	if err != nil {
		return errors.ResourceFailed("videos.open_output", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.ResourceFailed("videos.stat_output", path, err)
	}

	videoID := util.NewID("vid")
	out, err := h.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   fmt.Sprintf("videos/%s.mp4", videoID),
		ContentType: videoMime,
		Reader:      f,
		Size:        info.Size(),
	})
	if err != nil {
		return errors.Wrap(err, "videos.publish", "storage put failed")
	}

	v := &models.Video{
		ID:        videoID,
		JobID:     req.JobID,
		Provider:  h.sp.Provider(),
		ObjectKey: out.ObjectKey,
		Mime:      videoMime,
		SizeBytes: out.Size,
	}
	if err := h.videos.Create(ctx, v); err != nil {
		if derr := h.sp.DeleteObject(ctx, out.ObjectKey); derr != nil {
			log.Warn("orphaned stored video", "object_key", out.ObjectKey, "error", derr.Error())
		}
		return errors.Wrap(err, "videos.record", "failed to record video")
	}

	log.Info("video published", "video_id", v.ID, "object_key", v.ObjectKey, "size_bytes", v.SizeBytes)
	httpkit.WriteJSON(w, http.StatusCreated, map[string]any{"video": v})
	return nil
}

// ListVideos returns the newest videos; ?limit= caps the count.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) error {
	limit := defaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxListLimit {
			return errors.ValidationField("limit", fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
		}
		limit = v
	}

	videos, err := h.videos.List(r.Context(), limit)
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"videos": videos})
	return nil
}

func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) error {
	v, err := h.videos.Get(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"video": v})
	return nil
}

// GetVideoURL returns a provider URL when one exists, otherwise the API
// content URL.
func (h *Handler) GetVideoURL(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	v, err := h.videos.Get(ctx, chi.URLParam(r, "videoId"))
	if err != nil {
		return err
	}

	signed, err := h.sp.GetSignedURL(ctx, v.ObjectKey, signedURLLifetime)
	if err != nil {
		return errors.Wrap(err, "videos.url", "failed to sign url")
	}
	if signed.URL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		signed.URL = fmt.Sprintf("%s://%s/videos/%s/content", scheme, r.Host, v.ID)
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{
		"video_id":   v.ID,
		"url":        signed.URL,
		"expires_at": signed.ExpiresAt,
	})
	return nil
}

// StreamVideo copies the stored object to the client.
func (h *Handler) StreamVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	v, err := h.videos.Get(ctx, chi.URLParam(r, "videoId"))
	if err != nil {
		return err
	}

	rc, ct, size, err := h.sp.GetObject(ctx, v.ObjectKey)
	if err != nil {
		return errors.Wrap(err, "videos.stream", "video file missing").WithField("object_key", v.ObjectKey)
	}
	defer rc.Close()

	if ct == "" {
		ct = v.Mime
	}
	if size <= 0 {
		size = v.SizeBytes
	}
	w.Header().Set("Content-Type", ct)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.FromContext(ctx).Warn("video stream interrupted", "video_id", v.ID, "error", err.Error())
	}
	return nil
}

// DeleteVideo removes the stored object and then the record. A stored object
// that is already gone is not an error.
func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	v, err := h.videos.Get(ctx, chi.URLParam(r, "videoId"))
	if err != nil {
		return err
	}

	if err := h.sp.DeleteObject(ctx, v.ObjectKey); err != nil && !errors.IsNotFound(err) {
		return errors.Wrap(err, "videos.delete", "storage delete failed").WithField("object_key", v.ObjectKey)
	}
	if err := h.videos.Delete(ctx, v.ID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) removeOutput(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.log.FromContext(ctx).Warn("failed to remove generated video", "path", path, "error", err.Error())
	}
}
