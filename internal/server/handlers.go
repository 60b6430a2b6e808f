package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ledcanvas/internal/artifact"
	"ledcanvas/internal/models"
	"ledcanvas/internal/storage"
)

type imageView struct {
	ID              uuid.UUID              `json:"id"`
	Filename        string                 `json:"filename"`
	Width           int                    `json:"width"`
	Height          int                    `json:"height"`
	URL             string                 `json:"url"`
	DisplayName     *string                `json:"display_name"`
	ScrollDirection models.ScrollDirection `json:"scroll_direction"`
	ScrollSpeed     int                    `json:"scroll_speed"`
}

func (s *Server) view(c *gin.Context, a *models.Artifact) imageView {
	return imageView{
		ID:              a.ID,
		Filename:        a.Filename,
		Width:           a.Width,
		Height:          a.Height,
		URL:             fileURL(c, a.Filename),
		DisplayName:     a.DisplayName,
		ScrollDirection: a.ScrollDirection,
		ScrollSpeed:     a.ScrollSpeed,
	}
}

func fileURL(c *gin.Context, filename string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return fmt.Sprintf("%s://%s%s/%s", scheme, c.Request.Host, uploadsPath, filename)
}

// artifactOptions resolves the optional display target and scroll settings
// of an upload. An explicit display name wins over the profile's name.
func (s *Server) artifactOptions(displayIndex *int, displayName *string, direction string, speed int) (models.ArtifactOptions, *models.DisplayProfile, error) {
	dir, err := models.ParseScrollDirection(direction)
	if err != nil {
		return models.ArtifactOptions{}, nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if speed < 0 {
		return models.ArtifactOptions{}, nil, fmt.Errorf("%w: scroll_speed must not be negative", ErrBadRequest)
	}
	opts := models.ArtifactOptions{DisplayName: displayName, ScrollDirection: dir, ScrollSpeed: speed}

	if displayIndex == nil {
		return opts, nil, nil
	}
	profile, err := s.cfg.Display(*displayIndex)
	if err != nil {
		return models.ArtifactOptions{}, nil, err
	}
	if opts.DisplayName == nil {
		name := profile.Name
		opts.DisplayName = &name
	}
	return opts, &profile, nil
}

func optionalInt(field, v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, field)
	}
	return &n, nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (s *Server) handleUpload(c *gin.Context) {
	const op = "server.handleUpload"

	file, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request entity too large"})
			return
		}
		s.fail(c, fmt.Errorf("%s: %w", op, ErrNoFile))
		return
	}
	if file.Filename == "" {
		s.fail(c, fmt.Errorf("%s: %w: no selected file", op, ErrNoFile))
		return
	}

	displayIndex, err := optionalInt("display_index", c.PostForm("display_index"))
	if err != nil {
		s.fail(c, err)
		return
	}
	speed, err := optionalInt("scroll_speed", c.PostForm("scroll_speed"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var scrollSpeed int
	if speed != nil {
		scrollSpeed = *speed
	}
	var displayName *string
	if v := strings.TrimSpace(c.PostForm("display_name")); v != "" {
		displayName = &v
	}
	opts, display, err := s.artifactOptions(displayIndex, displayName, c.PostForm("scroll_direction"), scrollSpeed)
	if err != nil {
		s.fail(c, err)
		return
	}

	src, err := file.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("%s: %v", op, err))
		return
	}
	defer src.Close()

	img, err := artifact.Decode(src, s.cfg.MaxImagePixels)
	if err != nil {
		s.fail(c, fmt.Errorf("%s: %w", op, err))
		return
	}

	a, err := s.deps.Store.Persist(c.Request.Context(), artifact.PersistRequest{
		Image:   img,
		OwnerID: c.GetInt64(ownerKey),
		Prefix:  "upload_",
		Options: opts,
		Display: display,
	})
	if err != nil {
		s.fail(c, fmt.Errorf("%s: %w", op, err))
		return
	}

	s.publish(c.Request.Context(), a)
	c.JSON(http.StatusCreated, gin.H{"success": true, "image": s.view(c, a)})
}

type drawingRequest struct {
	Image           string  `json:"image"`
	DisplayName     *string `json:"display_name"`
	DisplayIndex    *int    `json:"display_index"`
	ScrollDirection string  `json:"scroll_direction"`
	ScrollSpeed     int     `json:"scroll_speed"`
}

func (s *Server) failDrawing(c *gin.Context, err error) {
	status := MapHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("save drawing failed", "error", err)
	}
	c.JSON(status, gin.H{"success": false, "error": userMessage(err)})
}

func (s *Server) handleSaveDrawing(c *gin.Context) {
	const op = "server.handleSaveDrawing"

	var req drawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "request entity too large"})
			return
		}
		s.failDrawing(c, fmt.Errorf("%s: %w: %v", op, ErrBadRequest, err))
		return
	}
	if req.Image == "" {
		s.failDrawing(c, fmt.Errorf("%s: %w: image required", op, ErrBadRequest))
		return
	}

	opts, display, err := s.artifactOptions(req.DisplayIndex, req.DisplayName, req.ScrollDirection, req.ScrollSpeed)
	if err != nil {
		s.failDrawing(c, err)
		return
	}

	img, err := artifact.DecodeDataURL(req.Image, s.cfg.MaxImagePixels)
	if err != nil {
		s.failDrawing(c, fmt.Errorf("%s: %w", op, err))
		return
	}

	a, err := s.deps.Store.Persist(c.Request.Context(), artifact.PersistRequest{
		Image:   img,
		OwnerID: c.GetInt64(ownerKey),
		Prefix:  "drawing_",
		Options: opts,
		Display: display,
		Async:   true,
	})
	if err != nil {
		s.failDrawing(c, fmt.Errorf("%s: %w", op, err))
		return
	}

	s.publish(c.Request.Context(), a)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": a.ID})
}

func (s *Server) handleListDisplays(c *gin.Context) {
	displays := s.cfg.Displays
	if displays == nil {
		displays = []models.DisplayProfile{}
	}
	c.JSON(http.StatusOK, gin.H{"displays": displays})
}

func (s *Server) handleListImages(c *gin.Context) {
	const op = "server.handleListImages"

	artifacts, err := s.deps.Repo.List(c.Request.Context())
	if err != nil {
		s.fail(c, fmt.Errorf("%s: %w", op, err))
		return
	}

	images := make([]imageView, 0, len(artifacts))
	for i := range artifacts {
		images = append(images, s.view(c, &artifacts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (s *Server) lookup(c *gin.Context) (*models.Artifact, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.fail(c, fmt.Errorf("%w: invalid id", ErrBadRequest))
		return nil, false
	}
	a, err := s.deps.Repo.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return a, true
}

func (s *Server) handleDownload(c *gin.Context) {
	a, ok := s.lookup(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusFound, uploadsPath+"/"+a.Filename)
}

// handleUploadedFile serves a stored artifact by file name.
func (s *Server) handleUploadedFile(c *gin.Context) {
	const op = "server.handleUploadedFile"

	path, err := s.deps.Blobs.Path(c.Param("filename"))
	if err != nil {
		s.fail(c, fmt.Errorf("%s: %w", op, err))
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		s.fail(c, fmt.Errorf("%s: %w", op, storage.ErrNotFound))
		return
	}
	c.File(path)
}

func (s *Server) handleImageRGB(c *gin.Context) {
	const op = "server.handleImageRGB"

	a, ok := s.lookup(c)
	if !ok {
		return
	}

	data, err := s.deps.Blobs.Read(c.Request.Context(), a.Filename)
	if err != nil {
		s.fail(c, fmt.Errorf("%s: %w", op, err))
		return
	}
	img, err := artifact.Decode(bytes.NewReader(data), s.cfg.MaxImagePixels)
	if err != nil {
		// A stored artifact that no longer decodes is a server fault.
		s.fail(c, fmt.Errorf("%s: %v", op, err))
		return
	}

	b := img.Bounds()
	c.JSON(http.StatusOK, gin.H{
		"width":            b.Dx(),
		"height":           b.Dy(),
		"display_name":     a.DisplayName,
		"scroll_direction": a.ScrollDirection,
		"scroll_speed":     a.ScrollSpeed,
		"pixels":           artifact.RGBPixels(img),
	})
}
