package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"mainford/internal/core/ports"
	"mainford/internal/shared/config"
)

// uploader implements ports.MediaStorage against the Cloudinary
// unsigned upload endpoint.
type uploader struct {
	cfg    config.CloudinaryConfig
	client *http.Client
	log    zerolog.Logger
}

var _ ports.MediaStorage = (*uploader)(nil)

// NewUploader creates the Cloudinary-backed image store.
func NewUploader(cfg config.CloudinaryConfig, baseLogger *zerolog.Logger) ports.MediaStorage {
	return &uploader{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    baseLogger.With().Str("component", "cloudinary").Logger(),
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the image and returns its public URL. The request
// blocks until the object-storage round trip completes.
func (u *uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.WriteField("upload_preset", u.cfg.UploadPreset); err != nil {
		return "", err
	}
	if err := writer.WriteField("folder", "uploads"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", u.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		u.log.Error().Err(err).Msg("Upload request failed")
		return "", err
	}
	defer resp.Body.Close()

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("could not decode upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		u.log.Error().Int("status", resp.StatusCode).Str("message", parsed.Error.Message).Msg("Upload rejected")
		return "", fmt.Errorf("upload failed: %s", parsed.Error.Message)
	}

	return parsed.SecureURL, nil
}
