package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTTPStore uploads images to a Cloudinary-style unsigned upload endpoint:
// one multipart POST carrying the file, an upload preset and a target
// folder, answered with the durable URL.
type HTTPStore struct {
	endpoint string
	preset   string
	client   *http.Client
}

// NewHTTPStore builds an uploader against the given endpoint and preset.
func NewHTTPStore(endpoint, preset string) *HTTPStore {
	return &HTTPStore{
		endpoint: endpoint,
		preset:   preset,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Upload sends the local file and returns its durable URL. Durable
// references pass through untouched.
func (s *HTTPStore) Upload(ctx context.Context, localRef, folder string) (string, error) {
	if isDurable(localRef) {
		return localRef, nil
	}

	file, err := os.Open(localRef)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrUploadFailed, localRef, err)
	}
	defer file.Close()

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(localRef))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrUploadFailed, localRef, err)
	}
	if err := writer.WriteField("upload_preset", s.preset); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(body.String()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: endpoint returned %d", ErrUploadFailed, resp.StatusCode)
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}
	url := decoded.SecureURL
	if url == "" {
		url = decoded.URL
	}
	if url == "" {
		return "", fmt.Errorf("%w: response carried no url", ErrUploadFailed)
	}
	return url, nil
}

func isDurable(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}
