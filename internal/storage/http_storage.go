package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/image-filter-go/internal/errors"
	"github.com/anime-shed/image-filter-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// ImageFetcher retrieves the raw bytes of a remote image.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPImageFetcher implements ImageFetcher with a single GET per call
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPImageFetcher creates an HTTP image fetcher bounded by timeout and maxBytes.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64) *HTTPImageFetcher {
	// Transport tuned for single image downloads
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 16 << 10,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// Fetch issues one GET and returns the full body. Transport failures, non-2xx
// statuses and oversized bodies are reported as fetch errors; nothing is retried.
func (h *HTTPImageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid image request", err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Image-Filter/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchError("failed to fetch image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewFetchError(fmt.Sprintf("remote server returned status code %d", resp.StatusCode), nil)
	}
	if resp.ContentLength > h.maxBytes {
		return nil, apperrors.NewFetchError(
			fmt.Sprintf("image exceeds maximum size of %d bytes (content length %d)", h.maxBytes, resp.ContentLength), nil)
	}

	data, err := readLimited(resp.Body, h.maxBytes)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"url":          imageURL,
		"bytes":        len(data),
		"content_type": resp.Header.Get("Content-Type"),
	}).Debug("Image fetched")

	return data, nil
}

// readLimited reads r fully, failing once more than maxBytes arrive.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, apperrors.NewFetchError("failed to read image body", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperrors.NewFetchError(fmt.Sprintf("image exceeds maximum size of %d bytes", maxBytes), nil)
	}
	return data, nil
}
