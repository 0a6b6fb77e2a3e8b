package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/image-filter-go/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

type blobStreamFunc func(ctx context.Context, containerName, blobName string) (io.ReadCloser, error)

// BlobImageFetcher downloads images hosted on the configured Azure storage
// account through the authenticated SDK client instead of an anonymous GET.
type BlobImageFetcher struct {
	host     string
	stream   blobStreamFunc
	maxBytes int64
}

// NewBlobImageFetcher creates a fetcher for https://<account>.blob.core.windows.net URLs.
func NewBlobImageFetcher(accountName, accountKey string, maxBytes int64) (*BlobImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return newBlobImageFetcher(accountName, func(ctx context.Context, containerName, blobName string) (io.ReadCloser, error) {
		resp, err := client.DownloadStream(ctx, containerName, blobName, nil)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}, maxBytes), nil
}

func newBlobImageFetcher(accountName string, stream blobStreamFunc, maxBytes int64) *BlobImageFetcher {
	return &BlobImageFetcher{
		host:     strings.ToLower(accountName) + ".blob.core.windows.net",
		stream:   stream,
		maxBytes: maxBytes,
	}
}

// Handles reports whether imageURL points at this fetcher's storage account.
func (s *BlobImageFetcher) Handles(imageURL string) bool {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsedURL.Hostname(), s.host)
}

// Fetch downloads the blob addressed by https://<account>.blob.core.windows.net/<container>/<blob>.
func (s *BlobImageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	containerName, blobName, err := splitBlobURL(imageURL)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid blob URL", err)
	}

	body, err := s.stream(ctx, containerName, blobName)
	if err != nil {
		return nil, apperrors.NewFetchError("blob download failed", err)
	}
	defer body.Close()

	return readLimited(body, s.maxBytes)
}

func splitBlobURL(blobURL string) (string, string, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", err
	}

	containerName, blobName, found := strings.Cut(strings.TrimPrefix(parsedURL.Path, "/"), "/")
	if !found || containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("expected /<container>/<blob> path, got %q", parsedURL.Path)
	}
	return containerName, blobName, nil
}

// RoutingFetcher sends blob-account URLs to the blob fetcher and everything else over HTTP.
type RoutingFetcher struct {
	httpFetcher ImageFetcher
	blob        *BlobImageFetcher
}

// NewRoutingFetcher creates a RoutingFetcher; blob may be nil.
func NewRoutingFetcher(httpFetcher ImageFetcher, blob *BlobImageFetcher) *RoutingFetcher {
	return &RoutingFetcher{httpFetcher: httpFetcher, blob: blob}
}

func (r *RoutingFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	if r.blob != nil && r.blob.Handles(imageURL) {
		return r.blob.Fetch(ctx, imageURL)
	}
	return r.httpFetcher.Fetch(ctx, imageURL)
}
