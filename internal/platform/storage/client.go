package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultSignedURLExpiry = 15 * time.Minute

var (
	errNoSigner      = errors.New("storage: signer is required")
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
)

// Client generates signed URLs backed by a Signer.
type Client struct {
	signer Signer
	now    func() time.Time
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithClock injects a custom clock, useful for tests.
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient constructs a new storage signed URL client.
func NewClient(signer Signer, opts ...ClientOption) (*Client, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	client := &Client{signer: signer, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SignedURLResult describes a generated signed URL.
type SignedURLResult struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// SignDownloadURL produces a time-limited GET URL for the given object.
func (c *Client) SignDownloadURL(ctx context.Context, bucket, object string, expiresIn time.Duration) (SignedURLResult, error) {
	return c.sign(ctx, bucket, object, http.MethodGet, "", expiresIn)
}

// SignUploadURL produces a time-limited PUT URL with the expected content type.
func (c *Client) SignUploadURL(ctx context.Context, bucket, object, contentType string, expiresIn time.Duration) (SignedURLResult, error) {
	if strings.TrimSpace(contentType) == "" {
		return SignedURLResult{}, errors.New("storage: content type is required for uploads")
	}
	return c.sign(ctx, bucket, object, http.MethodPut, contentType, expiresIn)
}

func (c *Client) sign(ctx context.Context, bucket, object, method, contentType string, expiresIn time.Duration) (SignedURLResult, error) {
	if c == nil || c.signer == nil {
		return SignedURLResult{}, errNoSigner
	}
	if strings.TrimSpace(bucket) == "" {
		return SignedURLResult{}, errInvalidBucket
	}
	if strings.TrimSpace(object) == "" {
		return SignedURLResult{}, errInvalidObject
	}
	if expiresIn <= 0 {
		expiresIn = defaultSignedURLExpiry
	}

	expires := c.now().UTC().Add(expiresIn)
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         method,
		GoogleAccessID: c.signer.Email(),
		Expires:        expires,
		ContentType:    contentType,
		SignBytes: func(payload []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, payload)
		},
	}

	url, err := storage.SignedURL(bucket, object, opts)
	if err != nil {
		return SignedURLResult{}, err
	}
	return SignedURLResult{URL: url, Method: method, ExpiresAt: expires}, nil
}
