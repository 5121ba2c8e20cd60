package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references using Google Secret Manager with a
// process-local cache. It implements config.SecretResolver.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool
	logger     *zap.Logger

	defaultProject string

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	fetchedAt time.Time
}

type fetcherConfig struct {
	logger         *zap.Logger
	defaultProject string
	client         secretManagerClient
	clientOpts     []option.ClientOption
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) { cfg.logger = logger }
}

// WithDefaultProject configures the project ID used when the reference omits one.
func WithDefaultProject(projectID string) Option {
	return func(cfg *fetcherConfig) { cfg.defaultProject = strings.TrimSpace(projectID) }
}

// WithSecretManagerClient injects a preconfigured client, primarily for tests.
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(cfg *fetcherConfig) { cfg.client = client }
}

// WithClientOptions forwards options to the Secret Manager client constructor.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

// NewFetcher constructs a Fetcher, creating a Secret Manager client unless one
// was injected.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	fetcher := &Fetcher{
		client:         cfg.client,
		logger:         cfg.logger,
		defaultProject: cfg.defaultProject,
		cache:          make(map[string]cacheEntry),
	}

	if fetcher.client == nil {
		client, err := secretManagerClientFactory(ctx, cfg.clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("secrets: create client: %w", err)
		}
		fetcher.client = client
		fetcher.ownsClient = true
	}
	return fetcher, nil
}

// Close releases the underlying client when owned by the fetcher.
func (f *Fetcher) Close() error {
	if f == nil || !f.ownsClient || f.client == nil {
		return nil
	}
	return f.client.Close()
}

// ResolveSecret resolves a secret:// reference, caching results for the
// lifetime of the process.
func (f *Fetcher) ResolveSecret(ctx context.Context, ref string) (string, error) {
	parsed, err := f.parseReference(ref)
	if err != nil {
		return "", err
	}

	key := parsed.name()
	f.mu.RLock()
	entry, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		return entry.value, nil
	}

	start := time.Now()
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: key})
	if err != nil {
		f.logger.Warn("secrets: access secret version failed",
			zap.String("secret", parsed.secret),
			zap.Error(err),
		)
		return "", fmt.Errorf("secrets: access %s: %w", parsed.secret, err)
	}

	value := string(resp.GetPayload().GetData())
	f.mu.Lock()
	f.cache[key] = cacheEntry{value: value, fetchedAt: start}
	f.mu.Unlock()
	return value, nil
}

// Invalidate drops a cached secret so the next resolve refetches it.
func (f *Fetcher) Invalidate(ref string) {
	parsed, err := f.parseReference(ref)
	if err != nil {
		return
	}
	f.mu.Lock()
	delete(f.cache, parsed.name())
	f.mu.Unlock()
}

type parsedReference struct {
	project string
	secret  string
	version string
}

func (p parsedReference) name() string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", p.project, p.secret, p.version)
}

// parseReference accepts secret://[project/]name[?version=n] references.
func (f *Fetcher) parseReference(ref string) (parsedReference, error) {
	trimmed := strings.TrimSpace(ref)
	if !strings.HasPrefix(trimmed, "secret://") {
		return parsedReference{}, fmt.Errorf("secrets: unsupported reference %q", maskReference(ref))
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return parsedReference{}, fmt.Errorf("secrets: parse reference: %w", err)
	}

	out := parsedReference{version: "latest"}
	path := strings.Trim(parsed.Path, "/")
	if parsed.Host != "" && path != "" {
		out.project = parsed.Host
		out.secret = path
	} else {
		out.project = f.defaultProject
		out.secret = parsed.Host
		if path != "" {
			out.secret = path
		}
	}
	if version := parsed.Query().Get("version"); version != "" {
		out.version = version
	}

	if out.project == "" {
		return parsedReference{}, errors.New("secrets: project id missing and no default configured")
	}
	if out.secret == "" {
		return parsedReference{}, errors.New("secrets: secret name missing")
	}
	return out, nil
}

func maskReference(ref string) string {
	if len(ref) <= 12 {
		return ref
	}
	return ref[:12] + "..."
}
