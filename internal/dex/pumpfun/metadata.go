// =============================
// File: internal/dex/pumpfun/metadata.go
// =============================
package pumpfun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	metadataTTL     = 5 * time.Minute
	ipfsScheme      = "ipfs://"
	ipfsGateway     = "https://ipfs.io/ipfs/"
	maxMetadataSize = 1 << 20
)

type cachedMetadata struct {
	metadata  *TokenMetadata
	fetchedAt time.Time
}

// MetadataFetcher загружает JSON-метаданные токена по URI из CreateEvent
// и кэширует их на metadataTTL.
type MetadataFetcher struct {
	cache      sync.Map
	logger     *zap.Logger
	httpClient *http.Client
	ttl        time.Duration
}

func NewMetadataFetcher(logger *zap.Logger, httpClient *http.Client) *MetadataFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &MetadataFetcher{
		logger:     logger.Named("metadata"),
		httpClient: httpClient,
		ttl:        metadataTTL,
	}
}

// Fetch получает метаданные с кэшированием
func (f *MetadataFetcher) Fetch(ctx context.Context, uri string) (*TokenMetadata, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty metadata uri")
	}

	if metadata, ok := f.getFromCache(uri); ok {
		f.logger.Debug("token metadata retrieved from cache", zap.String("uri", uri))
		return metadata, nil
	}

	url := resolveURI(uri)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata endpoint returned status code: %d", resp.StatusCode)
	}

	var metadata TokenMetadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataSize)).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	f.cache.Store(uri, cachedMetadata{metadata: &metadata, fetchedAt: time.Now()})

	f.logger.Debug("token metadata retrieved",
		zap.String("uri", uri),
		zap.String("symbol", metadata.Symbol),
		zap.String("name", metadata.Name))

	return &metadata, nil
}

// getFromCache получает метаданные из кэша с проверкой TTL
func (f *MetadataFetcher) getFromCache(uri string) (*TokenMetadata, bool) {
	value, ok := f.cache.Load(uri)
	if !ok {
		return nil, false
	}
	entry := value.(cachedMetadata)
	if time.Since(entry.fetchedAt) < f.ttl {
		return entry.metadata, true
	}
	// Если данные устарели, удаляем их из кэша
	f.cache.Delete(uri)
	return nil, false
}

// resolveURI переводит ipfs:// ссылки на публичный шлюз.
func resolveURI(uri string) string {
	if strings.HasPrefix(uri, ipfsScheme) {
		return ipfsGateway + strings.TrimPrefix(uri, ipfsScheme)
	}
	return uri
}
