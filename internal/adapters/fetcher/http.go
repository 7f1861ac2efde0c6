package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
)

// ErrNotArray возвращается, когда документ контента — не JSON-массив.
var ErrNotArray = errors.New("документ контента не является JSON-массивом")

// HTTPFetcher загружает канонический документ контента по HTTP.
// Одна попытка без ретраев: любой отказ отдаётся загрузчику, который
// переключится на fallback-комплект.
type HTTPFetcher struct {
	client *http.Client
	url    string
}

var _ domain.ContentFetcher = (*HTTPFetcher)(nil)

// NewHTTP создаёт фетчер документа контента.
func NewHTTP(url string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// FetchContent выполняет запрос и разбирает ответ.
func (f *HTTPFetcher) FetchContent(ctx context.Context) ([]domain.ContentItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос контента: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("контент: HTTP %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("чтение ответа: %w", err)
	}
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("[")) {
		return nil, ErrNotArray
	}
	var items []domain.ContentItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("разбор контента: %w", err)
	}
	return items, nil
}
