package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
)

type Searcher interface {
	Search(ctx context.Context, query string, page, size int) (Page, error)
}

var ErrSearch = errors.New("search failed")

type ESConfig struct {
	URL       string
	User      string
	Password  string
	Transport http.RoundTripper
}

func NewESClient(cfg ESConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

// Ping checks the cluster answers its info endpoint.
func Ping(ctx context.Context, es *elasticsearch.Client) error {
	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return nil
}

type ESSearcher struct {
	ES    *elasticsearch.Client
	Index string
}

func (s *ESSearcher) Search(ctx context.Context, query string, page, size int) (Page, error) {
	from, limit := Calculate(page, size)
	page, _ = Normalize(page, size)

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Page{}, fmt.Errorf("%w: encode: %v", ErrSearch, err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Page{}, fmt.Errorf("%w: %s", ErrSearch, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Page{}, fmt.Errorf("%w: decode: %v", ErrSearch, err)
	}

	prods := make([]Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return newPage(prods, r.Hits.Total.Value, page, limit), nil
}
