package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/brewtab/cafe-backend/internal/models"
)

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.MenuItem, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: elasticsearch returned %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.MenuItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	items := make([]models.MenuItem, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		items[i] = hit.Source
	}
	return r.Hits.Total.Value, items, nil
}

// IndexMenuItem upserts one menu item document; CRUD handlers call it
// after every write so the index tracks the database.
func IndexMenuItem(ctx context.Context, es *elasticsearch.Client, index string, item *models.MenuItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("search: encode item: %w", err)
	}
	res, err := es.Index(
		index,
		bytes.NewReader(data),
		es.Index.WithDocumentID(fmt.Sprint(item.ID)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index item: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: elasticsearch returned %s", res.Status())
	}
	return nil
}

func DeleteMenuItem(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(index, fmt.Sprint(id), es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete item: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: elasticsearch returned %s", res.Status())
	}
	return nil
}
