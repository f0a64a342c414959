package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/desi_occasions/internal/models"
)

const vendorMapping = `{
  "mappings": {
    "properties": {
      "id":                  {"type": "keyword"},
      "slug":                {"type": "keyword"},
      "name":                {"type": "text"},
      "city":                {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "categories":          {"type": "text"},
      "supported_occasions": {"type": "keyword"},
      "dietary_tags":        {"type": "keyword"},
      "is_featured":         {"type": "boolean"}
    }
  }
}`

type vendorDoc struct {
	ID                 string   `json:"id"`
	Slug               string   `json:"slug"`
	Name               string   `json:"name"`
	City               string   `json:"city"`
	Categories         []string `json:"categories"`
	SupportedOccasions []string `json:"supported_occasions"`
	DietaryTags        []string `json:"dietary_tags"`
	IsFeatured         bool     `json:"is_featured"`
}

// VendorIndex keeps a searchable copy of vendor storefronts.
type VendorIndex struct {
	Client *elasticsearch.Client
	Index  string
}

func (x *VendorIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.Client.Indices.Exists([]string{x.Index}, x.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = x.Client.Indices.Create(x.Index,
		x.Client.Indices.Create.WithContext(ctx),
		x.Client.Indices.Create.WithBody(strings.NewReader(vendorMapping)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

func (x *VendorIndex) IndexVendor(ctx context.Context, v *models.Vendor) error {
	doc := vendorDoc{
		ID:                 v.ID.String(),
		Slug:               v.Slug,
		Name:               v.Name,
		City:               v.City,
		Categories:         v.Categories,
		SupportedOccasions: v.SupportedOccasions,
		DietaryTags:        v.DietaryTags,
		IsFeatured:         v.IsFeatured,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	res, err := x.Client.Index(x.Index, &buf,
		x.Client.Index.WithContext(ctx),
		x.Client.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.Status(), res.Body)
	}
	return nil
}

// SearchVendorIDs returns ids of vendors matching query, best match first.
func (x *VendorIndex) SearchVendorIDs(ctx context.Context, query string, size int) ([]uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "city", "categories"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := x.Client.Search(
		x.Client.Search.WithContext(ctx),
		x.Client.Search.WithIndex(x.Index),
		x.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source vendorDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("elasticsearch decode: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := uuid.Parse(h.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
