package database

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/config"
	"github.com/opsmind-ai/kb-gateway/types"
)

// WeaviateStore implements VectorStore on a Weaviate instance, one class per
// knowledge base collection with externally supplied vectors.
//
// Weaviate class names must match ^[A-Z][_0-9A-Za-z]*$, so raw collection
// names like "kb_tenant_acme-corp" cannot be used directly. The store derives
// a sanitized class name and round-trips the raw collection name through the
// class description, which ListCollections reads back.
type WeaviateStore struct {
	client *weaviate.Client
	logger *zap.Logger
}

func NewWeaviateStore(cfg config.WeaviateConfig, logger *zap.Logger) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	clientCfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		clientCfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return &WeaviateStore{client: client, logger: logger}, nil
}

func (s *WeaviateStore) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	className := weaviateClassName(name)
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return weaviateErr("check class", err)
	}
	if exists {
		return nil
	}
	classObj := &models.Class{
		Class:       className,
		Description: name,
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "entry", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "kbType", DataType: []string{"text"}},
			{Name: "category", DataType: []string{"text"}},
		},
		VectorIndexType:   "hnsw",
		VectorIndexConfig: map[string]interface{}{"distance": "cosine"},
	}
	err = s.client.Schema().ClassCreator().WithClass(classObj).Do(ctx)
	if err != nil {
		// Tolerate the duplicate-create race on first access.
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		if again, checkErr := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx); checkErr == nil && again {
			return nil
		}
		return weaviateErr("create class", err)
	}
	return nil
}

func (s *WeaviateStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	className := weaviateClassName(collection)
	objects := make([]*models.Object, 0, len(points))
	for _, p := range points {
		payload, err := json.Marshal(p.Entry)
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", p.ID, err)
		}
		objects = append(objects, &models.Object{
			ID:    strfmt.UUID(p.ID),
			Class: className,
			Properties: map[string]interface{}{
				"entry":    string(payload),
				"title":    p.Entry.Title,
				"kbType":   string(p.Entry.KBType),
				"category": string(p.Entry.Category),
			},
			Vector: p.Vector,
		})
	}
	// The batcher performs an upsert per object id.
	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return weaviateErr("batch upsert", err)
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return weaviateErr("batch upsert", fmt.Errorf("%s", r.Result.Errors.Error[0].Message))
		}
	}
	return nil
}

func (s *WeaviateStore) Search(ctx context.Context, collection string, vector []float32, topK int, minScore float32) ([]Hit, error) {
	className := weaviateClassName(collection)
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return nil, weaviateErr("check class", err)
	}
	if !exists {
		return nil, nil
	}

	fields := []graphql.Field{
		{Name: "entry"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
	}
	// Cosine distance in Weaviate is 1 - cosine similarity.
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithDistance(1 - minScore)
	result, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, weaviateErr("search", err)
	}
	if len(result.Errors) > 0 {
		return nil, weaviateErr("search", fmt.Errorf("%s", result.Errors[0].Message))
	}

	// Weaviate orders by ascending distance, i.e. descending similarity.
	var hits []Hit
	getData, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	items, ok := getData[className].([]interface{})
	if !ok {
		return nil, nil
	}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entryJSON, _ := obj["entry"].(string)
		var entry types.KnowledgeBaseEntry
		if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
			s.logger.Warn("skipping object with undecodable entry payload",
				zap.String("collection", collection))
			continue
		}
		hit := Hit{Entry: &entry}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				hit.ID = id
			}
			if distance, ok := additional["distance"].(float64); ok {
				hit.Score = 1 - float32(distance)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *WeaviateStore) Get(ctx context.Context, collection string, id string) (*Hit, error) {
	className := weaviateClassName(collection)
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return nil, weaviateErr("check class", err)
	}
	if !exists {
		return nil, nil
	}
	objects, err := s.client.Data().ObjectsGetter().
		WithClassName(className).
		WithID(id).
		Do(ctx)
	if err != nil {
		// The client surfaces a 404 as an error; treat it as absent.
		if strings.Contains(err.Error(), "404") {
			return nil, nil
		}
		return nil, weaviateErr("get", err)
	}
	if len(objects) == 0 {
		return nil, nil
	}
	props, ok := objects[0].Properties.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	entryJSON, _ := props["entry"].(string)
	var entry types.KnowledgeBaseEntry
	if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
		return nil, nil
	}
	return &Hit{ID: id, Entry: &entry}, nil
}

func (s *WeaviateStore) DeletePoint(ctx context.Context, collection string, id string) error {
	className := weaviateClassName(collection)
	err := s.client.Data().Deleter().
		WithClassName(className).
		WithID(id).
		Do(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return nil
		}
		return weaviateErr("delete point", err)
	}
	return nil
}

func (s *WeaviateStore) DeleteCollection(ctx context.Context, name string) error {
	className := weaviateClassName(name)
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return weaviateErr("check class", err)
	}
	if !exists {
		return nil
	}
	if err := s.client.Schema().ClassDeleter().WithClassName(className).Do(ctx); err != nil {
		return weaviateErr("delete class", err)
	}
	return nil
}

func (s *WeaviateStore) ListCollections(ctx context.Context, prefix string) ([]string, error) {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return nil, weaviateErr("get schema", err)
	}
	var matched []string
	for _, class := range schema.Classes {
		// The raw collection name lives in the class description.
		if strings.HasPrefix(class.Description, prefix) {
			matched = append(matched, class.Description)
		}
	}
	return matched, nil
}

func (s *WeaviateStore) Count(ctx context.Context, collection string) (int, error) {
	className := weaviateClassName(collection)
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return 0, weaviateErr("check class", err)
	}
	if !exists {
		return 0, nil
	}
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, weaviateErr("count", err)
	}
	if len(result.Errors) > 0 {
		return 0, weaviateErr("count", fmt.Errorf("%s", result.Errors[0].Message))
	}
	aggData, ok := result.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	items, ok := aggData[className].([]interface{})
	if !ok || len(items) == 0 {
		return 0, nil
	}
	obj, ok := items[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := obj["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}

// weaviateClassName maps a raw collection name onto a valid Weaviate class
// name. When sanitization changes the name, a short hash suffix keeps
// distinct collection names from colliding ("acme-corp" vs "acme_corp").
func weaviateClassName(name string) string {
	sanitized := make([]byte, 0, len(name))
	changed := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			sanitized = append(sanitized, c)
		default:
			sanitized = append(sanitized, '_')
			changed = true
		}
	}
	out := string(sanitized)
	if out == "" || !(out[0] >= 'a' && out[0] <= 'z' || out[0] >= 'A' && out[0] <= 'Z') {
		out = "C" + out
		changed = true
	}
	if out[0] >= 'a' && out[0] <= 'z' {
		out = strings.ToUpper(out[:1]) + out[1:]
	}
	if changed {
		h := fnv.New32a()
		h.Write([]byte(name))
		out = fmt.Sprintf("%s_%08x", out, h.Sum32())
	}
	return out
}

func weaviateErr(op string, err error) error {
	return fmt.Errorf("%w: weaviate %s: %v", types.ErrStoreUnavailable, op, err)
}
