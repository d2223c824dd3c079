package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/opsmind-ai/kb-gateway/config"
	"github.com/opsmind-ai/kb-gateway/types"
)

// payload field holding the JSON-encoded entry. A handful of scalar fields
// are duplicated alongside it for easier inspection in the Qdrant console.
const entryPayloadField = "entry"

// QdrantStore implements VectorStore on a Qdrant server over gRPC. One Qdrant
// collection per knowledge base collection, cosine distance.
type QdrantStore struct {
	client *qdrant.Client
	logger *zap.Logger
}

func NewQdrantStore(cfg config.QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantStore{client: client, logger: logger}, nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return storeErr("check collection", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// A concurrent request may have created it between the existence
		// check and the create call.
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		if again, checkErr := s.client.CollectionExists(ctx, name); checkErr == nil && again {
			return nil
		}
		return storeErr("create collection", err)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := json.Marshal(p.Entry)
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", p.ID, err)
		}
		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				entryPayloadField: string(payload),
				"title":           p.Entry.Title,
				"kb_type":         string(p.Entry.KBType),
				"category":        string(p.Entry.Category),
			}),
		})
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return storeErr("upsert", err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, topK int, minScore float32) ([]Hit, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, storeErr("check collection", err)
	}
	if !exists {
		return nil, nil
	}

	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if minScore > -1 {
		req.ScoreThreshold = qdrant.PtrOf(minScore)
	}
	scored, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, storeErr("search", err)
	}

	// Qdrant returns points ordered by descending score already.
	hits := make([]Hit, 0, len(scored))
	for _, point := range scored {
		entry, ok := s.decodeEntry(point.Payload)
		if !ok {
			s.logger.Warn("skipping point with undecodable payload",
				zap.String("collection", collection),
				zap.String("id", point.Id.GetUuid()))
			continue
		}
		hits = append(hits, Hit{
			ID:    point.Id.GetUuid(),
			Score: point.Score,
			Entry: entry,
		})
	}
	return hits, nil
}

func (s *QdrantStore) Get(ctx context.Context, collection string, id string) (*Hit, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, storeErr("check collection", err)
	}
	if !exists {
		return nil, nil
	}
	retrieved, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, storeErr("get", err)
	}
	if len(retrieved) == 0 {
		return nil, nil
	}
	entry, ok := s.decodeEntry(retrieved[0].Payload)
	if !ok {
		return nil, nil
	}
	return &Hit{ID: id, Entry: entry}, nil
}

func (s *QdrantStore) DeletePoint(ctx context.Context, collection string, id string) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return storeErr("check collection", err)
	}
	if !exists {
		return nil
	}
	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return storeErr("delete point", err)
	}
	return nil
}

func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	err := s.client.DeleteCollection(ctx, name)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return storeErr("delete collection", err)
	}
	return nil
}

func (s *QdrantStore) ListCollections(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, storeErr("list collections", err)
	}
	matched := make([]string, 0, len(names))
	for _, name := range names {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

func (s *QdrantStore) Count(ctx context.Context, collection string) (int, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return 0, storeErr("check collection", err)
	}
	if !exists {
		return 0, nil
	}
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, storeErr("count", err)
	}
	return int(count), nil
}

// decodeEntry defensively unmarshals the entry payload; unknown fields are
// ignored, malformed payloads are skipped rather than crashing a search.
func (s *QdrantStore) decodeEntry(payload map[string]*qdrant.Value) (*types.KnowledgeBaseEntry, bool) {
	raw, ok := payload[entryPayloadField]
	if !ok {
		return nil, false
	}
	var entry types.KnowledgeBaseEntry
	if err := json.Unmarshal([]byte(raw.GetStringValue()), &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: qdrant %s: %v", types.ErrStoreUnavailable, op, err)
}
