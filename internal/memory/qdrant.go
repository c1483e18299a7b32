package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/embeddings"
)

const (
	defaultSearchLimit = 5
	scrollLimit        = 256
)

// pointsClient is the subset of *qdrant.Client used by QdrantService.
type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
}

// QdrantConfig locates the qdrant gRPC endpoint and collection.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	VectorSize int
}

// QdrantService stores memories as embedded points in one qdrant collection,
// filtered per user by the user_id payload field.
type QdrantService struct {
	client     pointsClient
	embedder   embeddings.Embedder
	collection string
	now        func() time.Time
	logger     *slog.Logger
}

// NewQdrantClient dials qdrant.
func NewQdrantClient(cfg QdrantConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return client, nil
}

// NewQdrantService creates the service and ensures the collection exists.
func NewQdrantService(ctx context.Context, log *slog.Logger, client pointsClient, embedder embeddings.Embedder, cfg QdrantConfig) (*QdrantService, error) {
	if log == nil {
		log = slog.Default()
	}
	if client == nil || embedder == nil {
		return nil, fmt.Errorf("%w: qdrant client and embedder are required", ErrMemoryService)
	}
	s := &QdrantService{
		client:     client,
		embedder:   embedder,
		collection: cfg.Collection,
		now:        time.Now,
		logger:     log.With(slog.String("service", "memory_qdrant")),
	}
	size := cfg.VectorSize
	if size <= 0 {
		size = embedder.Dimensions()
	}
	if err := s.ensureCollection(ctx, uint64(size)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *QdrantService) ensureCollection(ctx context.Context, size uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: check collection: %v", ErrMemoryService, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("%w: create collection %s: %v", ErrMemoryService, s.collection, err)
	}
	s.logger.Info("memory collection ready", slog.String("collection", s.collection), slog.Uint64("size", size))
	return nil
}

func (s *QdrantService) Add(ctx context.Context, userID string, messages []Message) ([]Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrMemoryService)
	}
	now := s.now()
	points := make([]*qdrant.PointStruct, 0, len(messages))
	items := make([]Item, 0, len(messages))
	for _, msg := range messages {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: embed: %v", ErrMemoryService, err)
		}
		id := pointID(userID, text)
		payload := buildPayload(userID, msg, now)
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(payload),
		})
		items = append(items, payloadToItem(id, payload))
	}
	if len(points) == 0 {
		return nil, nil
	}
	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return nil, fmt.Errorf("%w: upsert: %v", ErrMemoryService, err)
	}
	return items, nil
}

func (s *QdrantService) Search(ctx context.Context, userID, query string, limit int) ([]Item, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrMemoryService, err)
	}
	lim := uint64(limit)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &lim,
		Filter:         userFilter(userID),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrMemoryService, err)
	}
	items := make([]Item, 0, len(hits))
	for _, hit := range hits {
		item := payloadToItem(pointIDString(hit.GetId()), valueMapToAny(hit.GetPayload()))
		if item.Memory == "" {
			continue
		}
		item.Score = float64(hit.GetScore())
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	return items, nil
}

func (s *QdrantService) GetAll(ctx context.Context, userID string) ([]Item, error) {
	lim := uint32(scrollLimit)
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         userFilter(userID),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scroll: %v", ErrMemoryService, err)
	}
	items := make([]Item, 0, len(points))
	for _, p := range points {
		items = append(items, payloadToItem(pointIDString(p.GetId()), valueMapToAny(p.GetPayload())))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })
	return items, nil
}

func (s *QdrantService) Delete(ctx context.Context, userID, id string) error {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("%w: get: %v", ErrMemoryService, err)
	}
	if len(points) == 0 || payloadToItem(id, valueMapToAny(points[0].GetPayload())).UserID != userID {
		return ErrMemoryNotFound
	}
	wait := true
	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	}); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrMemoryService, err)
	}
	return nil
}

func (s *QdrantService) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: health check: %v", ErrMemoryService, err)
	}
	return nil
}

func userFilter(userID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("user_id", userID),
		},
	}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprint(id.GetNum())
}

func valueMapToAny(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch {
		case v == nil:
		case v.GetStringValue() != "":
			out[k] = v.GetStringValue()
		case v.GetIntegerValue() != 0:
			out[k] = v.GetIntegerValue()
		case v.GetDoubleValue() != 0:
			out[k] = v.GetDoubleValue()
		case v.GetBoolValue():
			out[k] = true
		}
	}
	return out
}
