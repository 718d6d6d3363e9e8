package semantic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/engine/domain"
)

// QdrantMirror copies appended records into a Qdrant collection so
// external tooling can inspect the crawl corpus. Retrieval never reads
// from the mirror; the aligned in-memory sequences stay authoritative.
type QdrantMirror struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

var _ Mirror = (*QdrantMirror)(nil)

// NewQdrantMirror connects to Qdrant at the given gRPC address.
func NewQdrantMirror(addr, collection string) (*QdrantMirror, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &QdrantMirror{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (m *QdrantMirror) Close() error {
	return m.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist.
func (m *QdrantMirror) EnsureCollection(ctx context.Context, dims int) error {
	list, err := m.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == m.collection {
			return nil
		}
	}

	d := uint64(dims)
	_, err = m.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: m.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     d,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", m.collection, err)
	}
	return nil
}

// Upsert writes one document and its embedding as a Qdrant point. Point
// IDs are deterministic on (url, chunk index, source) so re-crawls
// overwrite rather than duplicate.
func (m *QdrantMirror) Upsert(ctx context.Context, doc domain.Document, embedding []float32) error {
	seed := fmt.Sprintf("%s-%d-%s", doc.URL, doc.ChunkIndex, doc.Source)
	pointID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String()

	payload := map[string]*pb.Value{
		"url":         {Kind: &pb.Value_StringValue{StringValue: doc.URL}},
		"title":       {Kind: &pb.Value_StringValue{StringValue: doc.Title}},
		"content":     {Kind: &pb.Value_StringValue{StringValue: doc.Content}},
		"source":      {Kind: &pb.Value_StringValue{StringValue: doc.Source}},
		"chunk_index": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(doc.ChunkIndex)}},
	}

	wait := true
	_, err := m.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: m.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: embedding},
				},
			},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert point for %s: %w", doc.URL, err)
	}
	return nil
}
