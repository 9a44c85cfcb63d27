// Package semantic provides a Qdrant-backed search.Index.
package semantic

import (
	"context"
	"fmt"

	"github.com/lumenplaces/search/engine/search"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// VectorStore owns all Qdrant operations for one collection.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients builds a VectorStore over existing clients. Close is a no-op.
func NewWithClients(points pointsAPI, collections collectionsAPI, collection string) *VectorStore {
	return &VectorStore{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// EnsureCollection creates the collection with cosine distance if it doesn't exist.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return nil
		}
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}
	return nil
}

// DeleteCollection deletes the collection.
func (v *VectorStore) DeleteCollection(ctx context.Context) error {
	_, err := v.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: v.collection})
	if err != nil {
		return fmt.Errorf("semantic: delete collection %s: %w", v.collection, err)
	}
	return nil
}

// Upsert stores place records. Used by cmd/loader.
func (v *VectorStore) Upsert(ctx context.Context, records []PlaceRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: encodePayload(r.Metadata),
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// Query implements search.Index.
func (v *VectorStore) Query(ctx context.Context, vector []float32, topK int) ([]search.Match, error) {
	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	matches := make([]search.Match, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		matches[i] = search.Match{
			ID:       r.GetId().GetUuid(),
			Score:    r.GetScore(),
			Metadata: decodePayload(r.GetPayload()),
		}
	}
	return matches, nil
}

func encodePayload(md search.Metadata) map[string]*pb.Value {
	tags := make([]*pb.Value, len(md.Tags))
	for i, t := range md.Tags {
		tags[i] = stringValue(t)
	}
	return map[string]*pb.Value{
		keyTitle:    stringValue(md.Title),
		keyText:     stringValue(md.Text),
		keyTags:     {Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: tags}}},
		keyAddress:  stringValue(md.Address),
		keyImageURL: stringValue(md.ImageURL),
		keyURL:      stringValue(md.URL),
	}
}

func decodePayload(p map[string]*pb.Value) search.Metadata {
	md := search.Metadata{
		Title:    p[keyTitle].GetStringValue(),
		Text:     p[keyText].GetStringValue(),
		Address:  p[keyAddress].GetStringValue(),
		ImageURL: p[keyImageURL].GetStringValue(),
		URL:      p[keyURL].GetStringValue(),
	}
	for _, item := range p[keyTags].GetListValue().GetValues() {
		if s, ok := item.GetKind().(*pb.Value_StringValue); ok {
			md.Tags = append(md.Tags, s.StringValue)
		}
	}
	return md
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
