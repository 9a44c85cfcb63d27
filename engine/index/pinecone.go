// Package index adapts managed vector databases to search.Index.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenplaces/search/engine/search"
	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// queryConn is the subset of *pinecone.IndexConnection used here.
type queryConn interface {
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// Pinecone queries a single Pinecone index over gRPC.
type Pinecone struct {
	conn queryConn
	name string
}

// NewPinecone resolves the host of indexName and opens a long-lived
// connection to it. The returned value is safe for concurrent use.
func NewPinecone(ctx context.Context, apiKey, indexName, namespace string) (*Pinecone, error) {
	if apiKey == "" {
		return nil, errors.New("index: pinecone api key is required")
	}
	if indexName == "" {
		return nil, errors.New("index: pinecone index name is required")
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("index: pinecone client: %w", err)
	}
	desc, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("index: describe %s: %w", indexName, err)
	}
	conn, err := pc.Index(pinecone.NewIndexConnParams{Host: desc.Host, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("index: connect %s: %w", indexName, err)
	}
	return &Pinecone{conn: conn, name: indexName}, nil
}

// Close closes the index connection.
func (p *Pinecone) Close() error {
	return p.conn.Close()
}

// Query implements search.Index.
func (p *Pinecone) Query(ctx context.Context, vector []float32, topK int) ([]search.Match, error) {
	resp, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("index: query %s: %w", p.name, err)
	}

	matches := make([]search.Match, 0, len(resp.Matches))
	for _, sv := range resp.Matches {
		if sv == nil {
			continue
		}
		m := search.Match{Score: sv.Score}
		if sv.Vector != nil {
			m.ID = sv.Vector.Id
			m.Metadata = DecodeMetadata(sv.Vector.Metadata)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// DecodeMetadata reads the known place keys from a metadata struct.
// Missing keys, and keys holding a value of the wrong kind, stay empty.
func DecodeMetadata(s *structpb.Struct) search.Metadata {
	fields := s.GetFields()
	if len(fields) == 0 {
		return search.Metadata{}
	}
	return search.Metadata{
		Title:    fields["title"].GetStringValue(),
		Text:     fields["text"].GetStringValue(),
		Tags:     stringList(fields["tags"]),
		Address:  fields["address"].GetStringValue(),
		ImageURL: fields["image_url"].GetStringValue(),
		URL:      fields["url"].GetStringValue(),
	}
}

func stringList(v *structpb.Value) []string {
	values := v.GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, item := range values {
		if s, ok := item.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, s.StringValue)
		}
	}
	return out
}
