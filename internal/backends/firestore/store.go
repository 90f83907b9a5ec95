package firestore

import (
	"conncheck/internal/ports"
	"conncheck/internal/types"
	"context"
	"maps"

	gcfs "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const TimestampField = "timestamp"

var _ ports.DocumentStore = (*DocumentStore)(nil)

// NewClient initializes a Firebase app from the service account and returns its Firestore client.
func NewClient(ctx context.Context, cfg types.FirebaseConfig) (*gcfs.Client, error) {
	creds, err := cfg.CredentialsJSON()
	if err != nil {
		return nil, err
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, err
	}
	return app.Firestore(ctx)
}

type DocumentStore struct {
	cli *gcfs.Client
}

func NewDocumentStore(cli *gcfs.Client) *DocumentStore {
	return &DocumentStore{cli: cli}
}

// SetDocument overwrites the document; the timestamp field is assigned by the server.
func (s *DocumentStore) SetDocument(ctx context.Context, ref types.DocRef, fields map[string]any) (types.WriteResult, error) {
	data := maps.Clone(fields)
	if data == nil {
		data = map[string]any{}
	}
	data[TimestampField] = gcfs.ServerTimestamp
	wr, err := s.cli.Collection(ref.Collection).Doc(ref.ID).Set(ctx, data)
	if err != nil {
		return types.WriteResult{}, err
	}
	msg, _ := fields["message"].(string)
	return types.WriteResult{
		Path:       ref.Path(),
		Message:    msg,
		UpdateTime: wr.UpdateTime,
	}, nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, ref types.DocRef) (types.Document, error) {
	snap, err := s.cli.Collection(ref.Collection).Doc(ref.ID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Document{Path: ref.Path()}, nil
		}
		return types.Document{}, err
	}
	if !snap.Exists() {
		return types.Document{Path: ref.Path()}, nil
	}
	return types.Document{Path: ref.Path(), Exists: true, Data: snap.Data()}, nil
}

func (s *DocumentStore) Close() error {
	return s.cli.Close()
}
