package ddb

import (
	"conncheck/internal/ports"
	"conncheck/internal/types"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var _ ports.RecordStore = (*RecordStore)(nil)

// RecordStore keeps every logical table in one DynamoDB table:
// PK = TABLE#<name>, SK = TS#<unix-nano>#<id>, so a reverse Query gives newest first.
type RecordStore struct {
	table string
	cli   *dynamodb.Client
	now   func() time.Time
}

type recordItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	types.Record
}

func NewRecordStore(ctx context.Context, table string, cli *dynamodb.Client) (*RecordStore, error) {
	if err := createTableIfNotExists(ctx, cli, table); err != nil {
		return nil, err
	}
	return &RecordStore{table: table, cli: cli, now: time.Now}, nil
}

func (s *RecordStore) Insert(ctx context.Context, table string, rec types.Record) (types.Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	item, err := attributevalue.MarshalMap(recordItem{
		PK:     pkTable(table),
		SK:     skRecord(rec.CreatedAt.UnixNano(), rec.ID),
		Record: rec,
	})
	if err != nil {
		return types.Record{}, err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.table,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

func (s *RecordStore) Latest(ctx context.Context, table string, limit int) ([]types.Record, error) {
	out, err := s.cli.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: awsString("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: pkTable(table)},
			":sk": &ddbTypes.AttributeValueMemberS{Value: skPrefix()},
		},
		ScanIndexForward: awsBool(false),
		Limit:            awsInt32(int32(limit)),
		ConsistentRead:   awsBool(true),
	})
	if err != nil {
		return nil, err
	}
	recs := make([]types.Record, 0, len(out.Items))
	for _, item := range out.Items {
		var it recordItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, err
		}
		recs = append(recs, it.Record)
	}
	return recs, nil
}

func awsBool(b bool) *bool    { return &b }
func awsInt32(i int32) *int32 { return &i }
