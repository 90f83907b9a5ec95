package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

const (
	STable = "TABLE"
	STs    = "TS"
)

func pkTable(name string) string { return fmt.Sprintf("%s#%s", STable, name) }

// skRecord sorts lexically by time: the nanosecond timestamp is zero-padded to 20 digits.
func skRecord(unixNano int64, id string) string {
	return fmt.Sprintf("%s#%020d#%s", STs, unixNano, id)
}

func skPrefix() string { return STs + "#" }

// createTableIfNotExists creates the single table used for every logical record table.
// An existing table is not an error. When DescribeTable itself is refused the table is
// assumed to exist, so a role limited to item access can still use a pre-provisioned table.
func createTableIfNotExists(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &table})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("describe table %s: %w", table, err)
	}
	var nf *ddbTypes.ResourceNotFoundException
	if !errors.As(err, &nf) {
		log.WithError(err).WithField("table", table).Warn("Could not describe DynamoDB table, assuming it exists")
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: awsString("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: awsString("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: awsString("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: awsString("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	var re *ddbTypes.ResourceInUseException
	if err != nil && !errors.As(err, &re) {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	if err == nil {
		log.WithField("table", table).Info("Created DynamoDB table")
	}
	return nil
}

func awsString(s string) *string { return &s }
