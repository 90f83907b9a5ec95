package ddb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/suite"
)

// fakeDynamo answers DescribeTable with a canned reply and records which operations were called.
type fakeDynamo struct {
	mu       sync.Mutex
	describe int    // HTTP status for DescribeTable
	errType  string // __type when describe is not 200
	calls    []string
}

func (f *fakeDynamo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := strings.TrimPrefix(r.Header.Get("X-Amz-Target"), "DynamoDB_20120810.")
	f.calls = append(f.calls, op)
	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	switch op {
	case "DescribeTable":
		if f.describe != http.StatusOK {
			w.WriteHeader(f.describe)
			_, _ = w.Write([]byte(`{"__type":"com.amazonaws.dynamodb.v20120810#` + f.errType + `","message":"denied or missing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"Table":{"TableName":"conncheck","TableStatus":"ACTIVE"}}`))
	case "CreateTable":
		_, _ = w.Write([]byte(`{"TableDescription":{"TableName":"conncheck","TableStatus":"CREATING"}}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"com.amazonaws.dynamodb.v20120810#UnknownOperationException"}`))
	}
}

func (f *fakeDynamo) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type TableUnitTestSuite struct {
	suite.Suite

	fake   *fakeDynamo
	server *httptest.Server
	cli    *dynamodb.Client
}

func TestTableUnitTestSuite(t *testing.T) {
	suite.Run(t, new(TableUnitTestSuite))
}

func (s *TableUnitTestSuite) SetupTest() {
	s.fake = &fakeDynamo{describe: http.StatusOK}
	s.server = httptest.NewServer(s.fake)
	s.cli = dynamodb.New(dynamodb.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(s.server.URL),
		Credentials:      credentials.NewStaticCredentialsProvider("x", "x", ""),
		RetryMaxAttempts: 1,
	})
}

func (s *TableUnitTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *TableUnitTestSuite) TestExistingTableIsNotCreated() {
	_, err := NewRecordStore(context.Background(), "conncheck", s.cli)
	s.NoError(err)
	s.Equal([]string{"DescribeTable"}, s.fake.Calls())
}

func (s *TableUnitTestSuite) TestDescribeDeniedAssumesTableExists() {
	s.fake.describe = http.StatusBadRequest
	s.fake.errType = "AccessDeniedException"
	_, err := NewRecordStore(context.Background(), "conncheck", s.cli)
	s.NoError(err)
	s.Equal([]string{"DescribeTable"}, s.fake.Calls())
}

func (s *TableUnitTestSuite) TestMissingTableIsCreated() {
	s.fake.describe = http.StatusBadRequest
	s.fake.errType = "ResourceNotFoundException"
	_, err := NewRecordStore(context.Background(), "conncheck", s.cli)
	s.NoError(err)
	s.Equal([]string{"DescribeTable", "CreateTable"}, s.fake.Calls())
}

func (s *TableUnitTestSuite) TestCanceledContextFails() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRecordStore(ctx, "conncheck", s.cli)
	s.Error(err)
}
