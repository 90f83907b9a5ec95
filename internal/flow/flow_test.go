package flow

import (
	"conncheck/internal/types"
	"context"
	"errors"
	"strings"
	"time"
)

func (s *UnitTestSuite) TestSaveThenReadDocument() {
	ctx := context.Background()
	res, err := SaveDocument(ctx, s.docs, testDoc, "Hello Firebase!")
	s.NoError(err)
	s.Equal("test_connectivity/streamlit_test_doc", res.Path)
	s.Equal("Hello Firebase!", res.Message)
	s.False(res.UpdateTime.IsZero())

	doc, outcome, err := ReadDocument(ctx, s.docs, testDoc)
	s.NoError(err)
	s.Equal(Found, outcome)
	s.True(doc.Exists)
	s.Equal("Hello Firebase!", doc.Data["message"])
	s.Contains(doc.Data, "timestamp")
}

func (s *UnitTestSuite) TestReadDocumentBeforeWrite() {
	doc, outcome, err := ReadDocument(context.Background(), s.docs, testDoc)
	s.NoError(err)
	s.Equal(Empty, outcome)
	s.False(doc.Exists)
	s.Equal("info", BannerKind[outcome])
}

func (s *UnitTestSuite) TestSaveDocumentRejectsEmptyMessage() {
	_, err := SaveDocument(context.Background(), s.docs, testDoc, "")
	s.ErrorIs(err, types.ErrInvalidRecord)
}

func (s *UnitTestSuite) TestSaveDocumentPermissionDenied() {
	s.docs.FailWith(errors.New("PermissionDenied: Missing or insufficient permissions."))
	_, err := SaveDocument(context.Background(), s.docs, testDoc, "Hello Firebase!")
	s.ErrorIs(err, types.ErrOperation)
	s.Contains(err.Error(), "Missing or insufficient permissions.")

	// The store keeps working once the backend recovers.
	s.docs.FailWith(nil)
	_, err = SaveDocument(context.Background(), s.docs, testDoc, "Hello Firebase!")
	s.NoError(err)
}

func (s *UnitTestSuite) TestInsertThenReadLatest() {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.records.SetClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	})

	for i := 0; i < 6; i++ {
		_, err := InsertRecord(ctx, s.records, TestTableName, types.WriteRequest{Message: "older", Author: "Bot"})
		s.NoError(err)
	}
	rec, err := InsertRecord(ctx, s.records, TestTableName, types.WriteRequest{
		Message: "Hello Supabase from Streamlit!",
		Author:  "TestUser",
	})
	s.NoError(err)
	s.NotEmpty(rec.ID)
	s.Equal("TestUser", rec.Author)

	rows, outcome, err := ReadLatest(ctx, s.records, TestTableName, 5)
	s.NoError(err)
	s.Equal(Found, outcome)
	s.Len(rows, 5)
	s.Equal("Hello Supabase from Streamlit!", rows[0].Message)
	s.Equal("TestUser", rows[0].Author)
	for i := 1; i < len(rows); i++ {
		s.False(rows[i].CreatedAt.After(rows[i-1].CreatedAt), "rows must be newest first")
	}
}

func (s *UnitTestSuite) TestReadLatestEmptyTable() {
	rows, outcome, err := ReadLatest(context.Background(), s.records, TestTableName, 5)
	s.NoError(err)
	s.Equal(Empty, outcome)
	s.NotNil(rows)
	s.Empty(rows)
}

func (s *UnitTestSuite) TestInsertRecordValidation() {
	ctx := context.Background()
	_, err := InsertRecord(ctx, s.records, TestTableName, types.WriteRequest{Author: "TestUser"})
	s.ErrorIs(err, types.ErrInvalidRecord)

	_, err = InsertRecord(ctx, s.records, TestTableName, types.WriteRequest{
		Message: "hi",
		Author:  strings.Repeat("a", types.MaxAuthorLength+1),
	})
	s.ErrorIs(err, types.ErrInvalidRecord)

	rows, _, err := ReadLatest(ctx, s.records, TestTableName, 5)
	s.NoError(err)
	s.Empty(rows)
}

func (s *UnitTestSuite) TestInsertRecordBackendFailure() {
	s.records.FailWith(errors.New(`new row violates row-level security policy for table "messages"`))
	_, err := InsertRecord(context.Background(), s.records, TestTableName, types.WriteRequest{Message: "hi"})
	s.ErrorIs(err, types.ErrOperation)
	s.Contains(err.Error(), "row-level security")

	_, outcome, err := ReadLatest(context.Background(), s.records, TestTableName, 5)
	s.ErrorIs(err, types.ErrOperation)
	s.Equal(Failed, outcome)
}

func (s *UnitTestSuite) TestClampLimit() {
	s.Equal(types.DefaultReadLimit, ClampLimit(0))
	s.Equal(types.DefaultReadLimit, ClampLimit(-3))
	s.Equal(7, ClampLimit(7))
	s.Equal(types.MaxReadLimit, ClampLimit(types.MaxReadLimit+1))
}

type recordingPublisher struct {
	arn     string
	payload []byte
	err     error
}

func (p *recordingPublisher) PublishRaw(ctx context.Context, arn string, payload []byte) error {
	p.arn, p.payload = arn, payload
	return p.err
}

func (s *UnitTestSuite) TestNotifier() {
	SetTimeNowFn(func() time.Time { return time.Unix(1700000000, 0) })
	pub := &recordingPublisher{}
	n := &Notifier{Pub: pub, Arn: "arn:aws:sns:us-east-1:000000000000:writes"}
	n.WriteEvent(context.Background(), types.WriteEvent{Backend: "supabase", Target: "messages", Message: "hi"})
	s.Equal("arn:aws:sns:us-east-1:000000000000:writes", pub.arn)
	s.Contains(string(pub.payload), `"backend":"supabase"`)
	s.Contains(string(pub.payload), `"at":"2023-11-14T22:13:20Z"`)

	pub.err = errors.New("sns down")
	n.WriteEvent(context.Background(), types.WriteEvent{Backend: "supabase"})

	var nilNotifier *Notifier
	nilNotifier.WriteEvent(context.Background(), types.WriteEvent{})
}
