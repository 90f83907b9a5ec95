package supabase

import (
	"conncheck/internal/types"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
)

const (
	testTable = "messages"
	testKey   = "test-anon-key"
)

// fakePostgREST serves /rest/v1/<table> the way PostgREST does for insert and select.
type fakePostgREST struct {
	mu        sync.Mutex
	rows      []row
	forbidden bool
	uuidIDs   bool
	lastQuery map[string]string
	lastKey   string
	clock     time.Time
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKey = r.Header.Get("apikey")
	if r.URL.Path != "/rest/v1/"+testTable {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"42P01","message":"relation does not exist"}`))
		return
	}
	if f.forbidden {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"42501","message":"permission denied for table messages"}`))
		return
	}
	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		var in insertRow
		if err := json.Unmarshal(body, &in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"PGRST102","message":"invalid body"}`))
			return
		}
		f.clock = f.clock.Add(time.Second)
		id := json.RawMessage(strconv.Itoa(len(f.rows) + 1))
		if f.uuidIDs {
			id = json.RawMessage(fmt.Sprintf(`"6f1c2a9e-0000-4000-8000-%012d"`, len(f.rows)+1))
		}
		rw := row{ID: id, CreatedAt: f.clock, MessageText: in.MessageText, Author: in.Author}
		f.rows = append(f.rows, rw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]row{rw})
	case http.MethodGet:
		f.lastQuery = map[string]string{}
		for k := range r.URL.Query() {
			f.lastQuery[k] = r.URL.Query().Get(k)
		}
		out := slices.Clone(f.rows)
		slices.SortFunc(out, func(a, b row) int { return b.CreatedAt.Compare(a.CreatedAt) })
		if len(out) > 5 {
			out = out[:5]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type UnitTestSuite struct {
	suite.Suite

	fake   *fakePostgREST
	server *httptest.Server
	store  *RecordStore
}

func (s *UnitTestSuite) SetupTest() {
	s.fake = &fakePostgREST{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.server = httptest.NewServer(s.fake)
	cli, err := NewClient(types.SupabaseConfig{URL: s.server.URL, Key: testKey})
	s.Require().NoError(err)
	s.store = NewRecordStore(cli)
}

func (s *UnitTestSuite) TearDownTest() {
	s.server.Close()
}

func TestUnitTestSuite(t *testing.T) {
	suite.Run(t, new(UnitTestSuite))
}

func (s *UnitTestSuite) TestInsertEchoesServerRow() {
	rec, err := s.store.Insert(context.Background(), testTable, types.Record{
		Message: "Hello Supabase from Streamlit!",
		Author:  "TestUser",
	})
	s.NoError(err)
	s.Equal("1", rec.ID)
	s.Equal("Hello Supabase from Streamlit!", rec.Message)
	s.Equal("TestUser", rec.Author)
	s.False(rec.CreatedAt.IsZero())
	s.Equal(testKey, s.fake.lastKey)
}

func (s *UnitTestSuite) TestUUIDPrimaryKey() {
	s.fake.uuidIDs = true
	ctx := context.Background()
	rec, err := s.store.Insert(ctx, testTable, types.Record{Message: "hi", Author: "TestUser"})
	s.Require().NoError(err)
	s.Equal("6f1c2a9e-0000-4000-8000-000000000001", rec.ID)

	rows, err := s.store.Latest(ctx, testTable, 5)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(rec.ID, rows[0].ID)
}

func (s *UnitTestSuite) TestIDString() {
	s.Equal("", idString(nil))
	s.Equal("", idString(json.RawMessage("null")))
	s.Equal("42", idString(json.RawMessage("42")))
	s.Equal("abc", idString(json.RawMessage(`"abc"`)))
}

func (s *UnitTestSuite) TestLatestOrderedDescending() {
	ctx := context.Background()
	for _, m := range []string{"one", "two", "three", "four", "five", "six"} {
		_, err := s.store.Insert(ctx, testTable, types.Record{Message: m, Author: "Bot"})
		s.Require().NoError(err)
	}
	_, err := s.store.Insert(ctx, testTable, types.Record{Message: "Hello Supabase from Streamlit!", Author: "TestUser"})
	s.Require().NoError(err)

	rows, err := s.store.Latest(ctx, testTable, 5)
	s.NoError(err)
	s.Len(rows, 5)
	s.Equal("Hello Supabase from Streamlit!", rows[0].Message)
	for i := 1; i < len(rows); i++ {
		s.True(rows[i-1].CreatedAt.After(rows[i].CreatedAt))
	}
	s.Equal("5", s.fake.lastQuery["limit"])
	s.True(strings.HasPrefix(s.fake.lastQuery["order"], "created_at.desc"), s.fake.lastQuery["order"])
	s.Equal("*", s.fake.lastQuery["select"])
}

func (s *UnitTestSuite) TestLatestEmptyTable() {
	rows, err := s.store.Latest(context.Background(), testTable, 5)
	s.NoError(err)
	s.NotNil(rows)
	s.Empty(rows)
}

func (s *UnitTestSuite) TestPermissionDenied() {
	s.fake.forbidden = true
	_, err := s.store.Insert(context.Background(), testTable, types.Record{Message: "hi"})
	s.Error(err)
	_, err = s.store.Latest(context.Background(), testTable, 5)
	s.Error(err)

	s.fake.forbidden = false
	_, err = s.store.Insert(context.Background(), testTable, types.Record{Message: "hi"})
	s.NoError(err)
}

func (s *UnitTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.store.Latest(ctx, testTable, 5)
	s.ErrorIs(err, context.Canceled)
}

func (s *UnitTestSuite) TestNewClientRequiresURLAndKey() {
	_, err := NewClient(types.SupabaseConfig{})
	s.Error(err)
}
