package flow

import (
	"conncheck/internal/types"
	"time"
)

func (s *UnitTestSuite) TestProject() {
	rows := []types.Record{
		{ID: "2", Message: "second", Author: "TestUser", CreatedAt: time.Unix(20, 0).UTC()},
		{ID: "1", Message: "first", Author: "Bot", CreatedAt: time.Unix(10, 0).UTC()},
	}

	v, err := Project("[].message_text", rows)
	s.NoError(err)
	s.Equal([]any{"second", "first"}, v)

	v, err = Project("[?author=='Bot'].id | [0]", rows)
	s.NoError(err)
	s.Equal("1", v)

	v, err = Project("data.message", types.Document{Exists: true, Data: map[string]any{"message": "Hello Firebase!"}})
	s.NoError(err)
	s.Equal("Hello Firebase!", v)

	v, err = Project("nonexistent", rows)
	s.NoError(err)
	s.Nil(v)

	_, err = Project("[?", rows)
	s.Error(err)
}

func (s *UnitTestSuite) TestEvalAny() {
	obj := map[string]any{
		"key1": "value1",
		"key3": []any{"elem1", "elem2"},
	}
	v, err := EvalAny("key1", obj)
	s.NoError(err)
	s.Equal("value1", v)

	v, err = EvalAny("contains(key3, 'elem2')", obj)
	s.NoError(err)
	s.Equal(true, v)
}
