package engine_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fooData() domain.Collection {
	return domain.Collection{{"foo": "123"}, {"foo": "456"}}
}

func TestProcess_EmptyQueueReturnsInput(t *testing.T) {
	data := domain.Collection{{"foo": "bar", "n": 1}, {"foo": "baz"}}

	result, err := engine.New(data).Process()
	require.NoError(t, err)
	assert.Equal(t, data, result)

	// independent copies
	result[0]["foo"] = "changed"
	assert.Equal(t, "bar", data[0]["foo"])
}

func TestProcess_EmptyCollection(t *testing.T) {
	result, err := engine.New(domain.Collection{}).
		Map(func(rec domain.Record, _ int, _ domain.Collection) (domain.Record, error) {
			return rec, nil
		}).
		Process()
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestMap(t *testing.T) {
	t.Run("replaces records", func(t *testing.T) {
		result, err := engine.New(fooData()).
			Map(func(rec domain.Record, _ int, _ domain.Collection) (domain.Record, error) {
				n, err := strconv.Atoi(rec["foo"].(string))
				return domain.Record{"foo": n}, err
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": 123}, {"foo": 456}}, result)
	})

	t.Run("receives index", func(t *testing.T) {
		result, err := engine.New(fooData()).
			Map(func(rec domain.Record, index int, _ domain.Collection) (domain.Record, error) {
				return domain.Record{"foo": index}, nil
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": 0}, {"foo": 1}}, result)
	})

	t.Run("receives collection", func(t *testing.T) {
		result, err := engine.New(fooData()).
			Map(func(rec domain.Record, _ int, data domain.Collection) (domain.Record, error) {
				return domain.Record{"foo": len(data)}, nil
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": 2}, {"foo": 2}}, result)
	})

	t.Run("chains", func(t *testing.T) {
		result, err := engine.New(domain.Collection{{"foo": "bar"}}).
			Map(func(rec domain.Record, _ int, _ domain.Collection) (domain.Record, error) {
				rec["another"] = "value"
				return rec, nil
			}).
			Map(func(rec domain.Record, _ int, _ domain.Collection) (domain.Record, error) {
				rec["third"] = "charm"
				return rec, nil
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": "bar", "another": "value", "third": "charm"}}, result)
	})

	t.Run("nil record is invalid", func(t *testing.T) {
		_, err := engine.New(fooData()).
			Map(func(domain.Record, int, domain.Collection) (domain.Record, error) {
				return nil, nil
			}).
			Process()
		assert.ErrorIs(t, err, domain.ErrInvalidRecord)
	})

	t.Run("returning an input record does not alias it", func(t *testing.T) {
		data := fooData()
		result, err := engine.New(data).
			Map(func(_ domain.Record, index int, all domain.Collection) (domain.Record, error) {
				return all[index], nil
			}).
			Process()
		require.NoError(t, err)
		result[0]["foo"] = "changed"
		assert.Equal(t, "123", data[0]["foo"])
	})
}

func TestMapValue(t *testing.T) {
	t.Run("maps values", func(t *testing.T) {
		result, err := engine.New(fooData()).
			MapValue("foo", func(v interface{}, _ string, _ int, _ domain.Collection) (interface{}, error) {
				return strconv.Atoi(v.(string))
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": 123}, {"foo": 456}}, result)
	})

	t.Run("receives key index and collection", func(t *testing.T) {
		result, err := engine.New(fooData()).
			MapValue("foo", func(_ interface{}, key string, index int, data domain.Collection) (interface{}, error) {
				return key + ":" + strconv.Itoa(index) + "/" + strconv.Itoa(len(data)), nil
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": "foo:0/2"}, {"foo": "foo:1/2"}}, result)
	})

	t.Run("keeps other fields", func(t *testing.T) {
		result, err := engine.New(domain.Collection{{"foo": "bar", "keep": true}}).
			MapValue("foo", func(v interface{}, _ string, _ int, _ domain.Collection) (interface{}, error) {
				return strings.ToUpper(v.(string)), nil
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": "BAR", "keep": true}}, result)
	})

	t.Run("applies in enqueue order", func(t *testing.T) {
		f := func(v interface{}, _ string, _ int, _ domain.Collection) (interface{}, error) {
			return v.(int) + 1, nil
		}
		g := func(v interface{}, _ string, _ int, _ domain.Collection) (interface{}, error) {
			return v.(int) * 10, nil
		}
		result, err := engine.New(domain.Collection{{"n": 2}}).
			MapValue("n", f).
			MapValue("n", g).
			Process()
		require.NoError(t, err)
		assert.Equal(t, 30, result[0]["n"])
	})

	t.Run("missing field receives nil", func(t *testing.T) {
		result, err := engine.New(domain.Collection{{}}).
			MapValue("foo", func(v interface{}, _ string, _ int, _ domain.Collection) (interface{}, error) {
				return v == nil, nil
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": true}}, result)
	})
}

func TestAddProperty(t *testing.T) {
	gen := func(rec domain.Record, key string, index int, data domain.Collection) (interface{}, error) {
		return rec["foo"].(string) + "-" + key + "-" + strconv.Itoa(index) + "-" + strconv.Itoa(len(data)), nil
	}

	result, err := engine.New(fooData()).AddProperty("id", gen).Process()
	require.NoError(t, err)
	assert.Equal(t, domain.Collection{
		{"foo": "123", "id": "123-id-0-2"},
		{"foo": "456", "id": "456-id-1-2"},
	}, result)

	t.Run("overwrites existing field", func(t *testing.T) {
		result, err := engine.New(fooData()).
			AddProperty("foo", func(domain.Record, string, int, domain.Collection) (interface{}, error) {
				return "x", nil
			}).
			Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{{"foo": "x"}, {"foo": "x"}}, result)
	})
}

func TestRenameKey(t *testing.T) {
	tests := []struct {
		name     string
		input    domain.Record
		from, to string
		expected domain.Record
	}{
		{
			name:     "moves value",
			input:    domain.Record{"a": "x"},
			from:     "a",
			to:       "b",
			expected: domain.Record{"b": "x"},
		},
		{
			name:     "overwrites target",
			input:    domain.Record{"a": "x", "b": "y"},
			from:     "a",
			to:       "b",
			expected: domain.Record{"b": "x"},
		},
		{
			name:     "absent source is a no-op",
			input:    domain.Record{"c": "z"},
			from:     "a",
			to:       "b",
			expected: domain.Record{"c": "z"},
		},
		{
			name:     "absent source keeps target",
			input:    domain.Record{"b": "y"},
			from:     "a",
			to:       "b",
			expected: domain.Record{"b": "y"},
		},
		{
			name:     "same key",
			input:    domain.Record{"a": "x"},
			from:     "a",
			to:       "a",
			expected: domain.Record{"a": "x"},
		},
		{
			name:     "integer keys",
			input:    domain.Record{domain.IntKey(0): "x"},
			from:     domain.IntKey(0),
			to:       domain.IntKey(1),
			expected: domain.Record{"1": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.New(domain.Collection{tt.input}).RenameKey(tt.from, tt.to).Process()
			require.NoError(t, err)
			assert.Equal(t, domain.Collection{tt.expected}, result)
		})
	}
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	data := domain.Collection{{"foo": "123", "bar": 1}, {"foo": "456", "bar": 2}}
	snapshot := data.Clone()

	other, err := engine.New(domain.Collection{{"foo": "123", "baz": true}}).CreateIndex("foo")
	require.NoError(t, err)

	_, err = engine.New(data).
		RenameKey("foo", "qux").
		RenameKey("qux", "foo").
		MapValue("bar", func(v interface{}, _ string, _ int, _ domain.Collection) (interface{}, error) {
			return v.(int) * 2, nil
		}).
		AddProperty("extra", func(domain.Record, string, int, domain.Collection) (interface{}, error) {
			return "e", nil
		}).
		Map(func(rec domain.Record, _ int, _ domain.Collection) (domain.Record, error) {
			delete(rec, "extra")
			rec["mapped"] = true
			return rec, nil
		}).
		MergeByIndex(other, "foo").
		Process()
	require.NoError(t, err)

	assert.Equal(t, snapshot, data)
}

func TestProcess_Idempotent(t *testing.T) {
	e := engine.New(fooData()).
		MapValue("foo", func(v interface{}, _ string, _ int, _ domain.Collection) (interface{}, error) {
			return v.(string) + "!", nil
		})

	first, err := e.Process()
	require.NoError(t, err)
	second, err := e.Process()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	first[0]["foo"] = "changed"
	assert.Equal(t, "123!", second[0]["foo"])
}

func TestProcess_ReflectsLaterEnqueues(t *testing.T) {
	e := engine.New(fooData())
	before, err := e.Process()
	require.NoError(t, err)

	e.RenameKey("foo", "bar")
	after, err := e.Process()
	require.NoError(t, err)

	assert.Equal(t, fooData(), before)
	assert.Equal(t, domain.Collection{{"bar": "123"}, {"bar": "456"}}, after)
	assert.Equal(t, []engine.Kind{engine.KindRenameKey}, e.Operations())
}

func TestProcess_TransformFailure(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	result, err := engine.New(fooData()).
		MapValue("foo", func(v interface{}, _ string, index int, _ domain.Collection) (interface{}, error) {
			calls++
			if index == 0 {
				return nil, boom
			}
			return v, nil
		}).
		Process()

	assert.Equal(t, boom, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, calls)
}

func TestCreateIndex(t *testing.T) {
	t.Run("single key", func(t *testing.T) {
		e, err := engine.New(fooData()).CreateIndex("foo")
		require.NoError(t, err)

		rec, ok, err := e.FindByIndex(domain.Where("foo", "123"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.Record{"foo": "123"}, rec)
	})

	t.Run("multiple keys", func(t *testing.T) {
		data := domain.Collection{{"foo": "123", "bar": "456"}, {"foo": "456", "bar": "456"}}
		e, err := engine.New(data).CreateIndex("foo", "bar")
		require.NoError(t, err)

		rec, ok, err := e.FindByIndex(domain.Where("foo", "123").And("bar", "456"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.Record{"foo": "123", "bar": "456"}, rec)
	})

	t.Run("indexes processed values", func(t *testing.T) {
		e, err := engine.New(fooData()).RenameKey("foo", "id").CreateIndex("id")
		require.NoError(t, err)

		rec, ok, err := e.FindByIndex(domain.Where("id", "456"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.Record{"id": "456"}, rec)
	})

	t.Run("last write wins", func(t *testing.T) {
		data := domain.Collection{{"k": "a", "pos": 0}, {"k": "a", "pos": 1}}
		e, err := engine.New(data).CreateIndex("k")
		require.NoError(t, err)

		rec, ok, err := e.FindByIndex(domain.Where("k", "a"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, rec["pos"])
	})

	t.Run("is a snapshot", func(t *testing.T) {
		e, err := engine.New(fooData()).CreateIndex("foo")
		require.NoError(t, err)
		e.MapValue("foo", func(interface{}, string, int, domain.Collection) (interface{}, error) {
			return "zzz", nil
		})

		rec, ok, err := e.FindByIndex(domain.Where("foo", "123"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "123", rec["foo"])

		_, err = e.CreateIndex("foo")
		require.NoError(t, err)
		_, ok, err = e.FindByIndex(domain.Where("foo", "123"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no keys", func(t *testing.T) {
		_, err := engine.New(fooData()).CreateIndex()
		assert.ErrorIs(t, err, domain.ErrNoIndexKeys)
	})

	t.Run("propagates process failure", func(t *testing.T) {
		boom := errors.New("boom")
		e := engine.New(fooData()).
			Map(func(domain.Record, int, domain.Collection) (domain.Record, error) {
				return nil, boom
			})
		_, err := e.CreateIndex("foo")
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, e.Indexes())
	})

	t.Run("numbers stringify consistently", func(t *testing.T) {
		e, err := engine.New(domain.Collection{{"n": float64(7)}}).CreateIndex("n")
		require.NoError(t, err)

		_, ok, err := e.FindByIndex(domain.Where("n", 7))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestFindByIndex(t *testing.T) {
	data := domain.Collection{{"foo": "123", "bar": "456"}, {"foo": "456", "bar": "456"}}
	e, err := engine.New(data).CreateIndex("foo", "bar")
	require.NoError(t, err)

	t.Run("missing composite", func(t *testing.T) {
		_, _, err := e.FindByIndex(domain.Where("foo", "123"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
		assert.EqualError(t, err, `no index exists for "foo"`)

		var notFound *domain.IndexNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "foo", notFound.Keys)
	})

	t.Run("order sensitive", func(t *testing.T) {
		_, _, err := e.FindByIndex(domain.Where("bar", "456").And("foo", "123"))
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("no match", func(t *testing.T) {
		single, err := engine.New(fooData()).CreateIndex("foo")
		require.NoError(t, err)

		rec, ok, err := single.FindByIndex(domain.Where("foo", "xxx"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, rec)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		rec, ok, err := e.FindByIndex(domain.Where("foo", "123").And("bar", "456"))
		require.NoError(t, err)
		require.True(t, ok)
		rec["foo"] = "changed"

		again, _, err := e.FindByIndex(domain.Where("foo", "123").And("bar", "456"))
		require.NoError(t, err)
		assert.Equal(t, "123", again["foo"])
	})
}

func TestDropIndex(t *testing.T) {
	e, err := engine.New(fooData()).CreateIndex("foo")
	require.NoError(t, err)
	assert.Len(t, e.Indexes(), 1)

	require.NoError(t, e.DropIndex("foo"))
	assert.Empty(t, e.Indexes())

	_, _, err = e.FindByIndex(domain.Where("foo", "123"))
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	assert.ErrorIs(t, e.DropIndex("foo"), domain.ErrIndexNotFound)
}

func TestMergeByIndex(t *testing.T) {
	left := domain.Collection{{"foo": "123", "qoo": "aaa"}, {"foo": "456", "qoo": "bbb"}}
	right := domain.Collection{{"foo": "123", "bar": "123"}, {"foo": "456", "bar": "456"}}

	t.Run("merges matching records", func(t *testing.T) {
		other, err := engine.New(right).CreateIndex("foo")
		require.NoError(t, err)

		result, err := engine.New(left).MergeByIndex(other, "foo").Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Collection{
			{"foo": "123", "qoo": "aaa", "bar": "123"},
			{"foo": "456", "qoo": "bbb", "bar": "456"},
		}, result)
	})

	t.Run("right biased", func(t *testing.T) {
		other, err := engine.New(domain.Collection{{"foo": "123", "qoo": "zzz"}}).CreateIndex("foo")
		require.NoError(t, err)

		result, err := engine.New(left).MergeByIndex(other, "foo").Process()
		require.NoError(t, err)
		assert.Equal(t, "zzz", result[0]["qoo"])
		assert.Equal(t, "bbb", result[1]["qoo"])
	})

	t.Run("unmatched records left alone", func(t *testing.T) {
		other, err := engine.New(domain.Collection{{"foo": "123", "bar": "x"}}).CreateIndex("foo")
		require.NoError(t, err)

		result, err := engine.New(left).MergeByIndex(other, "foo").Process()
		require.NoError(t, err)
		assert.Equal(t, domain.Record{"foo": "456", "qoo": "bbb"}, result[1])
	})

	t.Run("missing index on other engine", func(t *testing.T) {
		result, err := engine.New(left).MergeByIndex(engine.New(right), "foo").Process()
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
		assert.Nil(t, result)
	})

	t.Run("resolved at process time", func(t *testing.T) {
		other := engine.New(right)
		e := engine.New(left).MergeByIndex(other, "foo")

		_, err := other.CreateIndex("foo")
		require.NoError(t, err)

		result, err := e.Process()
		require.NoError(t, err)
		assert.Equal(t, "456", result[1]["bar"])
	})

	t.Run("composite keys", func(t *testing.T) {
		other, err := engine.New(domain.Collection{
			{"a": 1, "b": "x", "hit": "first"},
			{"a": 1, "b": "y", "hit": "second"},
		}).CreateIndex("a", "b")
		require.NoError(t, err)

		result, err := engine.New(domain.Collection{{"a": 1, "b": "y"}}).
			MergeByIndex(other, "a", "b").
			Process()
		require.NoError(t, err)
		assert.Equal(t, "second", result[0]["hit"])
	})

	t.Run("merged record does not alias the other engine", func(t *testing.T) {
		other, err := engine.New(right).CreateIndex("foo")
		require.NoError(t, err)

		result, err := engine.New(left).MergeByIndex(other, "foo").Process()
		require.NoError(t, err)
		result[0]["bar"] = "changed"

		rec, _, err := other.FindByIndex(domain.Where("foo", "123"))
		require.NoError(t, err)
		assert.Equal(t, "123", rec["bar"])
	})
}
