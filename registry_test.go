package guise

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("returns the key", func(t *testing.T) {
		r := newTestRegistry()
		key := NamedKey[*testWidget]("main")
		assert.Equal(t, key, Register(r, key, constFactory(&testWidget{})))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("defaults to uncached retained", func(t *testing.T) {
		r := newTestRegistry()
		key := Register(r, TypeKey[int](), constFactory(1))

		reg, ok := r.Lookup(key)
		require.True(t, ok)
		assert.False(t, reg.Cached())
		assert.Equal(t, Retained, reg.Holding())
		assert.Nil(t, reg.Metadata())
		assert.Equal(t, key.AnyKey(), reg.Key())
	})

	t.Run("records options", func(t *testing.T) {
		r := newTestRegistry()
		key := Register(r, TypeKey[int](), constFactory(1), WithCaching(true), WithMetadata("editor"))

		reg, ok := r.Lookup(key)
		require.True(t, ok)
		assert.True(t, reg.Cached())

		m, ok := MetadataAs[string](reg)
		require.True(t, ok)
		assert.Equal(t, "editor", m)

		_, ok = MetadataAs[int](reg)
		assert.False(t, ok)
	})

	t.Run("re-registering replaces factory and drops cached value", func(t *testing.T) {
		r := newTestRegistry()
		key := TypeKey[string]()
		Register(r, key, constFactory("old"), WithCaching(true))

		v, ok, err := Resolve(r, key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "old", v)

		Register(r, key, constFactory("new"), WithCaching(true))
		assert.Equal(t, 1, r.Len())

		v, ok, err = Resolve(r, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "new", v)
	})

	t.Run("same name and container with different types coexist", func(t *testing.T) {
		r := newTestRegistry()
		Register(r, NewKey[int]("x", "c"), constFactory(1))
		Register(r, NewKey[string]("x", "c"), constFactory("one"))
		assert.Equal(t, 2, r.Len())

		i, ok, _ := Resolve(r, NewKey[int]("x", "c"))
		require.True(t, ok)
		assert.Equal(t, 1, i)

		s, ok, _ := Resolve(r, NewKey[string]("x", "c"))
		require.True(t, ok)
		assert.Equal(t, "one", s)
	})

	t.Run("non-comparable name panics", func(t *testing.T) {
		r := newTestRegistry()
		assert.Panics(t, func() {
			Register(r, NamedKey[int]([]string{"a"}), constFactory(1))
		})
		assert.Equal(t, 0, r.Len())
	})

	t.Run("instance is cached", func(t *testing.T) {
		r := newTestRegistry()
		w := &testWidget{ID: 7}
		key := RegisterInstance(r, TypeKey[*testWidget](), w)

		reg, _ := r.Lookup(key)
		assert.True(t, reg.Cached())

		got, ok, err := Resolve(r, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Same(t, w, got)
	})

	t.Run("instance caching can be disabled", func(t *testing.T) {
		r := newTestRegistry()
		key := RegisterInstance(r, TypeKey[int](), 3, WithCaching(false))

		reg, _ := r.Lookup(key)
		assert.False(t, reg.Cached())
	})
}

// ---------------------------------------------------------------------------
// Unregister
// ---------------------------------------------------------------------------

func TestUnregister(t *testing.T) {
	t.Parallel()

	t.Run("never registered returns zero", func(t *testing.T) {
		r := newTestRegistry()
		Register(r, TypeKey[int](), constFactory(1))

		assert.Equal(t, 0, r.Unregister(NamedKey[int]("missing")))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("removes exactly the given keys", func(t *testing.T) {
		r := newTestRegistry()
		a := Register(r, NamedKey[int]("a"), constFactory(1))
		b := Register(r, NamedKey[int]("b"), constFactory(2))
		c := Register(r, NamedKey[string]("c"), constFactory("3"))
		keep := Register(r, NamedKey[int]("keep"), constFactory(4))

		assert.Equal(t, 3, r.Unregister(a, b, c))
		assert.Equal(t, 1, r.Len())

		_, ok := r.Lookup(keep)
		assert.True(t, ok)
	})

	t.Run("accepts erased keys and ignores duplicates", func(t *testing.T) {
		r := newTestRegistry()
		a := Register(r, NamedKey[int]("a"), constFactory(1))

		assert.Equal(t, 1, r.Unregister(a.AnyKey(), a))
		assert.Equal(t, 0, r.Len())
	})

	t.Run("non-comparable key is ignored", func(t *testing.T) {
		r := newTestRegistry()
		assert.Equal(t, 0, r.Unregister(NamedKey[int](map[string]int{})))
	})

	t.Run("where predicate", func(t *testing.T) {
		r := newTestRegistry()
		Register(r, NewKey[int]("a", "plugins"), constFactory(1))
		Register(r, NewKey[string]("b", "plugins"), constFactory("2"))
		Register(r, NamedKey[int]("c"), constFactory(3))

		assert.Equal(t, 2, r.UnregisterWhere(InContainer("plugins")))
		assert.Equal(t, 1, r.Len())
		assert.Equal(t, 0, r.UnregisterWhere(InContainer("plugins")))
	})
}

func TestClear(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	Register(r, TypeKey[int](), constFactory(1))
	Register(r, TypeKey[string](), constFactory("s"))

	r.Clear()
	assert.Equal(t, 0, r.Len())

	_, ok, err := ResolveType[int](r)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func TestFilter(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	p1 := Register(r, NewKey[testPlugin]("csv", "plugins"), constFactory[testPlugin](&testNamedPlugin{"csv"}))
	p2 := Register(r, NewKey[int]("limit", "plugins"), constFactory(10))
	Register(r, NamedKey[testPlugin]("csv"), constFactory[testPlugin](&testNamedPlugin{"csv"}))

	t.Run("by container regardless of type or name", func(t *testing.T) {
		got := r.Filter(InContainer("plugins"))

		keys := make(map[AnyKey]bool, len(got))
		for k := range got {
			keys[k] = true
		}
		want := map[AnyKey]bool{p1.AnyKey(): true, p2.AnyKey(): true}
		if diff := cmp.Diff(want, keys); diff != "" {
			t.Fatalf("Filter(InContainer) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no match returns empty", func(t *testing.T) {
		got := r.Filter(InContainer("nothing"))
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("nil predicate matches all", func(t *testing.T) {
		assert.Len(t, r.Filter(nil), 3)
	})

	t.Run("result is a snapshot", func(t *testing.T) {
		got := r.Filter(nil)
		delete(got, p1.AnyKey())
		assert.Equal(t, 3, r.Len())
	})
}

func TestRegistry_ZeroValue(t *testing.T) {
	t.Parallel()

	var r Registry
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Filter(nil))
	assert.Equal(t, 0, r.Unregister(TypeKey[int]()))

	_, ok, err := ResolveType[int](&r)
	require.NoError(t, err)
	assert.False(t, ok)

	Register(&r, TypeKey[int](), constFactory(3))
	v, ok, err := ResolveType[int](&r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, v)

	r.Clear()
	assert.Equal(t, 0, r.Len())
}

func TestDefault(t *testing.T) {
	r := Default()
	require.Same(t, r, Default())

	key := NamedKey[int]("guise-default-test")
	Register(r, key, constFactory(42))
	t.Cleanup(func() { r.Unregister(key) })

	v, ok, err := Resolve(Default(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestRegistry_ConcurrentMutation(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			key := NamedKey[int](i)
			Register(r, key, constFactory(i), WithCaching(i%2 == 0))

			v, ok, err := Resolve(r, key)
			if err != nil || !ok || v != i {
				t.Errorf("Resolve(%v) = %v, %v, %v", key, v, ok, err)
			}

			_ = r.Filter(InContainer(DefaultContainer))
			_ = r.Len()

			if i%3 == 0 {
				r.Unregister(key)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines-17, r.Len())
}
