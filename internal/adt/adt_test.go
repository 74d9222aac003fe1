package adt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSmallSetInsertContainsRemove(t *testing.T) {
	s := NewSmallSet[string](2)
	require.True(t, s.Insert("a"))
	require.True(t, s.Insert("b"))
	require.False(t, s.Insert("a"))
	require.True(t, s.Contains("a"))
	require.Equal(t, 2, s.Len())

	require.True(t, s.Remove("a"))
	require.False(t, s.Contains("a"))
	require.Equal(t, 1, s.Len())
}

func TestSmallSetSetOps(t *testing.T) {
	a := NewSmallSet[int](4)
	for _, v := range []int{1, 2, 3} {
		a.Insert(v)
	}
	b := NewSmallSet[int](4)
	for _, v := range []int{2, 3, 4} {
		b.Insert(v)
	}

	union := a.Union(b)
	require.ElementsMatch(t, []int{1, 2, 3, 4}, union.Items())

	inter := a.Intersect(b)
	require.ElementsMatch(t, []int{2, 3}, inter.Items())

	diff := a.Difference(b)
	require.ElementsMatch(t, []int{1}, diff.Items())
}

func TestSmallMapSetGetDelete(t *testing.T) {
	m := NewSmallMap[string, int](2)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 10)

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 10, v)
	require.Equal(t, 2, m.Len())

	require.True(t, m.Delete("a"))
	_, ok = m.Get("a")
	require.False(t, ok)
}

func TestSmallDequeFIFOAndLIFO(t *testing.T) {
	d := NewSmallDeque[int](1)
	for i := 0; i < 10; i++ {
		d.PushBack(i)
	}
	require.Equal(t, 10, d.Len())
	for i := 0; i < 10; i++ {
		v, ok := d.PopFront()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	require.True(t, d.IsEmpty())

	d.PushFront(1)
	d.PushFront(2)
	d.PushBack(3)
	require.Equal(t, []int{2, 1, 3}, d.ToSlice())
}
