package container_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/container"
)

func TestPriorityQueueFIFOTies(t *testing.T) {
	q := container.NewPriorityQueue[string]()
	q.HeapPush("c", 2)
	q.HeapPush("a1", 1)
	q.HeapPush("a2", 1)
	q.HeapPush("a3", 1)
	q.HeapPush("z", 0.5)

	var got []string
	for q.Len() > 0 {
		v, _ := q.HeapPop()
		got = append(got, v)
	}
	assert.Equal(t, []string{"z", "a1", "a2", "a3", "c"}, got)
}

func TestPriorityQueueHeapify(t *testing.T) {
	q := container.NewPriorityQueue[int]()
	for i, p := range []float64{3, 1, 2, 1} {
		q.Push(i, p)
	}
	q.Heapify()
	v, p := q.First()
	assert.Equal(t, 1, v)
	assert.Equal(t, 1., p)
	q.HeapPop()
	v, _ = q.HeapPop()
	assert.Equal(t, 3, v)
}

type elem struct {
	container.IncrementalItemBase
	name string
}

func names(a *container.IncrementalArray[*elem]) []string {
	return lo.Map(a.Data(), func(e *elem, _ int) string { return e.name })
}

func TestIncrementalArray(t *testing.T) {
	a := container.NewIncrementalArray[*elem]()
	x, y, z := &elem{name: "x"}, &elem{name: "y"}, &elem{name: "z"}
	a.Add(x)
	a.Add(y)
	a.Add(z)
	assert.Equal(t, 0, a.Len())
	add, remove := a.Pending()
	assert.Equal(t, 3, add)
	assert.Equal(t, 0, remove)

	a.Prepare()
	assert.Equal(t, []string{"x", "y", "z"}, names(a))
	for i, e := range a.Data() {
		assert.Equal(t, i, e.Index())
	}

	a.Remove(x)
	a.Prepare()
	assert.Equal(t, []string{"z", "y"}, names(a))
	assert.Equal(t, 0, z.Index())
	assert.Equal(t, 1, y.Index())
}

func TestIncrementalArrayCancelPendingAdd(t *testing.T) {
	a := container.NewIncrementalArray[*elem]()
	x, y := &elem{name: "x"}, &elem{name: "y"}
	a.Add(x)
	a.Prepare()

	a.Add(y)
	a.Remove(y)
	a.Remove(x)
	a.Prepare()
	assert.Equal(t, 0, a.Len())
	assert.Less(t, x.Index(), 0)
	assert.Less(t, y.Index(), 0)
}
