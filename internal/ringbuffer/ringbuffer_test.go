package ringbuffer_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/networkteam/aybolit-smoke/internal/ringbuffer"
)

func TestBuffer_Basic(t *testing.T) {
	b := ringbuffer.New[string](3)

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 3, b.Cap())
	assert.Empty(t, b.All())

	b.Push("a")
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, []string{"a"}, b.All())

	b.Push("b")
	b.Push("c")
	assert.Equal(t, []string{"a", "b", "c"}, b.All())
	assert.Zero(t, b.Dropped())
}

func TestBuffer_Overwrite(t *testing.T) {
	b := ringbuffer.New[string](3)
	for _, s := range []string{"a", "b", "c", "d"} {
		b.Push(s)
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"b", "c", "d"}, b.All())
	assert.Equal(t, uint64(1), b.Dropped())

	b.Push("e")
	b.Push("f")
	assert.Equal(t, []string{"d", "e", "f"}, b.All())
}

func TestBuffer_Last(t *testing.T) {
	b := ringbuffer.New[int](5)
	for i := 1; i <= 3; i++ {
		b.Push(i)
	}

	assert.Equal(t, []int{2, 3}, b.Last(2))
	assert.Equal(t, []int{1, 2, 3}, b.Last(10))
	assert.Empty(t, b.Last(0))

	for i := 4; i <= 8; i++ {
		b.Push(i)
	}
	assert.Equal(t, []int{4, 5, 6, 7, 8}, b.Last(5))
	assert.Equal(t, []int{6, 7, 8}, b.Last(3))
}

func TestBuffer_ZeroCapacity(t *testing.T) {
	assert.Panics(t, func() {
		ringbuffer.New[string](0)
	})
}

func TestBuffer_LargeCapacity(t *testing.T) {
	b := ringbuffer.New[int](1000)
	for i := 0; i < 2000; i++ {
		b.Push(i)
	}

	assert.Equal(t, 1000, b.Len())
	assert.Equal(t, uint64(1000), b.Dropped())

	last := b.Last(10)
	for i, v := range last {
		assert.Equal(t, 1990+i, v)
	}
}

func TestBuffer_ConcurrentPush(t *testing.T) {
	b := ringbuffer.New[int](50)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Push(i)
				_ = b.Last(5)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, b.Len())
	assert.Equal(t, uint64(350), b.Dropped())
}
