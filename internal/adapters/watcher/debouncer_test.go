package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zen/internal/adapters/watcher"
)

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) record(paths []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, paths)
}

func (b *batches) all() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &batches{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/p/src/b.c")
		d.Add("/p/src/a.c")
		d.Add("/p/src/b.c")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, rec.all(), 1)
		assert.Equal(t, []string{"/p/src/a.c", "/p/src/b.c"}, rec.all()[0])
	})
}

func TestDebouncer_WindowRestartsOnAdd(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &batches{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/p/a.c")
		time.Sleep(80 * time.Millisecond)
		d.Add("/p/b.c")
		time.Sleep(80 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, rec.all(), "window restarts on every add")

		time.Sleep(40 * time.Millisecond)
		synctest.Wait()
		require.Len(t, rec.all(), 1)
		assert.Equal(t, []string{"/p/a.c", "/p/b.c"}, rec.all()[0])
	})
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &batches{}
		d := watcher.NewDebouncer(50*time.Millisecond, rec.record)

		d.Add("/p/a.c")
		time.Sleep(100 * time.Millisecond)
		d.Add("/p/b.c")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, [][]string{{"/p/a.c"}, {"/p/b.c"}}, rec.all())
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &batches{}
		d := watcher.NewDebouncer(time.Second, rec.record)

		d.Add("/p/a.c")
		d.Flush()
		assert.Equal(t, [][]string{{"/p/a.c"}}, rec.all())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Len(t, rec.all(), 1, "flushed batch is not reported twice")

		d.Flush()
		assert.Len(t, rec.all(), 1, "empty flush does not call back")
	})
}

func TestDebouncer_DefaultWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &batches{}
		d := watcher.NewDebouncer(0, rec.record)

		d.Add("/p/a.c")
		time.Sleep(watcher.DefaultDebounceWindow / 2)
		synctest.Wait()
		assert.Empty(t, rec.all())

		time.Sleep(watcher.DefaultDebounceWindow)
		synctest.Wait()
		assert.Len(t, rec.all(), 1)
	})
}
