package api

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"todo-api/domain"
)

// changeFeed stamps and forwards change events. Event times are wall clock
// nanoseconds, bumped when needed so they strictly increase across events.
type changeFeed struct {
	notifier Notifier
	lastTime atomic.Int64
}

func newChangeFeed(n Notifier) *changeFeed {
	if n == nil {
		n = NopNotifier{}
	}
	return &changeFeed{notifier: n}
}

func (f *changeFeed) emit(typ domain.EventType, id int64, todo *domain.Todo) {
	f.notifier.Notify(domain.ChangeEvent{
		ID:     uuid.NewString(),
		Type:   typ,
		TodoID: id,
		Todo:   todo,
		Time:   f.stamp(time.Now().UnixNano()),
	})
}

func (f *changeFeed) stamp(now int64) int64 {
	for {
		last := f.lastTime.Load()
		next := max(now, last+1)
		if f.lastTime.CompareAndSwap(last, next) {
			return next
		}
	}
}
