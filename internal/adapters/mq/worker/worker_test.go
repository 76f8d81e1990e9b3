package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/session"
	logging "github.com/okian/podium/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var errNoSession = errors.New("no session")

// recordingApplier applies intents to real stores and records call order.
type recordingApplier struct {
	mu       sync.Mutex
	stores   map[string]*session.Store
	inFlight int
	overlap  bool
	order    []string
}

func newRecordingApplier(ids ...string) *recordingApplier {
	a := &recordingApplier{stores: map[string]*session.Store{}}
	for _, id := range ids {
		a.stores[id] = session.New(rows())
	}
	return a
}

func (a *recordingApplier) Apply(_ context.Context, id string, in session.Intent) (session.Change, error) {
	a.mu.Lock()
	a.inFlight++
	if a.inFlight > 1 {
		a.overlap = true
	}
	a.order = append(a.order, id)
	st, ok := a.stores[id]
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight--
		a.mu.Unlock()
	}()
	if !ok {
		return session.Change{}, fmt.Errorf("%w: %s", errNoSession, id)
	}
	time.Sleep(time.Millisecond)
	return st.Apply(in)
}

func rows() []model.Row {
	var out []model.Row
	for i := 0; i < 12; i++ {
		d := 4.0 + float64(i%4)*0.4
		e := 8.0 + float64((i*5)%7)*0.2
		out = append(out, model.Row{
			ID:         model.ID(i),
			Athlete:    []string{"Ana", "Ben", "Cal"}[i%3],
			Year:       2022 + i%2,
			Apparatus:  []string{"VT", "FX"}[i%2],
			Event:      "Antwerp",
			Dscore:     d,
			Escore:     e,
			FinalScore: d + e,
		})
	}
	return out
}

func TestDispatcher(t *testing.T) {
	convey.Convey("Given a dispatcher over an intent queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		applier := newRecordingApplier("s1", "s2")
		d := worker.NewDispatcher(q, applier, worker.WithName("test-dispatcher"), worker.WithLogger(logging.Nop()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go d.Run(ctx)

		convey.Convey("When an intent is submitted", func() {
			j := queue.NewJob("s1", session.Intent{Kind: session.IntentFilters, Criteria: &model.Criteria{Year: "2022"}})
			convey.So(q.Enqueue(ctx, j), convey.ShouldBeNil)
			out := <-j.Reply

			convey.Convey("Then the reply carries the change", func() {
				convey.So(out.Err, convey.ShouldBeNil)
				convey.So(out.Change.Kind, convey.ShouldEqual, session.ChangeFull)
				convey.So(out.Change.Snapshot.Criteria.Year, convey.ShouldEqual, "2022")
			})
		})

		convey.Convey("When the session is unknown", func() {
			j := queue.NewJob("missing", session.Intent{Kind: session.IntentReset})
			convey.So(q.Enqueue(ctx, j), convey.ShouldBeNil)
			out := <-j.Reply

			convey.Convey("Then the error is replied", func() {
				convey.So(errors.Is(out.Err, errNoSession), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the intent is malformed", func() {
			j := queue.NewJob("s1", session.Intent{Kind: "zoom"})
			convey.So(q.Enqueue(ctx, j), convey.ShouldBeNil)
			out := <-j.Reply

			convey.Convey("Then the intent error is replied", func() {
				convey.So(errors.Is(out.Err, session.ErrUnknownIntent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When many intents are submitted concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := []string{"s1", "s2"}[i%2]
					j := queue.NewJob(id, session.Intent{Kind: session.IntentSelectAthlete, Athlete: []string{"Ana", "Ben"}[i%2]})
					if err := q.Enqueue(ctx, j); err != nil {
						t.Errorf("enqueue: %v", err)
						return
					}
					<-j.Reply
				}(i)
			}
			wg.Wait()

			convey.Convey("Then they are applied one at a time", func() {
				applier.mu.Lock()
				defer applier.mu.Unlock()
				convey.So(applier.overlap, convey.ShouldBeFalse)
				convey.So(applier.order, convey.ShouldHaveLength, 20)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			err := d.Shutdown(sctx)

			convey.Convey("Then it should shutdown gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestDispatcher_QueueClosed(t *testing.T) {
	convey.Convey("Given a dispatcher whose queue is closed", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		d := worker.NewDispatcher(q, newRecordingApplier("s1"), worker.WithLogger(logging.Nop()))

		j := queue.NewJob("s1", session.Intent{Kind: session.IntentReset})
		convey.So(q.Enqueue(context.Background(), j), convey.ShouldBeNil)
		convey.So(q.Close(), convey.ShouldBeNil)

		go d.Run(context.Background())

		convey.Convey("Then pending jobs drain and Run returns", func() {
			out := <-j.Reply
			convey.So(out.Err, convey.ShouldBeNil)
			select {
			case <-d.Done():
			case <-time.After(time.Second):
				t.Fatal("dispatcher did not stop")
			}
		})
	})
}
