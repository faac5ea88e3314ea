package channel

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/checkpoint"
	"github.com/channelcore/node/telemetry"
)

// Request is a single proposed update submitted to a Dispatcher for
// application against one channel.
type Request struct {
	ID      uuid.UUID
	Channel *ChannelState
	Update  StateUpdate

	result chan error
}

// Dispatcher is a small worker pool demonstrating the intended concurrency
// model: multiple workers race to apply updates, ApplyUpdate's single
// writer lock per channel ensures only the worker holding the correct next
// sequence number succeeds in a given round, and every other submission for
// that round observes KindInvalidSequence and is expected to retry with
// backoff. The dispatcher itself fixes no retry policy and no ordering among
// concurrently submitted requests — it only guarantees that no update is
// ever applied out of sequence.
type Dispatcher struct {
	workers int
	log     telemetry.Sink

	queue chan *Request

	checkpoints *checkpoint.Store

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher starts workers goroutines pulling from a buffered queue.
// checkpoints may be nil, in which case applied updates are never persisted.
// Call Close to stop accepting new work and wait for in-flight requests to
// drain.
func NewDispatcher(workers int, queueSize int, checkpoints *checkpoint.Store, log telemetry.Sink) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	log = telemetry.OrNop(log)

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		workers:     workers,
		log:         log,
		queue:       make(chan *Request, queueSize),
		checkpoints: checkpoints,
		cancel:      cancel,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
	return d
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-d.queue:
			if !ok {
				return
			}
			err := req.Channel.ApplyUpdate(req.Update)
			if err != nil {
				d.log.Debugw("dispatcher: update rejected", "request_id", req.ID, "error", err)
			} else {
				d.log.Debugw("dispatcher: update applied", "request_id", req.ID)
				d.saveCheckpoint(req.Channel)
			}
			req.result <- err
		}
	}
}

// saveCheckpoint persists ch's current state after a successful ApplyUpdate.
// A checkpoint failure is logged but never surfaced to the submitter —
// durability is additive, it does not change whether an already-validated
// update is considered applied.
func (d *Dispatcher) saveCheckpoint(ch *ChannelState) {
	if d.checkpoints == nil {
		return
	}
	if err := d.checkpoints.SaveSnapshot(ch.ToSnapshot()); err != nil {
		d.log.Warnw("dispatcher: checkpoint save failed", "channel_id", ch.ChannelID(), "error", err)
	}
}

// Submit enqueues update for application against ch and blocks until a
// worker has run ApplyUpdate, returning its result. Callers that see
// KindInvalidSequence should retry with their own backoff policy — the
// dispatcher deliberately fixes none.
func (d *Dispatcher) Submit(ctx context.Context, ch *ChannelState, update StateUpdate) error {
	req := &Request{
		ID:      uuid.New(),
		Channel: ch,
		Update:  update,
		result:  make(chan error, 1),
	}

	select {
	case d.queue <- req:
	case <-ctx.Done():
		return chanerr.Wrap(chanerr.KindStorageError, "dispatcher queue full or closed", ctx.Err())
	}

	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return chanerr.Wrap(chanerr.KindStorageError, "context cancelled awaiting result", ctx.Err())
	}
}

// Close stops accepting new work and waits for in-flight requests to drain.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
	d.cancel()
}
