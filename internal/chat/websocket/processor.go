package websocket

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	chatmetrics "github.com/AlibekovAA/relay-hub/internal/chat/metrics"
	"github.com/AlibekovAA/relay-hub/internal/common/constants"
	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
	observabilitymetrics "github.com/AlibekovAA/relay-hub/internal/observability/metrics"
)

type taskKind int

const (
	taskEvent taskKind = iota
	taskDisconnect
)

type messageTask struct {
	kind   taskKind
	client *Client
	env    message.Envelope
}

// MessageProcessor runs inbound events on a fixed set of workers. Each
// connection hashes to one worker queue, so its events run in arrival order
// while different connections proceed in parallel.
type MessageProcessor struct {
	queues  []chan messageTask
	router  Router
	log     *logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMessageProcessor(workers, queueSize int, router Router, log *logger.Logger) *MessageProcessor {
	if workers <= 0 {
		workers = constants.WebSocketProcessorWorkers
	}
	if queueSize <= 0 {
		queueSize = constants.WebSocketProcessorQueueSize
	}
	perQueue := queueSize / workers
	if perQueue < 1 {
		perQueue = 1
	}

	p := &MessageProcessor{
		queues:  make([]chan messageTask, workers),
		router:  router,
		log:     log,
		timeout: constants.WebSocketProcessorTimeout,
	}

	for i := range p.queues {
		p.queues[i] = make(chan messageTask, perQueue)
		p.wg.Add(1)
		go p.worker(p.queues[i])
	}

	return p
}

func (p *MessageProcessor) queueFor(connID string) chan messageTask {
	hash := fnv.New32a()
	hash.Write([]byte(connID))
	return p.queues[hash.Sum32()%uint32(len(p.queues))]
}

func (p *MessageProcessor) worker(queue chan messageTask) {
	defer p.wg.Done()
	for task := range queue {
		p.process(task)
	}
}

func (p *MessageProcessor) process(task messageTask) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(task.client.ctx, p.timeout)
	defer cancel()

	label := string(task.env.Type)
	var err error
	if task.kind == taskDisconnect {
		label = "disconnect"
		err = p.router.Disconnect(ctx, task.client)
	} else {
		err = p.router.Route(ctx, task.client, task.env)
	}

	if err != nil {
		p.log.WithFields(ctx, logger.Fields{
			"conn_id": task.client.id,
			"type":    label,
			"action":  "ws_message_processing_failed",
		}).Warnf("websocket message processing failed: %v", err)
	}

	observabilitymetrics.ChatWebSocketMessageProcessingDurationSeconds.WithLabelValues(label).Observe(time.Since(start).Seconds())
}

// Submit queues an inbound event. It never blocks: a full queue drops the
// event with ErrQueueFull.
func (p *MessageProcessor) Submit(client *Client, env message.Envelope) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return commonerrors.ErrConnectionClosed
	}

	select {
	case p.queueFor(client.id) <- messageTask{kind: taskEvent, client: client, env: env}:
		return nil
	default:
		chatmetrics.IncrementDroppedEvent("queue_full")
		p.log.WithFields(client.ctx, logger.Fields{
			"conn_id": client.id,
			"type":    string(env.Type),
			"action":  "ws_queue_full",
		}).Warn("websocket message queue full")
		return commonerrors.ErrQueueFull
	}
}

// SubmitDisconnect queues the connection's cleanup behind its pending events.
// It blocks until queued; it only fails once the processor is shut down.
func (p *MessageProcessor) SubmitDisconnect(client *Client) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return commonerrors.ErrConnectionClosed
	}
	p.queueFor(client.id) <- messageTask{kind: taskDisconnect, client: client}
	return nil
}

func (p *MessageProcessor) QueueDepth() int {
	depth := 0
	for _, q := range p.queues {
		depth += len(q)
	}
	return depth
}

// Shutdown stops intake and waits for queued tasks until ctx expires.
func (p *MessageProcessor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("message processor drain timed out"), ctx.Err())
	}
}
