package service

import (
	"log/slog"
	"sync"
)

// mailbox runs posted functions one at a time, in order, on a single goroutine.
// The queue is unbounded so posting never blocks. close stops accepting new
// work, runs whatever is already queued and waits for the goroutine to exit.
type mailbox struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newMailbox(logger *slog.Logger) *mailbox {
	m := &mailbox{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go m.run()
	return m
}

// post enqueues fn. Returns false if the mailbox is closed.
func (m *mailbox) post(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// call enqueues fn and waits until it has run.
// Returns false without running fn if the mailbox is closed.
// Must not be used from the mailbox goroutine itself.
func (m *mailbox) call(fn func()) bool {
	finished := make(chan struct{})
	if !m.post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	<-finished
	return true
}

func (m *mailbox) run() {
	defer close(m.done)
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			closed := m.closed
			m.mu.Unlock()
			if closed {
				return
			}
			<-m.wake
			continue
		}
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.exec(fn)
	}
}

func (m *mailbox) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("mailbox task panicked", slog.Any("panic", r))
		}
	}()
	fn()
}

// close drains the queue and stops the goroutine. Safe to call more than once.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	<-m.done
}
