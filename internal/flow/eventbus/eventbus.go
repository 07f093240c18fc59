/*
 * Copyright (c) 2026, the Node Engine authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package eventbus is the many-to-many router that dispatches FlowEvents produced
// inside a flow to HTTP streaming subscribers, addressed either per-session or
// per-connection. Adding or removing a subscriber takes a mutex; delivery to an
// already-registered subscriber never blocks the producer.
package eventbus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/system/log"
)

// DefaultQueueSize is the default bound of a subscriber's event channel.
const DefaultQueueSize = 256

// Subscriber is one attachment to the bus: a session (required) and an optional
// connection_id narrowing delivery to a single SSE stream.
type Subscriber struct {
	ID           string
	SessionID    string
	ConnectionID string
	queue        chan model.FlowEvent
}

// Events returns the channel to drain for this subscriber's events.
func (s *Subscriber) Events() <-chan model.FlowEvent {
	return s.queue
}

// Bus is the event fan-out router described in §4.6: subscribers register with
// a session (and optionally a connection), emit dispatches to every matching
// one without blocking the caller, and disconnect drains and releases the queue.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	queueSize   int
	logger      *log.Logger
}

// New constructs an empty Bus. queueSize <= 0 falls back to DefaultQueueSize.
func New(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		subscribers: make(map[string]*Subscriber),
		queueSize:   queueSize,
		logger:      log.GetLogger().With(log.String(log.LoggerKeyComponentName, "EventBus")),
	}
}

// AddSubscriber registers a new subscriber for sessionID, optionally scoped to
// connectionID, and returns it so the caller can drain Events() and eventually
// call Remove.
func (b *Bus) AddSubscriber(sessionID, connectionID string) *Subscriber {
	sub := &Subscriber{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		ConnectionID: connectionID,
		queue:        make(chan model.FlowEvent, b.queueSize),
	}

	b.mu.Lock()
	b.subscribers[sub.ID] = sub
	b.mu.Unlock()

	b.logger.Debug("subscriber added", log.String("sessionID", sessionID),
		log.String("connectionID", connectionID))
	return sub
}

// Remove unregisters sub, draining and closing its queue so no goroutine is left
// blocked sending to it. Deleting sub from the map happens under b.mu's
// exclusive lock, which Emit's send also holds (as a reader lock) for its whole
// duration; the queue is closed after that lock is released. By the time the
// exclusive lock has been taken and delete has run, every Emit call
// that could still see sub in the map has already finished sending to it, and no
// later Emit call can find it to send to, so closing the queue is never racing a
// send.
func (b *Bus) Remove(sub *Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	delete(b.subscribers, sub.ID)
	b.mu.Unlock()

	for {
		select {
		case <-sub.queue:
		default:
			close(sub.queue)
			return
		}
	}
}

// Emit enqueues evt to every subscriber matching the routing rule: if
// targetConnectionID is non-empty, only the subscriber with that connection_id
// receives it; otherwise every subscriber whose session_id equals evt.SessionID
// receives it. Delivery never blocks the caller - a full queue drops the event
// for that subscriber and logs it. The send happens while still holding the
// read lock, so it can never race Remove's close (see Remove's comment).
func (b *Bus) Emit(evt model.FlowEvent, targetConnectionID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if targetConnectionID != "" {
			if sub.ConnectionID != targetConnectionID {
				continue
			}
		} else if sub.SessionID != evt.SessionID {
			continue
		}

		select {
		case sub.queue <- evt:
		default:
			b.logger.Warn("dropping event for full subscriber queue",
				log.String("subscriberID", sub.ID), log.String("event", evt.Event))
		}
	}
}
