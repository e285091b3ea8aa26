package entities

import (
	"fmt"

	"go.uber.org/zap"
)

// opQueue collects structural changes requested while the world is locked.
// Creations are replayed before destructions, and destroying one identifier
// twice is coalesced into a single operation.
type opQueue struct {
	createOps      []func(*World) error
	destroyOps     []Identifier
	pendingDestroy map[Identifier]struct{}
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Identifier]struct{}),
	}
}

func (q *opQueue) enqueueCreate(op func(*World) error) {
	q.createOps = append(q.createOps, op)
}

func (q *opQueue) enqueueDestroy(id Identifier) {
	if _, exists := q.pendingDestroy[id]; exists {
		return
	}
	q.pendingDestroy[id] = struct{}{}
	q.destroyOps = append(q.destroyOps, id)
}

func (w *World) processOperationQueue() error {
	q := &w.opQueue
	if len(q.createOps) == 0 && len(q.destroyOps) == 0 {
		return nil
	}

	// Process creates first
	for _, op := range q.createOps {
		if err := op(w); err != nil {
			return fmt.Errorf("failed to process queued entity creation: %w", err)
		}
	}

	// Process destroys last; an identifier that died before the flush is
	// skipped rather than treated as misuse.
	for _, id := range q.destroyOps {
		err := w.Destroy(id)
		switch err.(type) {
		case nil:
		case StaleIdentifierError:
			w.log.Debug("queued destroy skipped; entity already dead",
				zap.Uint16("typeID", id.TypeID),
				zap.Uint32("slot", id.Slot),
			)
		default:
			return fmt.Errorf("failed to process queued entity destruction: %w", err)
		}
	}

	q.createOps = q.createOps[:0]
	q.destroyOps = q.destroyOps[:0]
	clear(q.pendingDestroy)
	return nil
}
