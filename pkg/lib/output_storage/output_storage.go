package output_storage

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
)

// node represents an element in the singly linked list.
// It carries a payload (byte slice) and an atomic pointer to the next node.
// The list uses a sentinel head node for simpler append logic.
type node struct {
	data []byte
	next atomic.Pointer[node]
}

var logger = log.New(io.Discard, "output_storage: ", log.LstdFlags)

// OutputStorage is an append-only singly linked list of byte slices, used to
// accumulate captured lines of a process stream.
// Appends are serialized by a mutex so several writers (e.g. the stdout and
// stderr readers sharing a combined storage) may append concurrently.
// Reading methods (Bytes/ForEach/Cursor) never lock; they see every node
// published before the read started and possibly some appended during it.
type OutputStorage struct {
	mu   sync.Mutex
	head *node // sentinel head, immutable
	tail *node // last element in the list (or sentinel if empty), guarded by mu

	count atomic.Int64
	size  atomic.Int64
}

// NewOutputStorage creates a new, empty OutputStorage.
func NewOutputStorage() *OutputStorage {
	sentinel := &node{}
	return &OutputStorage{
		head: sentinel,
		tail: sentinel,
	}
}

// Append adds the provided byte slice to the end of the list in a thread-safe manner.
// Note: The slice is stored as-is; if callers may mutate the slice afterward,
// they should pass a copy (e.g., append([]byte(nil), data...)).
func (s *OutputStorage) Append(data []byte) {
	if s == nil {
		return
	}

	newTail := &node{data: data}

	s.mu.Lock()
	s.tail.next.Store(newTail)
	s.tail = newTail
	s.mu.Unlock()

	s.count.Add(1)
	s.size.Add(int64(len(data)))
}

// AppendString appends a copy of str.
func (s *OutputStorage) AppendString(str string) {
	s.Append([]byte(str))
}

// Len returns the number of appended chunks.
func (s *OutputStorage) Len() int {
	if s == nil {
		return 0
	}
	return int(s.count.Load())
}

// Size returns the total number of appended bytes.
func (s *OutputStorage) Size() int {
	if s == nil {
		return 0
	}
	return int(s.size.Load())
}

// ForEach iterates over all stored byte slices in insertion order.
// The iterator function receives each slice; if it returns false, iteration stops early.
func (s *OutputStorage) ForEach(iter func([]byte) bool) {
	if s == nil || iter == nil {
		return
	}
	cur := s.head.next.Load() // skip sentinel
	for cur != nil {
		if !iter(cur.data) {
			return
		}
		cur = cur.next.Load()
	}
}

// Bytes concatenates all stored byte slices into a single slice.
// This is a convenience method and may allocate proportional to total data size.
func (s *OutputStorage) Bytes() []byte {
	// First pass: gather slices and estimate total size.
	total := 0
	slices := make([][]byte, 0, 16)
	s.ForEach(func(b []byte) bool {
		slices = append(slices, b)
		total += len(b)
		return true
	})
	out := make([]byte, 0, total)
	for _, b := range slices {
		out = append(out, b...)
	}
	return out
}

// String returns all stored byte slices concatenated into a single string.
func (s *OutputStorage) String() string {
	return string(s.Bytes())
}

// Cursor returns a cursor positioned before the first stored element.
func (s *OutputStorage) Cursor() *Cursor {
	if s == nil {
		return &Cursor{}
	}
	return &Cursor{prev: s.head}
}

// Cursor walks an OutputStorage in insertion order without blocking. A
// cursor that reached the end picks up elements appended later on the next
// call to Next. A Cursor is not safe for concurrent use.
type Cursor struct {
	prev *node
}

// Next returns the next element, or false if the cursor is at the end.
func (c *Cursor) Next() ([]byte, bool) {
	if c.prev == nil {
		return nil, false
	}
	current := c.prev.next.Load()
	if current == nil {
		return nil, false
	}
	c.prev = current
	return current.data, true
}
