package storage

import (
	"sync"
	"unicode/utf8"
)

// Operation names a tuple space operation
type Operation string

const (
	OpRead Operation = "READ"
	OpGet  Operation = "GET"
	OpPut  Operation = "PUT"
)

// Observer is notified of every store outcome while the store lock is held,
// so whatever it records stays in step with Counters.
type Observer interface {
	ObserveOperation(op Operation, ok bool, tuples int)
	ObserveClient()
}

// Counters are the process-wide operation counts
type Counters struct {
	TotalClients    int64 `json:"total_clients"`
	TotalOperations int64 `json:"total_operations"`
	TotalReads      int64 `json:"total_reads"`
	TotalGets       int64 `json:"total_gets"`
	TotalPuts       int64 `json:"total_puts"`
	TotalErrors     int64 `json:"total_errors"`
}

// Snapshot is a consistent view of the counters and the current tuple set
type Snapshot struct {
	Counters
	Tuples           int     `json:"tuples"`
	AverageTupleSize float64 `json:"average_tuple_size"`
}

// TupleSpace is the shared key -> value store. Every operation runs under a
// single mutex that spans the existence check, the mutation and the counters.
type TupleSpace struct {
	mutex    sync.Mutex
	data     map[string]string
	counters Counters
	observer Observer
}

// NewTupleSpace creates an empty tuple space
func NewTupleSpace() *TupleSpace {
	return &TupleSpace{
		data: make(map[string]string),
	}
}

// SetObserver installs an observer. It must be called before the store is shared.
func (ts *TupleSpace) SetObserver(o Observer) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	ts.observer = o
}

// Read returns the value stored under key without removing it
func (ts *TupleSpace) Read(key string) (string, bool) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ts.counters.TotalOperations++
	value, found := ts.data[key]
	if found {
		ts.counters.TotalReads++
	} else {
		ts.counters.TotalErrors++
	}
	ts.notify(OpRead, found)
	return value, found
}

// Get removes the tuple stored under key and returns its value
func (ts *TupleSpace) Get(key string) (string, bool) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ts.counters.TotalOperations++
	value, found := ts.data[key]
	if found {
		delete(ts.data, key)
		ts.counters.TotalGets++
	} else {
		ts.counters.TotalErrors++
	}
	ts.notify(OpGet, found)
	return value, found
}

// Put stores (key, value) only if key is absent. An existing tuple is never overwritten.
func (ts *TupleSpace) Put(key, value string) bool {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ts.counters.TotalOperations++
	_, exists := ts.data[key]
	if exists {
		ts.counters.TotalErrors++
	} else {
		ts.data[key] = value
		ts.counters.TotalPuts++
	}
	ts.notify(OpPut, !exists)
	return !exists
}

// ClientConnected records one accepted connection
func (ts *TupleSpace) ClientConnected() {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ts.counters.TotalClients++
	if ts.observer != nil {
		ts.observer.ObserveClient()
	}
}

// Len returns the number of stored tuples
func (ts *TupleSpace) Len() int {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	return len(ts.data)
}

// Snapshot returns the counters, tuple count and average tuple size as of one instant
func (ts *TupleSpace) Snapshot() Snapshot {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	snap := Snapshot{
		Counters: ts.counters,
		Tuples:   len(ts.data),
	}
	if snap.Tuples > 0 {
		var total int
		for k, v := range ts.data {
			total += utf8.RuneCountInString(k) + utf8.RuneCountInString(v)
		}
		snap.AverageTupleSize = float64(total) / float64(snap.Tuples)
	}
	return snap
}

func (ts *TupleSpace) notify(op Operation, ok bool) {
	if ts.observer != nil {
		ts.observer.ObserveOperation(op, ok, len(ts.data))
	}
}
