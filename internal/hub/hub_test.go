package hub

import (
	"encoding/json"
	"errors"
	"sync"
)

var errQueueFull = errors.New("queue full")

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	fail   bool
}

func (f *fakeSender) Enqueue(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		panic("enqueue after close")
	}
	if f.fail {
		return errQueueFull
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, frame := range f.frames {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(frame, &env)
		out = append(out, env.Type)
	}
	return out
}
