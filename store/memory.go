package store

import (
	"bytes"
	"sort"
	"sync"
)

// Memory is an in-process Backend backed by plain Go maps, used for tests
// and for embedding the engine without a disk. It is not persisted.
type Memory struct {
	mu sync.Mutex

	blobs map[string][]byte
	zsets map[string]map[string]float64
	hmaps map[string]map[string][]byte
}

// NewMemory returns an empty in-memory Backend.
func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[string][]byte),
		zsets: make(map[string]map[string]float64),
		hmaps: make(map[string]map[string][]byte),
	}
}

func (m *Memory) Get(key []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.blobs[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.blobs[string(key)] = cp
	return nil
}

func (m *Memory) Append(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.blobs[string(key)]
	out := make([]byte, len(cur)+len(value))
	copy(out, cur)
	copy(out[len(cur):], value)
	m.blobs[string(key)] = out
	return nil
}

func (m *Memory) Truncate(key []byte, newLen int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.blobs[string(key)]
	if newLen > len(cur) {
		return nil
	}
	m.blobs[string(key)] = cur[:newLen]
	return nil
}

func (m *Memory) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, string(key))
	return nil
}

func (m *Memory) PrefixScan(prefix []byte) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for k := range m.blobs {
		if bytes.HasPrefix([]byte(k), prefix) {
			out = append(out, []byte(k))
		}
	}
	return out, nil
}

func (m *Memory) ZAdd(set []byte, score float64, member []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := string(set)
	if m.zsets[s] == nil {
		m.zsets[s] = make(map[string]float64)
	}
	m.zsets[s][string(member)] = score
	return nil
}

func (m *Memory) ZRangeByScore(set []byte, min, max float64) ([]ZEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.zsets[string(set)]
	out := make([]ZEntry, 0, len(z))
	for member, score := range z {
		if score >= min && score <= max {
			out = append(out, ZEntry{Member: []byte(member), Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return bytes.Compare(out[i].Member, out[j].Member) < 0
	})
	return out, nil
}

func (m *Memory) ZRemoveAll(set []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.zsets, string(set))
	return nil
}

func (m *Memory) HGet(hash, field []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hmaps[string(hash)]
	if h == nil {
		return nil, false, nil
	}
	v, ok := h[string(field)]
	return v, ok, nil
}

func (m *Memory) HSet(hash, field, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := string(hash)
	if m.hmaps[s] == nil {
		m.hmaps[s] = make(map[string][]byte)
	}
	m.hmaps[s][string(field)] = value
	return nil
}

func (m *Memory) HDelete(hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hmaps, string(hash))
	return nil
}

func (m *Memory) Close() error { return nil }
