// Package gallery persists the ordered list of saved memes.
//
// The whole list lives under one key as a JSON array of data URLs and is always
// written as a full replacement, never patched.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Meme is a saved meme: a self-contained data URL of the flattened raster.
type Meme string

// DefaultKey is the storage key the gallery is kept under.
const DefaultKey = "memes"

// ErrCorrupt reports a stored value that is not a JSON array of strings.
var ErrCorrupt = errors.New("gallery: stored value is not a list of memes")

// Store is the durable storage capability injected into the workspace.
type Store interface {
	// Load returns the persisted sequence. A missing value yields an empty
	// sequence and no error.
	Load(ctx context.Context) ([]Meme, error)
	// Save replaces the persisted sequence.
	Save(ctx context.Context, memes []Meme) error
}

// Encode serializes memes the way they are kept on disk.
func Encode(memes []Meme) (string, error) {
	if memes == nil {
		memes = []Meme{}
	}
	data, err := json.Marshal(memes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a stored value. Blank input and JSON null decode to an empty
// sequence; anything else that is not an array of strings (null elements
// included) is ErrCorrupt.
func Decode(raw string) ([]Meme, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []*Meme
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if items == nil {
		return nil, nil
	}
	out := make([]Meme, len(items))
	for i, m := range items {
		if m == nil {
			return nil, fmt.Errorf("%w: null at position %d", ErrCorrupt, i)
		}
		out[i] = *m
	}
	return out, nil
}

// MemoryStore keeps the encoded gallery in memory. It is used in tests and
// when no durable backend is wanted.
type MemoryStore struct {
	mu    sync.Mutex
	raw   string
	saves int
	// FailSave, when set, is returned by Save without touching the value.
	FailSave error
}

// NewMemoryStore returns a store preloaded with raw (may be empty).
func NewMemoryStore(raw string) *MemoryStore {
	return &MemoryStore{raw: raw}
}

func (s *MemoryStore) Load(_ context.Context) ([]Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Decode(s.raw)
}

func (s *MemoryStore) Save(_ context.Context, memes []Meme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	raw, err := Encode(memes)
	if err != nil {
		return err
	}
	s.raw = raw
	s.saves++
	return nil
}

// Raw returns the encoded value as last written.
func (s *MemoryStore) Raw() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

// Saves reports how many successful writes happened.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
