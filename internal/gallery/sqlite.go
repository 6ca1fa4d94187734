package gallery

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/jaskmeme/internal/database/repository"
)

// SQLStore keeps the gallery in the sqlite kv table.
type SQLStore struct {
	KV  *repository.KVRepo
	Key string
}

// NewSQLStore returns a store backed by db under key (DefaultKey when empty).
func NewSQLStore(db *sql.DB, key string) *SQLStore {
	if key == "" {
		key = DefaultKey
	}
	return &SQLStore{KV: repository.NewKVRepo(db), Key: key}
}

func (s *SQLStore) Load(ctx context.Context) ([]Meme, error) {
	e, err := s.KV.Get(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.Key, err)
	}
	if e == nil {
		return nil, nil
	}
	return Decode(e.Value)
}

func (s *SQLStore) Save(ctx context.Context, memes []Meme) error {
	raw, err := Encode(memes)
	if err != nil {
		return err
	}
	if err := s.KV.Put(ctx, s.Key, raw); err != nil {
		return fmt.Errorf("save %s: %w", s.Key, err)
	}
	return nil
}
