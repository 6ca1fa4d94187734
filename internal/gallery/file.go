package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the gallery as a JSON file. Writes go to a temp file that
// is renamed over the old one, so a crash leaves the previous list intact.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (s *FileStore) Load(_ context.Context) ([]Meme, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return Decode(string(data))
}

func (s *FileStore) Save(_ context.Context, memes []Meme) error {
	raw, err := Encode(memes)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir gallery dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(raw), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}
