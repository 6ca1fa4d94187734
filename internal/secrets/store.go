// Package secrets keeps object storage credentials out of config.toml.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Names used for the publish credentials.
const (
	PublishAccessKey = "publish.access_key"
	PublishSecretKey = "publish.secret_key"
)

// ErrNotFound is returned by Get for names that were never stored.
var ErrNotFound = errors.New("secrets: not found")

// Store is a per-user credential file (0600) with AES-GCM obfuscation.
// Not a replacement for OS keychains but avoids plain-text config.
type Store struct {
	Path string
}

type secretFile struct {
	Values map[string]string `json:"values"` // name -> base64(ciphertext)
}

// Default returns the store under the user config dir.
func Default() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{Path: filepath.Join(dir, "jaskmeme", "credentials.json")}, nil
}

func (s *Store) Put(name, value string) error {
	if name = norm(name); name == "" {
		return fmt.Errorf("secrets: name required")
	}
	sf, err := s.load()
	if err != nil {
		return err
	}
	if sf.Values == nil {
		sf.Values = map[string]string{}
	}
	ct, err := encrypt([]byte(value))
	if err != nil {
		return err
	}
	sf.Values[name] = base64.StdEncoding.EncodeToString(ct)
	return s.save(sf)
}

func (s *Store) Get(name string) (string, error) {
	if name = norm(name); name == "" {
		return "", fmt.Errorf("secrets: name required")
	}
	sf, err := s.load()
	if err != nil {
		return "", err
	}
	enc, ok := sf.Values[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("secrets: %s: %w", name, err)
	}
	pt, err := decrypt(raw)
	if err != nil {
		return "", fmt.Errorf("secrets: %s: %w", name, err)
	}
	return string(pt), nil
}

func (s *Store) Delete(name string) error {
	sf, err := s.load()
	if err != nil {
		return err
	}
	delete(sf.Values, norm(name))
	return s.save(sf)
}

// Fill returns value when set, else the stored secret under name, else "".
func (s *Store) Fill(value, name string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	v, err := s.Get(name)
	if err != nil {
		return ""
	}
	return v
}

func (s *Store) load() (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return secretFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("secrets: decode %s: %w", s.Path, err)
	}
	return sf, nil
}

func (s *Store) save(sf secretFile) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func masterKey() []byte {
	base := fmt.Sprintf("jaskmeme-%s-%s", runtime.GOOS, os.Getenv("USER"))
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
