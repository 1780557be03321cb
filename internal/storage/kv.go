// Package storage provides the local durable cache: a file-backed
// key-value store holding JSON blobs, compressed with zstd. It is a plain
// cache surviving restarts, not part of the replication protocol.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

const blobExt = ".blob"

// KV is a directory of compressed JSON blobs, one file per key.
type KV struct {
	mu      sync.Mutex
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewKV opens (creating if needed) a store rooted at dir.
func NewKV(dir string) (*KV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init compressor: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init decompressor: %w", err)
	}

	return &KV{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Set serializes value and writes it under key, replacing any previous
// blob. The write goes through a temp file and rename so a crash never
// leaves a torn blob behind.
func (kv *KV) Set(key string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	compressed := kv.encoder.EncodeAll(data, nil)
	path := kv.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit %q: %w", key, err)
	}
	return nil
}

// Get reads the blob under key into out. Returns false when the key does
// not exist.
func (kv *KV) Get(key string, out any) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	compressed, err := os.ReadFile(kv.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	data, err := kv.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return false, fmt.Errorf("failed to decompress %q: %w", key, err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

// Remove deletes the blob under key. Removing a missing key is a no-op.
func (kv *KV) Remove(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	err := os.Remove(kv.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

// Keys lists every stored key, optionally filtered by prefix.
func (kv *KV) Keys(prefix string) ([]string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	entries, err := os.ReadDir(kv.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache dir: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, blobExt) {
			continue
		}
		key := decodeKey(strings.TrimSuffix(name, blobExt))
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (kv *KV) path(key string) string {
	return filepath.Join(kv.dir, encodeKey(key)+blobExt)
}

// Keys may contain characters unfit for filenames; escape conservatively.
func encodeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "%%%04x", r)
		}
	}
	return b.String()
}

func decodeKey(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); {
		if name[i] == '%' && i+5 <= len(name) {
			var r rune
			if _, err := fmt.Sscanf(name[i+1:i+5], "%04x", &r); err == nil {
				b.WriteRune(r)
				i += 5
				continue
			}
		}
		b.WriteByte(name[i])
		i++
	}
	return b.String()
}
