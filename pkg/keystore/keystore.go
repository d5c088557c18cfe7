// Package keystore provides an in-memory store of the rsa keys used to sign
// and verify tokens.
package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
)

// ErrKeyNotFound is returned for an unknown key id.
var ErrKeyNotFound = errors.New("key not found")

const maxPEMSize = 1024 * 1024 //1MB

// KeyStore holds private keys by their id, the id is the pem file name.
type KeyStore struct {
	mu        sync.RWMutex
	store     map[string]*rsa.PrivateKey
	activeKID string
}

// New constructs an empty KeyStore.
func New() *KeyStore {
	return &KeyStore{
		store: make(map[string]*rsa.PrivateKey),
	}
}

// LoadFromFileSystem loads every "<kid>.pem" file found in fsys and returns the
// number of keys held afterwards.
func (ks *KeyStore) LoadFromFileSystem(fsys fs.FS) (int, error) {
	walker := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}

		if d.IsDir() {
			//kubernetes mounts secrets through "..data" symlinks, the same key
			//would be seen twice.
			if path != "." && strings.HasPrefix(d.Name(), "..") {
				return fs.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".pem" {
			return nil
		}

		file, err := fsys.Open(path)
		if err != nil {
			return fmt.Errorf("opening file %s: %w", path, err)
		}
		defer file.Close()

		pemBytes, err := io.ReadAll(io.LimitReader(file, maxPEMSize))
		if err != nil {
			return fmt.Errorf("readAll: %w", err)
		}

		key, err := parsePrivateKey(pemBytes)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		kid := strings.TrimSuffix(filepath.Base(path), ".pem")

		ks.mu.Lock()
		defer ks.mu.Unlock()
		ks.store[kid] = key
		return nil
	}

	if err := fs.WalkDir(fsys, ".", walker); err != nil {
		return 0, fmt.Errorf("walkDir: %w", err)
	}

	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.store), nil
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block found")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)

	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsePKCS8PrivateKey: %w", err)
		}

		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("expected an rsa key, got %T", parsed)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("unsupported pem block type: %s", block.Type)
	}
}

// PrivateKey returns the private key with the given id.
func (ks *KeyStore) PrivateKey(kid string) (*rsa.PrivateKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	k, ok := ks.store[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}

	return k, nil
}

// PublicKey returns the public half of the key with the given id.
func (ks *KeyStore) PublicKey(kid string) (*rsa.PublicKey, error) {
	k, err := ks.PrivateKey(kid)
	if err != nil {
		return nil, err
	}

	return &k.PublicKey, nil
}

// SetActiveKID marks a loaded key as the one new tokens are signed with.
func (ks *KeyStore) SetActiveKID(kid string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if _, ok := ks.store[kid]; !ok {
		return fmt.Errorf("key[%s]: %w", kid, ErrKeyNotFound)
	}

	ks.activeKID = kid
	return nil
}

// ActiveKID returns the id of the signing key.
func (ks *KeyStore) ActiveKID() string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.activeKID
}
