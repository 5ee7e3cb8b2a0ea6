package store

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// sealedMagic prefixes files written with a passphrase.
var sealedMagic = []byte("uplug-sealed-v1\n")

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// ErrWrongPassphrase is returned when a sealed session cannot be opened.
var ErrWrongPassphrase = errors.New("session file: wrong passphrase or corrupted data")

// File persists the session as JSON at Path. When Passphrase is set the JSON
// is sealed with NaCl secretbox under a scrypt-derived key.
type File struct {
	Path       string
	Passphrase string
}

// NewFile creates a file persister.
func NewFile(path, passphrase string) *File {
	return &File{Path: path, Passphrase: passphrase}
}

func (f *File) Load(_ context.Context) (*domain.Session, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	if bytes.HasPrefix(raw, sealedMagic) {
		if f.Passphrase == "" {
			return nil, errors.New("session file is sealed but no passphrase is configured")
		}
		raw, err = open(raw[len(sealedMagic):], f.Passphrase)
		if err != nil {
			return nil, err
		}
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return &s, nil
}

func (f *File) Save(_ context.Context, s domain.Session) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if f.Passphrase != "" {
		sealed, err := seal(raw, f.Passphrase)
		if err != nil {
			return err
		}
		raw = append(append([]byte{}, sealedMagic...), sealed...)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated file
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return os.Rename(tmp.Name(), f.Path)
}

func deriveKey(passphrase string, salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], k)
	return &key, nil
}

// seal returns salt || nonce || box.
func seal(plain []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, key), nil
}

func open(sealed []byte, passphrase string) ([]byte, error) {
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, ErrWrongPassphrase
	}
	salt := sealed[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrWrongPassphrase
	}
	return plain, nil
}
