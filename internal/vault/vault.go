// Package vault seals and opens every file the engine persists.
//
// Tokens use the Fernet layout (version byte, timestamp, IV, AES-128-CBC
// ciphertext, HMAC-SHA256), so files written by earlier releases of the
// recorder open with the same passphrase and salt. The key is derived with
// PBKDF2-HMAC-SHA256. With the default fixed passphrase and salt anyone who
// has the binary can derive the key: this protects against casual disk
// inspection only.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultPassphrase = "SYSU"
	DefaultSalt       = "fixed_salt_for_work_monitor"

	// KDFIterations and KeySize are fixed by the on-disk format.
	KDFIterations = 100000
	KeySize       = 32

	// minTokenLen is a version byte, timestamp, IV, one cipher block and
	// the HMAC.
	minTokenLen = 1 + 8 + aes.BlockSize + aes.BlockSize + sha256.Size
)

// ErrInvalidToken is returned when data is not a token sealed with this key.
var ErrInvalidToken = errors.New("invalid token")

// Vault holds the derived key for the process lifetime. It is safe for
// concurrent use.
type Vault struct {
	keys []*fernet.Key
}

// New derives the key from passphrase and salt.
func New(passphrase, salt string) *Vault {
	key := pbkdf2.Key([]byte(passphrase), []byte(salt), KDFIterations, KeySize, sha256.New)
	return FromKey(key)
}

// FromKey builds a Vault from a raw 32-byte key: signing half first,
// encryption half second.
func FromKey(key []byte) *Vault {
	var k fernet.Key
	copy(k[:], key)
	return &Vault{keys: []*fernet.Key{&k}}
}

// Encrypt seals plaintext into a base64url token.
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	token, err := fernet.EncryptAndSign(plaintext, v.keys[0])
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return token, nil
}

// Decrypt verifies and opens a token. Tokens never expire.
func (v *Vault) Decrypt(token []byte) ([]byte, error) {
	token = bytes.TrimSpace(token)
	raw, err := base64.URLEncoding.DecodeString(string(token))
	if err != nil || len(raw) < minTokenLen || raw[0] != 0x80 {
		return nil, ErrInvalidToken
	}
	msg := fernet.VerifyAndDecrypt(token, -1, v.keys)
	if msg == nil {
		return nil, ErrInvalidToken
	}
	return msg, nil
}

// Format tags how a payload was stored.
type Format int

const (
	FormatEncrypted Format = iota
	FormatLegacyPlaintext
)

func (f Format) String() string {
	if f == FormatLegacyPlaintext {
		return "plaintext"
	}
	return "encrypted"
}

// Payload is the decoded content of a stored file together with the format
// it was found in.
type Payload struct {
	Format Format
	Data   []byte
}

// Open decodes data written either by Seal or, before encryption was
// introduced, as plain JSON. Decryption is attempted first; only valid JSON
// is accepted as a plaintext fallback.
func (v *Vault) Open(data []byte) (Payload, error) {
	plain, err := v.Decrypt(data)
	if err == nil {
		return Payload{Format: FormatEncrypted, Data: plain}, nil
	}
	if json.Valid(data) {
		return Payload{Format: FormatLegacyPlaintext, Data: data}, nil
	}
	return Payload{}, err
}

// EncryptFile seals data and atomically writes it to path.
func (v *Vault) EncryptFile(path string, data []byte) error {
	token, err := v.Encrypt(data)
	if err != nil {
		return err
	}
	return writeAtomic(path, token)
}

// EncryptJSON marshals value and writes it sealed to path.
func (v *Vault) EncryptJSON(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return v.EncryptFile(path, data)
}

// OpenFile reads path and decodes it with Open.
func (v *Vault) OpenFile(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	p, err := v.Open(data)
	if err != nil {
		return Payload{}, fmt.Errorf("decrypt %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// DecryptFile returns the plaintext bytes of a sealed file.
func (v *Vault) DecryptFile(path string) ([]byte, error) {
	p, err := v.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return p.Data, nil
}

// DecryptJSON decodes a sealed (or legacy plaintext) JSON file into out.
func (v *Vault) DecryptJSON(path string, out any) (Format, error) {
	p, err := v.OpenFile(path)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(p.Data, out); err != nil {
		return p.Format, fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return p.Format, nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
