package vault

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testVault uses a raw key so tests do not pay for key derivation.
func testVault() *Vault {
	return FromKey(bytes.Repeat([]byte{7}, KeySize))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := testVault()
	payloads := [][]byte{
		[]byte("x"),
		[]byte(`{"weekday_seconds": 1.5, "weekend_seconds": 0}`),
		bytes.Repeat([]byte{0, 1, 2, 255}, 1000),
		bytes.Repeat([]byte("a"), 16),
	}
	for _, p := range payloads {
		token, err := v.Encrypt(p)
		if err != nil {
			t.Fatal(err)
		}
		got, err := v.Decrypt(token)
		if err != nil {
			t.Fatalf("decrypt %d bytes: %v", len(p), err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("round trip mismatch for %d bytes", len(p))
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	token, err := testVault().Encrypt([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	other := FromKey(bytes.Repeat([]byte{9}, KeySize))
	if _, err := other.Decrypt(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	v := testVault()
	token, err := v.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.URLEncoding.DecodeString(string(token))
	if err != nil {
		t.Fatal(err)
	}
	raw[1+8+16] ^= 0xff // first ciphertext byte
	tampered := []byte(base64.URLEncoding.EncodeToString(raw))
	if _, err := v.Decrypt(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecrypt_KnownVector(t *testing.T) {
	// Published Fernet reference vector.
	key, err := base64.URLEncoding.DecodeString("cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4=")
	if err != nil {
		t.Fatal(err)
	}
	token := []byte("gAAAAAAdwJ6wAAECAwQFBgcICQoLDA0ODy021cpGVWKZ_eEwCGM4BLLF_5CV9dOPmrhuVUPgJobwOz7JcbmrR64jVmpU4IwqDA==")
	got, err := FromKey(key).Decrypt(token)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestEncrypt_TokenLayout(t *testing.T) {
	key, _ := base64.URLEncoding.DecodeString("cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4=")
	v := FromKey(key)

	before := time.Now().Add(-time.Second).Unix()
	token, err := v.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.URLEncoding.DecodeString(string(token))
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	// version, timestamp, iv, one block of ciphertext, hmac
	if len(raw) != 1+8+16+16+32 {
		t.Fatalf("unexpected token length %d", len(raw))
	}
	if raw[0] != 0x80 {
		t.Errorf("unexpected version byte %#x", raw[0])
	}
	if ts := int64(binary.BigEndian.Uint64(raw[1:9])); ts < before || ts > time.Now().Unix()+1 {
		t.Errorf("timestamp %d is not the current time", ts)
	}

	got, err := v.Decrypt(token)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestDecrypt_OldTokenNeverExpires(t *testing.T) {
	// The reference vector was sealed in 1985.
	key, _ := base64.URLEncoding.DecodeString("cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4=")
	token := []byte("gAAAAAAdwJ6wAAECAwQFBgcICQoLDA0ODy021cpGVWKZ_eEwCGM4BLLF_5CV9dOPmrhuVUPgJobwOz7JcbmrR64jVmpU4IwqDA==\n")
	if _, err := FromKey(key).Decrypt(token); err != nil {
		t.Errorf("expected old token with trailing newline to open, got %v", err)
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	v := testVault()
	token, err := v.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	inputs := [][]byte{
		nil,
		[]byte("gA=="),
		token[:20],
		[]byte(`{"weekday_seconds": 60}`),
		bytes.Repeat([]byte("A"), 200),
	}
	for _, in := range inputs {
		if _, err := v.Decrypt(in); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Decrypt(%q): expected ErrInvalidToken, got %v", in, err)
		}
	}
}

func TestNew_DerivesStableKey(t *testing.T) {
	a := New(DefaultPassphrase, DefaultSalt)
	b := New(DefaultPassphrase, DefaultSalt)
	token, err := a.Encrypt([]byte("same key"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Decrypt(token); err != nil {
		t.Errorf("vaults derived from the same secret should interoperate: %v", err)
	}
	c := New("other", DefaultSalt)
	if _, err := c.Decrypt(token); err == nil {
		t.Error("a different passphrase must not decrypt")
	}
}

func TestOpen_LegacyPlaintext(t *testing.T) {
	v := testVault()
	legacy := []byte(`{"year": 2024, "week": 10, "weekday_seconds": 60}`)
	p, err := v.Open(legacy)
	if err != nil {
		t.Fatal(err)
	}
	if p.Format != FormatLegacyPlaintext {
		t.Errorf("expected legacy plaintext, got %s", p.Format)
	}
	if !bytes.Equal(p.Data, legacy) {
		t.Error("plaintext payload should be returned verbatim")
	}

	token, _ := v.Encrypt(legacy)
	p, err = v.Open(token)
	if err != nil {
		t.Fatal(err)
	}
	if p.Format != FormatEncrypted {
		t.Errorf("expected encrypted, got %s", p.Format)
	}

	if _, err := v.Open([]byte("garbage that is neither")); err == nil {
		t.Error("expected error for undecodable data")
	}
}

func TestEncryptFile_DecryptJSON(t *testing.T) {
	v := testVault()
	path := filepath.Join(t.TempDir(), "nested", "2024_10.enc")

	in := map[string]any{"year": 2024.0, "week": 10.0}
	if err := v.EncryptJSON(path, in); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if json.Valid(raw) {
		t.Error("file on disk must not be plaintext JSON")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not exist after write")
	}

	var out map[string]any
	format, err := v.DecryptJSON(path, &out)
	if err != nil {
		t.Fatal(err)
	}
	if format != FormatEncrypted {
		t.Errorf("expected encrypted format, got %s", format)
	}
	if out["year"] != 2024.0 || out["week"] != 10.0 {
		t.Errorf("unexpected content %v", out)
	}
}

func TestDecryptFile_Missing(t *testing.T) {
	if _, err := testVault().DecryptFile(filepath.Join(t.TempDir(), "none.enc")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecryptImage(t *testing.T) {
	v := testVault()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "camera.enc")
	if err := v.EncryptFile(path, buf.Bytes()); err != nil {
		t.Fatal(err)
	}

	got, format, err := v.DecryptImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("expected png, got %s", format)
	}
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", got.Bounds())
	}
}
