package vault

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"

	_ "golang.org/x/image/webp"
)

// DecryptImage opens a sealed image artifact and decodes it. JPEG, PNG and
// the WebP artifacts written by earlier releases are recognized. The
// returned string is the detected format name.
func (v *Vault) DecryptImage(path string) (image.Image, string, error) {
	data, err := v.DecryptFile(path)
	if err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}
	return img, format, nil
}
