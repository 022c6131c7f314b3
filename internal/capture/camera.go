package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

var defaultCameraDevice = func() string {
	switch runtime.GOOS {
	case "darwin":
		return "0"
	case "windows":
		return "video=Integrated Camera"
	default:
		return "/dev/video0"
	}
}()

// Camera reads a single frame from the default webcam by running ffmpeg
// and decoding the MJPEG frame it writes to stdout.
type Camera struct {
	Command string
	Device  string
	Timeout time.Duration
}

func (c *Camera) Grab(ctx context.Context) (image.Image, error) {
	command := c.Command
	if command == "" {
		command = "ffmpeg"
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, c.args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("camera timed out after %s", timeout)
		}
		return nil, fmt.Errorf("camera command failed: %w: %s", err, lastLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("camera returned no frame")
	}

	img, err := jpeg.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode camera frame: %w", err)
	}
	return img, nil
}

func (c *Camera) args() []string {
	device := c.Device
	if device == "" {
		device = defaultCameraDevice
	}
	var input []string
	switch runtime.GOOS {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", device}
	case "windows":
		input = []string{"-f", "dshow", "-i", device}
	default:
		input = []string{"-f", "v4l2", "-i", device}
	}
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, input...)
	return append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "mjpeg", "-")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
