package browser

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

type starter func(name string, args ...string) error

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open launches the platform browser on an http(s) URL.
func Open(url string) error {
	return open(runtime.GOOS, url, startCommand)
}

func open(goos string, url string, start starter) error {
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return fmt.Errorf("refusing to open non-HTTP URL: %s", url)
	}

	switch goos {
	case "darwin":
		return start("open", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		return start("xdg-open", url)
	case "windows":
		return start("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform %s", goos)
	}
}
