package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPicksPlatformCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{goos: "darwin", wantName: "open", wantArgs: []string{"https://accounts.google.com/o"}},
		{goos: "linux", wantName: "xdg-open", wantArgs: []string{"https://accounts.google.com/o"}},
		{goos: "windows", wantName: "rundll32", wantArgs: []string{"url.dll,FileProtocolHandler", "https://accounts.google.com/o"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.goos, func(t *testing.T) {
			t.Parallel()

			var gotName string
			var gotArgs []string
			err := open(tt.goos, "https://accounts.google.com/o", func(name string, args ...string) error {
				gotName, gotArgs = name, args
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, gotName)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	t.Parallel()

	err := open("linux", "file:///etc/passwd", func(string, ...string) error {
		t.Fatal("must not start a command")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-HTTP")
}

func TestOpenUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	err := open("plan9", "https://example.com", func(string, ...string) error { return nil })
	assert.ErrorContains(t, err, "unsupported platform plan9")
}
