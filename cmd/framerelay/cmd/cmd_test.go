package cmd

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teslashibe/framerelay/internal/log"
	"github.com/teslashibe/framerelay/pkg/frame"
	"github.com/teslashibe/framerelay/pkg/relay"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if !strings.HasPrefix(out.String(), "framerelay ") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestHelpTextHasNoEmDash(t *testing.T) {
	for _, c := range rootCmd.Commands() {
		for _, text := range []string{c.Short, c.Long} {
			if strings.ContainsRune(text, '\u2014') {
				t.Errorf("%s help contains an em dash: %q", c.Name(), text)
			}
		}
	}
	if rootCmd.Short != "Latest-frame relay server" {
		t.Errorf("root Short = %q", rootCmd.Short)
	}
}

func TestPostFrameToRelay(t *testing.T) {
	store := frame.NewStore()
	srv := relay.New(store, relay.WithLogger(log.Discard()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Listener(ln)
	defer srv.Shutdown()

	img := []byte("\xff\xd8\xff\xe0fake-jpeg")
	payload := frame.EncodeDataURI("image/jpeg", img)

	if err := postFrame(context.Background(), "http://"+ln.Addr().String()+"/frame", payload); err != nil {
		t.Fatalf("postFrame: %v", err)
	}

	f, err := store.ReadLatest()
	if err != nil {
		t.Fatalf("ReadLatest: %v", err)
	}
	if !bytes.Equal(f.Data, img) {
		t.Errorf("stored %q, want %q", f.Data, img)
	}
	if f.Timestamp.IsZero() {
		t.Error("push should send a client timestamp")
	}
}

func TestPostFrameRejected(t *testing.T) {
	srv := relay.New(frame.NewStore(), relay.WithLogger(log.Discard()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Listener(ln)
	defer srv.Shutdown()

	err = postFrame(context.Background(), "http://"+ln.Addr().String()+"/frame", "")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("err = %v, want a 400 rejection", err)
	}
}

func TestResolveConfigFlagsWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.toml")
	os.WriteFile(path, []byte("port = 9000\nprogress_every = 5\n"), 0o644)

	t.Setenv("PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "from-env")

	flags := serveCmd.Flags()
	flags.Set("config", path)
	flags.Set("port", "9200")
	t.Cleanup(func() {
		flags.Set("config", "")
		flags.Set("port", "8080")
		flags.Lookup("config").Changed = false
		flags.Lookup("port").Changed = false
	})

	cfg, err := resolveConfig(serveCmd)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Port != 9200 {
		t.Errorf("Port = %d, want 9200 from flag", cfg.Port)
	}
	if cfg.ProgressEvery != 5 {
		t.Errorf("ProgressEvery = %d, want 5 from file", cfg.ProgressEvery)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.Gemini.APIKey)
	}
}
