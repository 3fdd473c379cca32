package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/framerelay/internal/httpc"
	"github.com/teslashibe/framerelay/pkg/frame"
	"github.com/teslashibe/framerelay/pkg/relay"
)

var pushFlags struct {
	url      string
	count    int
	interval time.Duration
}

var pushCmd = &cobra.Command{
	Use:   "push <image>",
	Short: "Post an image file to a running relay",
	Long:  "Encodes an image as a data URI and posts it to /frame, optionally repeating to simulate a camera feed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

func init() {
	f := pushCmd.Flags()
	f.StringVar(&pushFlags.url, "url", "http://localhost:8080", "relay base URL")
	f.IntVarP(&pushFlags.count, "count", "n", 1, "number of times to post (0 posts until interrupted)")
	f.DurationVar(&pushFlags.interval, "interval", 200*time.Millisecond, "delay between posts")
}

func runPush(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%s does not look like an image (%s)", args[0], mediaType)
	}
	payload := frame.EncodeDataURI(mediaType, data)
	endpoint := strings.TrimRight(pushFlags.url, "/") + "/frame"

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	for i := 1; pushFlags.count <= 0 || i <= pushFlags.count; i++ {
		if err := postFrame(ctx, endpoint, payload); err != nil {
			return fmt.Errorf("post %d: %w", i, err)
		}
		fmt.Fprintf(out, "posted frame %d (%d bytes)\n", i, len(data))

		if pushFlags.count > 0 && i == pushFlags.count {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pushFlags.interval):
		}
	}
	return nil
}

func postFrame(ctx context.Context, endpoint, payload string) error {
	body, err := json.Marshal(relay.FrameRequest{
		Image:     payload,
		Timestamp: relay.ClientTimestamp{Time: time.Now()},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
