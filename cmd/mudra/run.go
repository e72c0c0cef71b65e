package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/tray"
)

var runOpts struct {
	tray bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize gestures from the camera",
	Long: `Capture frames from the camera, detect hands with the MediaPipe
service and recognize gestures, while serving the HTTP API. With --tray
a system tray menu shows the last gesture and pauses recognition.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, cleanup, err := openApp()
		if err != nil {
			return err
		}
		defer cleanup()

		det, err := detector.NewMediaPipeDetector(cfg.DetectorConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to start detector: %w", err)
		}
		a.SetCamera(capture.NewCamera(cfg.CaptureConfig(), logger))
		a.SetDetector(det)

		if err := a.Start(ctx); err != nil {
			det.Close()
			return err
		}
		defer a.Stop()

		addr := serverAddr()
		errCh := make(chan error, 1)
		go func() {
			errCh <- newServer(a).Run(ctx, addr)
		}()

		if runOpts.tray {
			t := tray.New(a)
			t.OnSettings(func() {
				if err := openBrowser(browserURL(addr)); err != nil {
					logger.Warn("failed to open browser", "err", err)
				}
			})
			t.OnQuit(cancel)
			go func() {
				<-ctx.Done()
				t.Quit()
			}()
			// systray needs the main goroutine.
			t.Run()
			cancel()
		}

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-a.Done():
			logger.Info("camera pipeline stopped")
		}
		return nil
	},
}

func init() {
	addServerFlags(runCmd)
	runCmd.Flags().BoolVar(&runOpts.tray, "tray", false, "Show a system tray menu")
	rootCmd.AddCommand(runCmd)
}

// browserURL turns a listen address into a URL a browser can open.
func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
