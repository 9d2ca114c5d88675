package process

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/foliolabs/foliosync/internal/logger"
	"github.com/foliolabs/foliosync/internal/utils"
)

// BackendProcess represents a running folio-core backend process
type BackendProcess struct {
	Cmd     *exec.Cmd
	Process *os.Process
	Port    int
	BinPath string
}

// StartBackend starts the folio-core backend and waits for its API to come up
func StartBackend(binPath string, port int, apiReadyTimeout int, dataDir string) (*BackendProcess, error) {
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port must be between 1024 and 65535, got: %d", port)
	}

	logger.Info("Starting folio-core at port %d...", port)

	if !filepath.IsAbs(binPath) {
		absPath, err := filepath.Abs(binPath)
		if err != nil {
			return nil, fmt.Errorf("invalid binary path: %v", err)
		}
		binPath = absPath
	}

	binPath = filepath.Clean(binPath)
	var args []string
	args = append(args, "--api-port", strconv.Itoa(port))

	if dataDir != "" {
		args = append(args, "--data-dir", dataDir)
	}

	// #nosec G204 - Parameters have been validated and sanitized above
	cmd := exec.Command(binPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start folio-core: %w", err)
	}

	backend := &BackendProcess{
		Cmd:     cmd,
		Process: cmd.Process,
		Port:    port,
		BinPath: binPath,
	}

	isAPIReady := utils.WaitForAPIReady(port, apiReadyTimeout, time.Second)

	if !isAPIReady {
		logger.Error("Failed to start folio-core API. Exiting...")
		if backend.Process != nil {
			if err := backend.Process.Kill(); err != nil {
				logger.Error("Failed to kill folio-core process: %v", err)
			}
		}
		return nil, fmt.Errorf("API failed to become ready after %d attempts", apiReadyTimeout)
	}

	return backend, nil
}

// WaitForExit waits for the backend to exit or for a signal to terminate it
func (b *BackendProcess) WaitForExit() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- b.Cmd.Wait()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, terminating folio-core...", sig)
		if b.Process != nil {
			if err := b.Process.Kill(); err != nil {
				return err
			}
		}
		return fmt.Errorf("process terminated by signal: %v", sig)
	case err := <-done:
		if err != nil {
			logger.Error("folio-core exited with error: %v", err)
			return fmt.Errorf("process exited with error: %w", err)
		}
		logger.Info("folio-core exited successfully")
		return nil
	}
}
