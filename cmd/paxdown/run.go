package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"paxdown/internal/config"
)

var runDaemon bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the countdown daemon",
	Long: `Run the countdown daemon. It restores any persisted tracking, then
updates the channel label once per tick.

By default runs in foreground. Use --daemon to run in background.
SIGHUP makes a running daemon re-read the persisted tracking state.

Examples:
  paxdown run           # Run in foreground
  paxdown run --daemon  # Run in background`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDaemon, "daemon", false, "Run in background as daemon")
	rootCmd.AddCommand(runCmd)
}

// Path helpers

func getPIDPath() string {
	return config.ExpandPath("~/.paxdown/paxdown.pid")
}

func getLogPath() string {
	return config.ExpandPath("~/.paxdown/paxdown.log")
}

// PID file management

func writePID(pid int) error {
	pidPath := getPIDPath()
	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(getPIDPath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() error {
	return os.Remove(getPIDPath())
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; send signal 0 to check.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// notifyDaemon sends sig to a running daemon, reporting whether one was
// found.
func notifyDaemon(sig syscall.Signal) bool {
	pid, err := readPID()
	if err != nil || !isProcessRunning(pid) {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(sig) == nil
}

func openLogFile() (*os.File, error) {
	logPath := getLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

func runRun(cmd *cobra.Command, args []string) error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("daemon already running (PID %d)", pid)
	}

	if runDaemon {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		// Re-exec without --daemon to avoid an infinite fork loop.
		cmdArgs := []string{"run"}
		if configPath != config.DefaultConfigPath {
			cmdArgs = append(cmdArgs, "--config", configPath)
		}

		daemonCmd := exec.Command(execPath, cmdArgs...)
		daemonCmd.Stdout = nil
		daemonCmd.Stderr = nil
		daemonCmd.Stdin = nil
		daemonCmd.SysProcAttr = &syscall.SysProcAttr{
			Setsid: true,
		}

		if err := daemonCmd.Start(); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}

		fmt.Printf("Daemon started in background (PID %d)\n", daemonCmd.Process.Pid)
		return nil
	}

	return runForeground()
}

func runForeground() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("no Discord token configured (set discord.token in %s)", configPath)
	}

	if err := writePID(os.Getpid()); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer removePID()

	logFile, err := openLogFile()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
	log.SetFlags(log.Ldate | log.Ltime)

	log.Println("[daemon] paxdown starting...")
	log.Printf("[daemon] Config: %s", configPath)
	log.Printf("[daemon] State: %s (%s)", cfg.StatePath(), cfg.Storage.Backend)
	log.Printf("[daemon] PID: %d", os.Getpid())

	t, st, err := buildTracker(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	defer t.Close()

	if err := t.Restore(); err != nil {
		// A broken restore is not fatal: commands can still reach us
		// via SIGHUP once the store recovers.
		log.Printf("[daemon] restore failed: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigCh
		switch sig {
		case syscall.SIGHUP:
			log.Println("[daemon] Received SIGHUP, reloading tracking state...")
			if err := t.Restore(); err != nil {
				log.Printf("[daemon] reload failed: %v", err)
			}

		case syscall.SIGINT, syscall.SIGTERM:
			log.Println("[daemon] Received shutdown signal, stopping...")
			t.Close()
			log.Println("[daemon] Stopped")
			return nil
		}
	}
}
