package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/suno-archive/internal/store"
	"github.com/franz/suno-archive/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure sunoarc can operate correctly.

This command checks:
- SQLite version
- Database accessibility and integrity
- Chrome remote debugging endpoint
- Output directory permissions
- Disk space availability

Use this command to troubleshoot issues before running an extraction.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== sunoarc Doctor - System Diagnostics ===")
	util.InfoLog("")

	v := viper.GetViper()
	outputDir := GetConfigString(v, "extract.output_dir", "suno_songs")

	results := []checkResult{
		checkSQLite(),
		checkDatabase(v.GetString("db")),
		checkBrowser(browserConfigFrom(v).DebugURL),
		checkOutputDirectory(outputDir),
		checkDiskSpace(outputDir, "output"),
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before running sunoarc.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before extracting.")
	} else {
		util.SuccessLog("✅ All checks passed! Ready to extract.")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite reports a version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies the catalog file opens and passes integrity checks
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	songCount, _ := db.CountSongs(context.Background())

	return checkResult{
		name:    "Database",
		message: fmt.Sprintf("%s (%s, %s songs)", dbPath, humanize.Bytes(uint64(info.Size())), humanize.Comma(int64(songCount))),
	}
}

// checkBrowser asks the remote debugging endpoint for its version.
// The extraction cannot run without it, but other commands can.
func checkBrowser(debugURL string) checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	endpoint := strings.TrimRight(debugURL, "/") + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return checkResult{
			name:    "Browser",
			error:   true,
			message: fmt.Sprintf("invalid debug URL %q: %v", debugURL, err),
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return checkResult{
			name:    "Browser",
			warning: true,
			message: fmt.Sprintf("not reachable at %s (start Chrome with --remote-debugging-port=9222)", debugURL),
		}
	}
	defer resp.Body.Close()

	var version struct {
		Browser string `json:"Browser"`
	}
	if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&version) != nil {
		return checkResult{
			name:    "Browser",
			warning: true,
			message: fmt.Sprintf("%s did not answer as a debugging endpoint (HTTP %d)", debugURL, resp.StatusCode),
		}
	}

	if version.Browser == "" {
		version.Browser = "unknown browser"
	}
	return checkResult{
		name:    "Browser",
		message: fmt.Sprintf("%s at %s", version.Browser, debugURL),
	}
}

// checkOutputDirectory verifies the extraction output directory is writable
func checkOutputDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Output directory",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Output directory",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Output directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Output directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	testFile := filepath.Join(path, ".sunoarc_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Output directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Output directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)

	// Extraction output is small; audio downloads are not.
	warning := availBytes < 1<<30
	msg := fmt.Sprintf("%s available", humanize.Bytes(availBytes))
	if warning {
		msg += " (low space!)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: msg,
	}
}
