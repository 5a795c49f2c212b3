//go:build mage
// +build mage

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var (
	binDir  = "bin"
	tmpDir  = "tmp"
	appName = "marketly-web"
)

var Default = Dev

// Dev runs the server with air when installed, otherwise go run.
func Dev() error {
	mg.Deps(Tidy)

	if _, err := exec.LookPath("air"); err == nil {
		fmt.Println("Starting hot-reload with air ...")
		return sh.RunV("air")
	}

	fmt.Println("air not found. Falling back to `go run ./cmd/web`.")
	fmt.Println("Install with: mage Tools")
	return Run()
}

func Run() error {
	fmt.Println("Running (go run) on :8080 ...")
	return sh.RunV("go", "run", "./cmd/web")
}

func Build() error {
	mg.Deps(Tidy)

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	for name, pkg := range map[string]string{
		appName:           "./cmd/web",
		"marketly-migrate": "./cmd/tools/migrate",
		"marketly-seed":    "./cmd/tools/seed",
	} {
		out := filepath.Join(binDir, name+exeSuffix())
		fmt.Println("Building:", out)
		env := map[string]string{"CGO_ENABLED": "0"}
		if err := sh.RunWithV(env, "go", "build", "-trimpath", "-o", out, pkg); err != nil {
			return err
		}
	}
	return nil
}

// Test needs cgo for the sqlite driver used by the test databases.
func Test() error {
	fmt.Println("Testing...")
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...", "-count=1")
}

func TestRace() error {
	fmt.Println("Testing with -race...")
	if runtime.GOOS == "windows" {
		fmt.Println("Note: -race on Windows may be unsupported/unstable depending on your Go toolchain.")
	}
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...", "-race", "-count=1")
}

func Fmt() error {
	fmt.Println("Formatting...")
	return sh.RunV("gofmt", "-w", "./cmd", "./internal", "./pkg", "./templates", "./magefile.go")
}

func Lint() error {
	fmt.Println("Linting (golangci-lint)...")
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		return fmt.Errorf("golangci-lint not found. Install with: mage Tools")
	}
	return sh.RunV("golangci-lint", "run", "--timeout=3m", "./...")
}

func Check() error {
	mg.Deps(Fmt, Lint, Test)
	fmt.Println("Check OK.")
	return nil
}

func Tidy() error {
	fmt.Println("Tidying go.mod/go.sum...")
	return sh.RunV("go", "mod", "tidy")
}

func Clean() error {
	fmt.Println("Cleaning...")
	_ = os.RemoveAll(binDir)
	_ = os.RemoveAll(tmpDir)
	return nil
}

// Tools installs air and golangci-lint v2.
func Tools() error {
	fmt.Println("Installing tools (air, golangci-lint)...")

	if err := sh.RunV("go", "install", "github.com/air-verse/air@latest"); err != nil {
		return err
	}
	if err := sh.RunV("go", "install", "github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest"); err != nil {
		return err
	}

	for _, bin := range []string{"air", "golangci-lint"} {
		if _, err := exec.LookPath(bin); err != nil && !errors.Is(err, exec.ErrNotFound) {
			return err
		}
	}

	fmt.Println("Tools installed. Ensure GOBIN/GOPATH/bin is in PATH.")
	return nil
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

type Migrate mg.Namespace

// Up applies pending migrations for the configured database.
func (Migrate) Up() error {
	return sh.RunV("go", "run", "./cmd/tools/migrate", "up")
}

// Down rolls back MIGRATE_STEPS migrations (default 1).
func (Migrate) Down() error {
	steps := 1
	if v := os.Getenv("MIGRATE_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MIGRATE_STEPS: %w", err)
		}
		steps = n
	}
	return sh.RunV("go", "run", "./cmd/tools/migrate", "down", "--steps", strconv.Itoa(steps))
}

func (Migrate) Version() error {
	return sh.RunV("go", "run", "./cmd/tools/migrate", "version")
}

// Seed loads demo data into a development database.
func Seed() error {
	mg.Deps(Migrate.Up)
	return sh.RunV("go", "run", "./cmd/tools/seed")
}
