// Package testing switches the binaries into test mode when blank imported
// from a test package.
package testing

import (
	"os"
	"path/filepath"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("LEDGERD_TEST_MODE", "1")
		if os.Getenv("STORAGE_DIR") == "" {
			_ = os.Setenv("STORAGE_DIR", filepath.Join(os.TempDir(), "ledgerd-test-archive"))
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
