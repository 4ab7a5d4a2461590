package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/famblob/pkg/di"
)

const sampleDoc = `regs:
  rax: 1
  rip: 4096
  rflags: 2
msrs:
  - index: 372
    data: 16
  - index: 373
    data: 32
cpuid:
  - function: 0
    eax: 13
    ebx: 1970169159
`

// testEnv is a scratch config and data directory for one test
type testEnv struct {
	dir     string
	config  string
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:     dir,
		config:  filepath.Join(dir, "famctl.yaml"),
		dataDir: filepath.Join(dir, "data"),
	}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// run executes famctl with the env's config and data directory
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommand(t, append([]string{"--config", e.config, "--data-dir", e.dataDir}, args...)...)
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	if container == nil {
		SetContainer(di.NewContainer())
	}
	resetCommands(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if !slices.Contains(args, "--log-level") {
		args = append(args, "--log-level", "warn")
	}
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetCommands clears flag values and contexts left over from a previous
// execution of the package-level commands
func resetCommands(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	c.SetContext(nil) //nolint:staticcheck // cobra inherits the parent context only when unset
	for _, sub := range c.Commands() {
		resetCommands(sub)
	}
}
