package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hostdb", cmd.Use)
	assert.Contains(t, cmd.Long, "inventory")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"host", "group", "add", "var", "exclude", "snapshot", "resolve", "seed"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"snapshot", "--format", "xml", "--db", "unused.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

// run executes the CLI against a shared temp database and returns stdout.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--db", db))

	err := cmd.Execute()
	return out.String(), err
}

func TestEndToEndCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "inventory.db")

	_, err := run(t, db, "host", "add", "web1", "--ip", "192.0.2.10")
	require.NoError(t, err)
	_, err = run(t, db, "host", "add", "db1", "--ip", "192.0.2.20")
	require.NoError(t, err)
	_, err = run(t, db, "group", "add", "web_servers")
	require.NoError(t, err)
	_, err = run(t, db, "group", "add", "database_servers")
	require.NoError(t, err)

	_, err = run(t, db, "add", "host", "web1", "web_servers")
	require.NoError(t, err)
	_, err = run(t, db, "add", "host", "db1", "database_servers")
	require.NoError(t, err)
	_, err = run(t, db, "add", "group", "database_servers", "web_servers")
	require.NoError(t, err)

	_, err = run(t, db, "var", "set", "group", "web_servers", "http_port", "8080", "--json")
	require.NoError(t, err)

	out, err := run(t, db, "snapshot")
	require.NoError(t, err)
	assert.Contains(t, out, `"_meta"`)
	assert.Contains(t, out, `"web_servers":{"children":["database_servers"],"hosts":["web1"]}`)
	assert.Contains(t, out, `"http_port":8080`)

	out, err = run(t, db, "resolve", "db1")
	require.NoError(t, err)
	assert.Contains(t, out, `"ansible_host":"192.0.2.20"`)
	assert.Contains(t, out, `"http_port":8080`, "group variable inherited through the hierarchy")
}

func TestCycleRejectionExitCode(t *testing.T) {
	db := filepath.Join(t.TempDir(), "inventory.db")

	_, err := run(t, db, "group", "add", "a")
	require.NoError(t, err)
	_, err = run(t, db, "group", "add", "b")
	require.NoError(t, err)
	_, err = run(t, db, "add", "group", "b", "a")
	require.NoError(t, err)

	_, err = run(t, db, "add", "group", "a", "b")
	require.Error(t, err)
	assert.Equal(t, ExitRejected, GetExitCode(err))
}

func TestMissingDatabaseFlag(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"snapshot"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHostList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "inventory.db")

	_, err := run(t, db, "host", "add", "web1", "--ip", "192.0.2.10")
	require.NoError(t, err)

	out, err := run(t, db, "host", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "web1")
	assert.Contains(t, out, "192.0.2.10")
}
