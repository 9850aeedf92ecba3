package actions_test

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/setup-kustomize/internal/actions"
)

func TestAddPath_EnvFile(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")

	pathFile := filepath.Join(t.TempDir(), "path")
	require.NoError(t, os.WriteFile(pathFile, []byte("/existing\n"), 0o600))

	var out bytes.Buffer

	cmds := actions.NewCommands(&out, actions.Env{PathFile: pathFile})
	require.NoError(t, cmds.AddPath("/opt/kustomize"))

	data, err := os.ReadFile(pathFile)
	require.NoError(t, err)
	assert.Equal(t, "/existing\n/opt/kustomize\n", string(data))
	assert.Empty(t, out.String())
	assert.Equal(t, "/opt/kustomize"+string(os.PathListSeparator)+"/usr/bin", os.Getenv("PATH"))
}

func TestAddPath_Command(t *testing.T) {
	t.Setenv("PATH", "")

	var out bytes.Buffer

	cmds := actions.NewCommands(&out, actions.Env{})
	require.NoError(t, cmds.AddPath("/opt/kustomize"))

	assert.Equal(t, "::add-path::/opt/kustomize\n", out.String())
	assert.Equal(t, "/opt/kustomize", os.Getenv("PATH"))
}

func TestSetOutput_EnvFile(t *testing.T) {
	t.Parallel()

	outputFile := filepath.Join(t.TempDir(), "output")

	var out bytes.Buffer

	cmds := actions.NewCommands(&out, actions.Env{OutputFile: outputFile})
	require.NoError(t, cmds.SetOutput("version", "5.0.0"))
	require.NoError(t, cmds.SetOutput("path", "/opt/kustomize"))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	re := regexp.MustCompile(`^version<<(ghadelimiter_[0-9a-f-]+)\n5\.0\.0\n(ghadelimiter_[0-9a-f-]+)\npath<<`)
	m := re.FindStringSubmatch(string(data))
	require.Len(t, m, 3, "unexpected output file:\n%s", data)
	assert.Equal(t, m[1], m[2])
	assert.Contains(t, string(data), "\n/opt/kustomize\n")
	assert.Empty(t, out.String())
}

func TestSetOutput_Command(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	cmds := actions.NewCommands(&out, actions.Env{})
	require.NoError(t, cmds.SetOutput("path", "C:\\tools,x:y"))

	assert.Equal(t, "::set-output name=path::C:\\tools,x:y\n", out.String())
}

func TestSetOutput_MissingDir(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	cmds := actions.NewCommands(&out, actions.Env{OutputFile: filepath.Join(t.TempDir(), "missing", "output")})
	err := cmds.SetOutput("version", "5.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting output version")
}

func TestSetFailed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		msg      string
		expected string
	}{
		{name: "plain", msg: "release not found", expected: "::error::release not found\n"},
		{name: "multiline", msg: "first\nsecond\r", expected: "::error::first%0Asecond%0D\n"},
		{name: "percent", msg: "100% broken", expected: "::error::100%25 broken\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			actions.NewCommands(&out, actions.Env{}).SetFailed(tt.msg)
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	cmds := actions.NewCommands(&out, actions.Env{})
	cmds.Mask("")
	cmds.Mask("ghp_secret")

	assert.Equal(t, "::add-mask::ghp_secret\n", out.String())
}

func TestEnvFromOS(t *testing.T) {
	t.Setenv("GITHUB_PATH", "/runner/path")
	t.Setenv("GITHUB_OUTPUT", "/runner/output")

	assert.Equal(t, actions.Env{PathFile: "/runner/path", OutputFile: "/runner/output"}, actions.EnvFromOS())
}
