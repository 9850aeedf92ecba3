// Package actions speaks the GitHub Actions runner protocol: workflow commands
// on stdout and the GITHUB_PATH / GITHUB_OUTPUT environment files.
package actions

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Env locates the runner's environment files. Empty paths fall back to
// workflow commands on stdout.
type Env struct {
	PathFile   string
	OutputFile string
}

// EnvFromOS reads GITHUB_PATH and GITHUB_OUTPUT.
func EnvFromOS() Env {
	return Env{
		PathFile:   os.Getenv("GITHUB_PATH"),
		OutputFile: os.Getenv("GITHUB_OUTPUT"),
	}
}

// Commands issues workflow commands and writes environment files.
type Commands struct {
	out io.Writer
	env Env
}

// NewCommands creates Commands writing workflow commands to out.
func NewCommands(out io.Writer, env Env) *Commands {
	return &Commands{out: out, env: env}
}

// AddPath makes dir visible to later steps and prepends it to this
// process's PATH.
func (c *Commands) AddPath(dir string) error {
	if c.env.PathFile != "" {
		if err := appendLine(c.env.PathFile, dir+"\n"); err != nil {
			return fmt.Errorf("adding %s to GITHUB_PATH: %w", dir, err)
		}
	} else {
		c.issue("add-path", nil, dir)
	}

	path := dir
	if cur := os.Getenv("PATH"); cur != "" {
		path = dir + string(os.PathListSeparator) + cur
	}

	if err := os.Setenv("PATH", path); err != nil {
		return fmt.Errorf("updating PATH: %w", err)
	}

	return nil
}

// SetOutput publishes a step output.
func (c *Commands) SetOutput(name, value string) error {
	if c.env.OutputFile == "" {
		c.issue("set-output", map[string]string{"name": name}, value)

		return nil
	}

	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("output %s contains the delimiter", name)
	}

	entry := name + "<<" + delimiter + "\n" + value + "\n" + delimiter + "\n"
	if err := appendLine(c.env.OutputFile, entry); err != nil {
		return fmt.Errorf("setting output %s: %w", name, err)
	}

	return nil
}

// Mask asks the runner to redact secret from all later log output.
func (c *Commands) Mask(secret string) {
	if secret == "" {
		return
	}

	c.issue("add-mask", nil, secret)
}

// SetFailed reports msg as an error annotation. The caller is expected to
// exit non-zero afterwards.
func (c *Commands) SetFailed(msg string) {
	c.issue("error", nil, msg)
}

func (c *Commands) issue(command string, props map[string]string, msg string) {
	_, _ = io.WriteString(c.out, formatCommand(command, props, msg)+"\n")
}

// formatCommand renders "::command key=value,key=value::message".
func formatCommand(command string, props map[string]string, msg string) string {
	var b strings.Builder

	b.WriteString("::")
	b.WriteString(command)

	if len(props) > 0 {
		b.WriteString(" ")

		first := true

		for _, k := range slices.Sorted(maps.Keys(props)) {
			if !first {
				b.WriteString(",")
			}

			first = false

			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(escapeProperty(props[k]))
		}
	}

	b.WriteString("::")
	b.WriteString(escapeData(msg))

	return b.String()
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // runner-owned file
	if err != nil {
		return err
	}

	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}
