package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-lab/annotator/internal/buildinfo"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := RootCommand(buildinfo.New("v0.1.0", "2026-10-01"))

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "import"})
}

func TestRootCommand_Version(t *testing.T) {
	root := RootCommand(buildinfo.New("v0.1.0", "2026-10-01"))
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "v0.1.0 (built 2026-10-01)")
}
