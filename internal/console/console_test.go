package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_StripsMarkupWithoutColor(t *testing.T) {
	c := New(&bytes.Buffer{}, Options{})
	assert.Equal(t, "Node \"Home\" of type Acme:Page", c.Render(`Node <b>"Home"</b> of type <i>Acme:Page</i>`))
	assert.Equal(t, "Node not found", c.Render("<error>Node not found</error>"))
}

func TestRender_TranslatesMarkupWithColor(t *testing.T) {
	c := New(&bytes.Buffer{}, Options{Color: true})
	assert.Equal(t, "\033[1mbold\033[22m", c.Render("<b>bold</b>"))
	assert.Equal(t, "\033[32mok\033[39m", c.Render("<success>ok</success>"))
}

func TestOutputLine_FormatsOnlyWithArguments(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, Options{})

	c.OutputLine("100% done")
	c.OutputLine("<b>%d.:</b>", 3)
	c.Output("Workspace: %s ", "live")
	c.NewLine()

	assert.Equal(t, "100% done\n3.:\nWorkspace: live \n", buf.String())
}

func TestProgress_DisabledWithoutWriter(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, Options{})
	c.ProgressStart(3, "Checking")
	c.ProgressAdvance(1)
	c.ProgressFinish()
	assert.Empty(t, buf.String())
}

func TestProgress_RendersToProgressWriter(t *testing.T) {
	var out, progress bytes.Buffer
	c := New(&out, Options{Progress: &progress, Width: 40})
	c.ProgressStart(2, "Checking workspace live with a very long description")
	c.ProgressAdvance(1)
	c.ProgressAdvance(1)
	c.ProgressFinish()

	assert.Empty(t, out.String(), "progress must not leak into report output")
	require.NotEmpty(t, progress.String())
}

func TestFitDescription(t *testing.T) {
	c := New(&bytes.Buffer{}, Options{Width: 30})
	got := c.fitDescription(strings.Repeat("x", 40))
	assert.Equal(t, 15, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "short", c.fitDescription("short"))
}

func TestProgressWriter_NonTerminal(t *testing.T) {
	assert.Nil(t, ProgressWriter(&bytes.Buffer{}))
}
