package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSpace(t *testing.T) {
	d := NewDocument()
	assert.Equal(t, Margin, d.Y())

	// fits exactly
	assert.False(t, d.EnsureSpace(PageHeight-2*Margin))

	d.SetY(PageHeight - Margin - 5)
	assert.False(t, d.EnsureSpace(5))
	assert.True(t, d.EnsureSpace(5.1))
	assert.Equal(t, Margin, d.Y())
	assert.Equal(t, 2, d.PageCount())
}

func TestPageCountIsBreaksPlusOne(t *testing.T) {
	d := NewDocument()

	// natural breaks from line flow
	for i := 0; i < 100; i++ {
		d.Line("line", LineHeight)
	}
	// forced break
	d.NewPage()

	assert.Equal(t, 1+d.Breaks(), d.PageCount())
	assert.Greater(t, d.Breaks(), 2)
}

func TestOnNewPageHook(t *testing.T) {
	d := NewDocument()
	pages := 0
	d.OnNewPage(func(d *Document) {
		pages++
		d.Advance(LineHeight)
	})

	d.SetY(PageHeight - Margin)
	d.EnsureSpace(LineHeight)

	assert.Equal(t, 1, pages)
	assert.Equal(t, Margin+LineHeight, d.Y())
}

func TestWrap(t *testing.T) {
	d := NewDocument()
	d.SetFont("", 11)

	long := strings.Repeat("growth ", 80)
	lines := d.Wrap(long + "\n\nsecond paragraph")

	require.Greater(t, len(lines), 3)
	assert.Equal(t, "second paragraph", lines[len(lines)-1])
	assert.Equal(t, "", lines[len(lines)-2])
}

func TestBytes(t *testing.T) {
	d := NewDocument()
	d.Line("hello", LineHeight)
	d.StampFooters(func(page, total int) string { return "footer" })

	data, err := d.Bytes()
	require.NoError(t, err)

	pages, err := verify(data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}
