package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewPrinterWithWriter(buf), buf
}

func TestPrinter_StatusLines(t *testing.T) {
	tests := []struct {
		name  string
		print func(p *Printer)
		want  string
	}{
		{"success", func(p *Printer) { p.Success("mounted %s", "/mnt") }, "  ✓  mounted /mnt"},
		{"info", func(p *Printer) { p.Info("target %s", "/dev/sda") }, "  →  target /dev/sda"},
		{"warning", func(p *Printer) { p.Warning("swap already off") }, "  ⚠  swap already off"},
		{"error", func(p *Printer) { p.Error("exit %d", 32) }, "  ✗  exit 32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := newTestPrinter()
			tt.print(p)
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestPrinter_NoEscapeCodesForNonTerminal(t *testing.T) {
	p, buf := newTestPrinter()

	p.Banner("Artix Installer", "OpenRC")
	p.StepHeader(1, 8, "Partition disk")
	p.Success("done")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPrinter_StepHeader(t *testing.T) {
	p, buf := newTestPrinter()

	p.StepHeader(3, 8, "Mount partitions")

	assert.Contains(t, buf.String(), "[3/8] Mount partitions")
}

func TestPrinter_Banner(t *testing.T) {
	p, buf := newTestPrinter()

	p.Banner("Artix Installer", "dry run")

	out := buf.String()
	assert.Contains(t, out, "Artix Installer")
	assert.Contains(t, out, "dry run")
}

func TestPrinter_KVBox(t *testing.T) {
	p, buf := newTestPrinter()

	p.KVBox("Layout", []Row{
		{Key: "EFI", Value: "/dev/sda1"},
		{Key: "Root", Value: "/dev/sda3"},
	})

	out := buf.String()
	assert.Contains(t, out, "Layout")
	assert.Contains(t, out, "EFI   /dev/sda1")
	assert.Contains(t, out, "Root  /dev/sda3")
}

func TestPrinter_DryRun(t *testing.T) {
	p, buf := newTestPrinter()

	p.DryRun("mkfs.ext4 /dev/sda3")

	assert.Equal(t, "  [dry-run] mkfs.ext4 /dev/sda3\n", buf.String())
}

func TestPrinter_Prompt(t *testing.T) {
	p, buf := newTestPrinter()

	p.Prompt("Continue? [y/n]")

	assert.Equal(t, "Continue? [y/n] ", buf.String())
	assert.False(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestPrinter_Writer(t *testing.T) {
	p, buf := newTestPrinter()
	assert.Same(t, buf, p.Writer())
}
