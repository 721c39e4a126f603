package install

import (
	"fmt"
	"strconv"
	"strings"

	"artixinstall/internal/probe"
)

// Fixed layout sizes. The root partition takes the rest of the disk.
const (
	bootPartitionGiB = 1
	swapPartitionGiB = 10

	gib = 1 << 30
)

// Layout is the fixed three-partition scheme the installer formats.
type Layout struct {
	EFI  string
	Swap string
	Root string
}

// LayoutFor returns the partition paths 1, 2 and 3 of disk.
func LayoutFor(disk string) Layout {
	return Layout{
		EFI:  PartitionPath(disk, 1),
		Swap: PartitionPath(disk, 2),
		Root: PartitionPath(disk, 3),
	}
}

// PartitionPath returns the device node of partition n on disk. Devices
// whose name ends in a digit (nvme0n1, mmcblk0) take a "p" separator.
func PartitionPath(disk string, n int) string {
	base := strings.TrimPrefix(disk, "/dev/")
	if strings.HasPrefix(base, "nvme") || strings.HasPrefix(base, "mmcblk") || strings.HasPrefix(base, "loop") {
		return fmt.Sprintf("/dev/%sp%d", base, n)
	}
	return fmt.Sprintf("/dev/%s%d", base, n)
}

// ParseSize converts an lsblk size such as "20G", "931.5G", "1.8T" or "512M"
// to bytes. Unknown suffixes and malformed numbers yield 0.
func ParseSize(s string) uint64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	var mult float64
	switch s[len(s)-1] {
	case 'T':
		mult = 1 << 40
	case 'G':
		mult = 1 << 30
	case 'M':
		mult = 1 << 20
	default:
		return 0
	}

	n, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil || n < 0 {
		return 0
	}
	return uint64(n * mult)
}

// RootSizeLabel is the size left for the root partition once the boot and
// swap partitions are reserved, or "rest" when the disk size is unknown or
// too small.
func RootSizeLabel(diskSize string) string {
	total := ParseSize(diskSize)
	reserved := uint64(bootPartitionGiB+swapPartitionGiB) * gib
	if total <= reserved {
		return "rest"
	}
	return formatGiB(total - reserved)
}

func formatGiB(bytes uint64) string {
	g := float64(bytes) / gib
	if g >= 1024 {
		return fmt.Sprintf("%.1fT", g/1024)
	}
	return fmt.Sprintf("%.0fG", g)
}

// SuggestedLayout describes what the operator should create in the
// partition editor.
type SuggestedLayout struct {
	Disk     string
	Firmware probe.Firmware
	Rows     []LayoutRow
}

// LayoutRow is one partition of a [SuggestedLayout].
type LayoutRow struct {
	Path string
	Role string
	Size string
}

// Suggest builds the suggested layout for disk. On BIOS the first partition
// is a plain boot partition instead of an EFI system partition.
func Suggest(disk Disk, fw probe.Firmware) SuggestedLayout {
	l := LayoutFor(disk.Path)
	first := "EFI"
	if fw == probe.FirmwareBIOS {
		first = "boot"
	}
	return SuggestedLayout{
		Disk:     disk.Path,
		Firmware: fw,
		Rows: []LayoutRow{
			{Path: l.EFI, Role: first, Size: fmt.Sprintf("%dG", bootPartitionGiB)},
			{Path: l.Swap, Role: "swap", Size: fmt.Sprintf("%dG", swapPartitionGiB)},
			{Path: l.Root, Role: "root", Size: RootSizeLabel(disk.Size)},
		},
	}
}
