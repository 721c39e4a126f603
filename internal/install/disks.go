package install

import (
	"bufio"
	"context"
	"fmt"
	"path"
	"strings"

	"artixinstall/internal/runner"
)

// Disk is a whole block device.
type Disk struct {
	Path  string
	Size  string
	Model string
}

// Label is the one-line description used in the disk menu.
func (d Disk) Label() string {
	return fmt.Sprintf("%-12s  %8s   %s", d.Path, d.Size, d.Model)
}

// Partition is one partition on a [Disk].
type Partition struct {
	Path string
	Size string
	Type string
}

func (p Partition) Label() string {
	t := p.Type
	if t == "" {
		t = "(no type)"
	}
	return fmt.Sprintf("%-12s  %8s   %s", p.Path, p.Size, t)
}

const noModel = "—"

var (
	diskColumns      = []string{"--pairs", "--output", "NAME,SIZE,TYPE,MODEL", "--nodeps"}
	partitionColumns = []string{"--pairs", "--output", "NAME,SIZE,TYPE,PARTTYPENAME"}
)

// Discovery lists block devices with lsblk through an executor, so the same
// code serves real and simulated runs.
type Discovery struct {
	exec runner.Executor
}

// NewDiscovery creates a [Discovery].
func NewDiscovery(exec runner.Executor) *Discovery {
	return &Discovery{exec: exec}
}

func (d *Discovery) query(ctx context.Context, args []string, desc string) ([]map[string]string, error) {
	inv := runner.Invocation{Program: "lsblk", Args: args, Description: desc}
	res, err := d.exec.Execute(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("lsblk: %w", err)
	}
	if !res.Success() {
		return nil, fmt.Errorf("lsblk exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	var rows []map[string]string
	sc := bufio.NewScanner(strings.NewReader(res.Stdout))
	for sc.Scan() {
		if row := parsePairs(sc.Text()); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, sc.Err()
}

// ListDisks returns every device of type disk.
func (d *Discovery) ListDisks(ctx context.Context) ([]Disk, error) {
	rows, err := d.query(ctx, diskColumns, "List disks")
	if err != nil {
		return nil, err
	}

	var disks []Disk
	for _, row := range rows {
		if row["TYPE"] != "disk" {
			continue
		}
		model := strings.TrimSpace(row["MODEL"])
		if model == "" {
			model = noModel
		}
		disks = append(disks, Disk{
			Path:  "/dev/" + row["NAME"],
			Size:  row["SIZE"],
			Model: model,
		})
	}
	return disks, nil
}

// ListPartitions returns the partitions of disk.
func (d *Discovery) ListPartitions(ctx context.Context, disk string) ([]Partition, error) {
	args := append(append([]string{}, partitionColumns...), disk)
	rows, err := d.query(ctx, args, "List partitions of "+disk)
	if err != nil {
		return nil, err
	}

	var parts []Partition
	for _, row := range rows {
		if row["TYPE"] != "part" {
			continue
		}
		parts = append(parts, Partition{
			Path: "/dev/" + row["NAME"],
			Size: row["SIZE"],
			Type: row["PARTTYPENAME"],
		})
	}
	return parts, nil
}

// parsePairs parses one line of `lsblk --pairs` output:
//
//	NAME="sda1" SIZE="512M" TYPE="part" PARTTYPENAME="EFI System"
//
// lsblk escapes quotes inside values as \x22, so a value ends at the next
// double quote.
func parsePairs(line string) map[string]string {
	pairs := make(map[string]string)
	rest := strings.TrimSpace(line)

	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			break
		}
		fields := strings.Fields(rest[:eq])
		key := ""
		if len(fields) > 0 {
			key = fields[len(fields)-1]
		}
		rest = rest[eq+1:]

		if !strings.HasPrefix(rest, `"`) {
			break
		}
		rest = rest[1:]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			break
		}
		value := strings.ReplaceAll(rest[:end], `\x22`, `"`)
		rest = rest[end+1:]

		if key != "" {
			pairs[key] = value
		}
	}
	return pairs
}

// Canned lsblk output for dry runs.
var simulatedDisks = []Disk{
	{Path: "/dev/sda", Size: "20G", Model: "QEMU HARDDISK"},
	{Path: "/dev/sdb", Size: "8G", Model: "USB Flash Drive"},
}

var simulatedPartitions = []Partition{
	{Size: "512M", Type: "EFI System"},
	{Size: "2G", Type: "Linux swap"},
	{Size: "17.5G", Type: "Linux filesystem"},
}

// SimulatedLsblk answers lsblk queries in dry-run mode with a fixed pair of
// disks, each holding the three partitions of the standard layout.
func SimulatedLsblk(inv runner.Invocation) (string, bool) {
	if inv.Program != "lsblk" {
		return "", false
	}

	var b strings.Builder
	if len(inv.Args) > len(partitionColumns) && inv.Args[2] == partitionColumns[2] {
		disk := inv.Args[len(inv.Args)-1]
		fmt.Fprintf(&b, "NAME=%q SIZE=%q TYPE=\"disk\" PARTTYPENAME=\"\"\n", path.Base(disk), "20G")
		for i, p := range simulatedPartitions {
			name := path.Base(PartitionPath(disk, i+1))
			fmt.Fprintf(&b, "NAME=%q SIZE=%q TYPE=\"part\" PARTTYPENAME=%q\n", name, p.Size, p.Type)
		}
		return b.String(), true
	}

	for _, d := range simulatedDisks {
		fmt.Fprintf(&b, "NAME=%q SIZE=%q TYPE=\"disk\" MODEL=%q\n", path.Base(d.Path), d.Size, d.Model)
	}
	return b.String(), true
}
