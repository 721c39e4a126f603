package install

import "fmt"

// KernelVariant is one of the kernels Artix ships.
type KernelVariant string

const (
	KernelStable KernelVariant = "stable"
	KernelLTS    KernelVariant = "lts"
	KernelZen    KernelVariant = "zen"
)

// KernelVariants lists the variants in menu order. Stable is the default.
var KernelVariants = []KernelVariant{KernelStable, KernelLTS, KernelZen}

// Valid reports whether k is a known variant.
func (k KernelVariant) Valid() bool {
	switch k {
	case KernelStable, KernelLTS, KernelZen:
		return true
	}
	return false
}

// Package is the package basestrap installs for k.
func (k KernelVariant) Package() string {
	switch k {
	case KernelLTS:
		return "linux-lts"
	case KernelZen:
		return "linux-zen"
	default:
		return "linux"
	}
}

func (k KernelVariant) DisplayName() string {
	switch k {
	case KernelLTS:
		return "Linux LTS (long-term support)"
	case KernelZen:
		return "Linux Zen (performance-optimized)"
	default:
		return "Linux stable"
	}
}

// Summary is the one-line trade-off shown in the kernel table.
func (k KernelVariant) Summary() string {
	switch k {
	case KernelLTS:
		return "long-term support, stability over features"
	case KernelZen:
		return "performance-tuned, lower latency for desktop and gaming"
	default:
		return "latest mainline kernel, best hardware support"
	}
}

// ParseKernelVariant accepts a variant name or its package name.
func ParseKernelVariant(s string) (KernelVariant, error) {
	for _, k := range KernelVariants {
		if s == string(k) || s == k.Package() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kernel variant %q (want stable, lts or zen)", s)
}
