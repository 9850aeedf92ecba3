package tools

// Platform holds OS/architecture information for tool downloads.
type Platform struct {
	OS   string // "linux", "darwin", "windows" (or "win32")
	Arch string // "amd64", "arm64"; "x64" is accepted as an alias
}

// NormalizeArch maps an architecture label to the naming used in kustomize
// release assets. Only "x64" is rewritten; every other label passes through.
func NormalizeArch(arch string) string {
	if arch == "x64" {
		return "amd64"
	}

	return arch
}

// Normalized returns p with its architecture normalized.
func (p Platform) Normalized() Platform {
	return Platform{OS: p.OS, Arch: NormalizeArch(p.Arch)}
}

// Marker is the "<os>_<arch>" fragment release asset names carry.
func (p Platform) Marker() string {
	return p.OS + "_" + NormalizeArch(p.Arch)
}

// IsWindows reports whether the platform belongs to the Windows family.
func (p Platform) IsWindows() bool {
	return p.OS == "windows" || p.OS == "win32"
}

// BinaryName returns the executable file name of tool on the platform.
func BinaryName(tool string, p Platform) string {
	if p.IsWindows() {
		return tool + ".exe"
	}

	return tool
}
