package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandPath resolves a leading "~/" against the user's home directory.
// Paths without the prefix are returned unchanged.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ValidatePathSecurity rejects paths that traverse upward or point into
// system directories. It is static analysis only; it never touches the
// filesystem for the path itself.
func ValidatePathSecurity(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	if filepath.IsAbs(path) && isReservedDirectory(clean) {
		return fmt.Errorf("refusing to use system directory %s", clean)
	}

	return nil
}

// isReservedDirectory reports whether path is, or sits inside, a directory
// the application must never write to.
func isReservedDirectory(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	abs = filepath.Clean(abs)

	if abs == "/" || abs == "\\" || abs == "C:\\" {
		return true
	}

	for _, reserved := range reservedDirectories() {
		if strings.EqualFold(abs, reserved) {
			return true
		}
		prefix := strings.ToLower(reserved) + string(os.PathSeparator)
		if strings.HasPrefix(strings.ToLower(abs), prefix) {
			return true
		}
	}
	return false
}

func reservedDirectories() []string {
	var dirs []string
	switch runtime.GOOS {
	case "windows":
		dirs = []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
			"C:\\System32",
		}
	case "darwin":
		dirs = []string{
			"/System", "/usr/bin", "/usr/sbin", "/bin", "/sbin",
			"/etc", "/private/etc", "/Applications",
		}
	default:
		dirs = []string{
			"/bin", "/sbin", "/usr/bin", "/usr/sbin",
			"/etc", "/boot", "/dev", "/proc", "/sys",
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".ssh"),
			filepath.Join(home, ".gnupg"),
		)
	}
	return dirs
}

// IsDirEmpty reports whether the directory has no entries.
func IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// EnsureDir creates the directory and any missing parents with 0755.
func EnsureDir(path string) error {
	if err := ValidatePathSecurity(path); err != nil {
		return err
	}
	return os.MkdirAll(path, 0o755)
}

// RecreateDir removes the directory and everything under it, then creates
// it fresh. Destructive: existing contents are gone afterward. The path is
// validated before anything is removed.
func RecreateDir(path string) error {
	if err := ValidatePathSecurity(path); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove existing directory: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}
