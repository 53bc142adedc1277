package pagemem

import (
	"path/filepath"
	"regexp"
)

// Swap directories are keyed by the node's consistent ID, which may carry
// host:port or dotted forms unsafe in a path.
var unsafePathChars = regexp.MustCompile(`[:,.]`)

// SanitizeConsistentID rewrites path-unsafe characters of a consistent ID.
func SanitizeConsistentID(consistentID string) string {
	return unsafePathChars.ReplaceAllString(consistentID, "_")
}

// ResolveSwapDir builds the swap directory for one region: the configured
// swap path, the sanitized node folder, the region name.
func ResolveSwapDir(swapFilePath, consistentID, regionName string) string {
	return filepath.Join(swapFilePath, SanitizeConsistentID(consistentID), regionName)
}
