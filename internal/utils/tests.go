package util

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
)

func CreateTempSwapDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), fmt.Sprintf("regiondb-swap-%d", rand.Intn(100)+10))
}
