package repo_test

import (
	"testing"

	"github.com/hamed0406/credcheck/internal/repo"
	"github.com/hamed0406/credcheck/internal/repo/memory"
	pg "github.com/hamed0406/credcheck/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.RunStore = memory.New()
	var _ repo.RunStore = (*pg.Store)(nil)
}
