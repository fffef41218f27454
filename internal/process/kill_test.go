package process

import (
	"errors"
	"runtime"
	"testing"
)

func TestKillTree_RejectsNonPositivePID(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1} {
		if err := KillTree(pid); !errors.Is(err, ErrInvalidPID) {
			t.Errorf("KillTree(%d) error = %v, want ErrInvalidPID", pid, err)
		}
	}
}

func TestKillTree_MissingGroup(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("taskkill reports missing pids as failures")
	}
	// No process group has this id.
	if err := KillTree(999999999); err != nil {
		t.Errorf("KillTree() on a missing group = %v, want nil", err)
	}
}
