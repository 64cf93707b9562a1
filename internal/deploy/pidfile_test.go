package deploy

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func newPIDFile(t *testing.T) *PIDFile {
	t.Helper()
	return NewPIDFile(filepath.Join(t.TempDir(), "run", "overlay.pid"))
}

func TestPIDFile_WriteRead(t *testing.T) {
	pf := newPIDFile(t)

	if err := pf.Write("127.0.0.1:9191"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := pf.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.PID != os.Getpid() || info.Addr != "127.0.0.1:9191" {
		t.Fatalf("info = %+v, want pid %d", info, os.Getpid())
	}
}

func TestPIDFile_Read_NotExist(t *testing.T) {
	info, err := newPIDFile(t).Read()
	if err != nil {
		t.Fatalf("Read: unexpected error: %v", err)
	}
	if info != (Info{}) {
		t.Fatalf("info = %+v, want zero for missing file", info)
	}
}

func TestPIDFile_Read_PIDOnly(t *testing.T) {
	pf := newPIDFile(t)
	os.MkdirAll(filepath.Dir(pf.Path()), 0o755)
	if err := os.WriteFile(pf.Path(), []byte("4242"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := pf.Read()
	if err != nil || info.PID != 4242 || info.Addr != "" {
		t.Errorf("info = %+v, %v", info, err)
	}
}

func TestPIDFile_Read_Invalid(t *testing.T) {
	for _, content := range []string{"not-a-number", "-3\n:80", ""} {
		pf := newPIDFile(t)
		os.MkdirAll(filepath.Dir(pf.Path()), 0o755)
		if err := os.WriteFile(pf.Path(), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := pf.Read(); err == nil {
			t.Errorf("Read(%q): expected error", content)
		}
	}
}

func TestPIDFile_Remove(t *testing.T) {
	pf := newPIDFile(t)
	if err := pf.Write(":0"); err != nil {
		t.Fatal(err)
	}
	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(pf.Path()); !os.IsNotExist(err) {
		t.Fatal("PID file still exists after Remove")
	}
	if err := pf.Remove(); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestPIDFile_Running(t *testing.T) {
	pf := newPIDFile(t)
	if _, running := pf.Running(); running {
		t.Fatal("Running with no file")
	}

	pf.Write(":9191")
	info, running := pf.Running()
	if !running || info.PID != os.Getpid() {
		t.Fatalf("Running = %+v, %v", info, running)
	}
}

func TestPIDFile_Running_StalePID(t *testing.T) {
	pf := newPIDFile(t)
	os.MkdirAll(filepath.Dir(pf.Path()), 0o755)
	if err := os.WriteFile(pf.Path(), []byte(strconv.Itoa(99999999)), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, running := pf.Running(); running {
		t.Fatal("Running: expected false for stale PID")
	}
	if _, err := os.Stat(pf.Path()); !os.IsNotExist(err) {
		t.Fatal("stale PID file was not cleaned up")
	}
}

func TestPIDFile_Guard(t *testing.T) {
	pf := newPIDFile(t)
	if err := pf.Guard(":9191"); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	// Re-guarding from the owning process is allowed.
	if err := pf.Guard(":9192"); err != nil {
		t.Fatalf("Guard again: %v", err)
	}
	if info, _ := pf.Read(); info.Addr != ":9192" {
		t.Errorf("addr = %q", info.Addr)
	}
}

func TestPIDFile_Guard_AlreadyRunning(t *testing.T) {
	pf := newPIDFile(t)
	os.MkdirAll(filepath.Dir(pf.Path()), 0o755)
	// The parent process (the test runner) is alive and is not us.
	os.WriteFile(pf.Path(), []byte(strconv.Itoa(os.Getppid())+"\n:1\n"), 0o644)

	err := pf.Guard(":9191")
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Guard err = %v, want ErrAlreadyRunning", err)
	}
}

func TestPIDFile_Stop_NotRunning(t *testing.T) {
	if _, err := newPIDFile(t).Stop(time.Second); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop err = %v, want ErrNotRunning", err)
	}
}

func TestPIDFile_Stop(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("no sleep binary")
	}
	cmd := exec.Command(sleep, "30")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	// Reap the child so it does not linger as a zombie.
	go cmd.Wait()

	pf := newPIDFile(t)
	os.MkdirAll(filepath.Dir(pf.Path()), 0o755)
	os.WriteFile(pf.Path(), []byte(strconv.Itoa(cmd.Process.Pid)+"\n:7\n"), 0o644)

	info, err := pf.Stop(5 * time.Second)
	if err != nil {
		cmd.Process.Kill()
		t.Fatalf("Stop: %v", err)
	}
	if info.PID != cmd.Process.Pid || info.Addr != ":7" {
		t.Errorf("info = %+v", info)
	}
	if _, err := os.Stat(pf.Path()); !os.IsNotExist(err) {
		t.Error("PID file kept after stop")
	}
}

func TestProcessExists(t *testing.T) {
	if !processExists(os.Getpid()) {
		t.Error("processExists(self) = false")
	}
	if processExists(99999999) {
		t.Error("processExists(99999999) = true")
	}
}
