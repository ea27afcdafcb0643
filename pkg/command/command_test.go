package command

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestCmdString(t *testing.T) {
	tests := []struct {
		cmd  Cmd
		want string
	}{
		{New("pip3", "install", "-r", "requirements.txt"), "pip3 install -r requirements.txt"},
		{New("python3", "/tmp/my dir/helper.py"), "python3 '/tmp/my dir/helper.py'"},
		{New("echo", ""), "echo ''"},
		{New("sh", "-c", "it's"), `sh -c 'it'\''s'`},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCmdWithEnvDoesNotAlias(t *testing.T) {
	base := New("dep", "ensure").WithEnv("A=1")
	a := base.WithEnv("B=2")
	b := base.WithEnv("C=3")
	if len(base.Env) != 1 {
		t.Fatalf("base env mutated: %v", base.Env)
	}
	if a.Env[1] != "B=2" || b.Env[1] != "C=3" {
		t.Errorf("env aliasing: a=%v b=%v", a.Env, b.Env)
	}
}

func TestResultSuccess(t *testing.T) {
	var nilResult *Result
	if nilResult.Success() {
		t.Error("nil result should not be successful")
	}
	if !(&Result{}).Success() {
		t.Error("exit code 0 should be successful")
	}
	if (&Result{ExitCode: 2}).Success() {
		t.Error("exit code 2 should not be successful")
	}
}

func TestExecRun(t *testing.T) {
	if runtime.GOOS == "windows" || !LookPath("sh") {
		t.Skip("sh not available")
	}
	ctx := context.Background()

	res, err := Exec{}.Run(ctx, New("sh", "-c", "echo out; echo err >&2; exit 3"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "out" {
		t.Errorf("stdout = %q, want %q", got, "out")
	}
	if got := strings.TrimSpace(string(res.Stderr)); got != "err" {
		t.Errorf("stderr = %q, want %q", got, "err")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}

	res, err = Exec{}.Run(ctx, New("sh", "-c", "echo $LT_TEST").WithEnv("LT_TEST=hello"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "hello" {
		t.Errorf("env stdout = %q, want %q", got, "hello")
	}
}

func TestExecRunMissingBinary(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), New("definitely-not-a-real-binary-xyz"))
	if err == nil {
		t.Error("expected start error for missing binary")
	}
}
