package monitoring

import "testing"

func TestSetLoggerCapturesOutput(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...any) { got = format })

	Logf("fusion initialized from %s", "vision")
	if got != "fusion initialized from %s" {
		t.Errorf("logger did not capture format, got %q", got)
	}
}

func TestMuteInstallsNoOp(t *testing.T) {
	Mute()
	if Logf == nil {
		t.Fatal("Mute left Logf nil")
	}
	// Must not panic.
	Logf("dropped %d", 1)
}

func TestSetLoggerNilMutes(t *testing.T) {
	SetLogger(nil)
	if Logf == nil {
		t.Fatal("SetLogger(nil) left Logf nil")
	}
	Logf("dropped")
}
