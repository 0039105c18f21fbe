package progress

import (
	"bytes"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Label: "Importing catalog", Out: &buf}
	r.Start(2)
	r.Update(1, "ancient key AK")
	r.Update(2, "ancient coin AK-01")
	r.Finish()

	want := "Importing catalog: 2 items\n[1/2] ancient key AK\n[2/2] ancient coin AK-01\nImporting catalog: done\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestTerminalReporterBeforeStart(t *testing.T) {
	// Update and Finish before Start must not panic.
	r := &TerminalReporter{Label: "x"}
	r.Update(1, "msg")
	r.Finish()
}
