package logic

import (
	"testing"
	"time"
)

func setupBaselinedButtons(t *testing.T) (*ButtonDetector, time.Time) {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewButtonDetector(50 * time.Millisecond)

	d.Process(ButtonInput{Time: now})
	d.Process(ButtonInput{Time: now.Add(50 * time.Millisecond)})

	if !d.IsBaselined() {
		t.Fatal("failed to establish baseline")
	}
	return d, now.Add(time.Second)
}

func TestButtonBaselineEstablishment(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewButtonDetector(50 * time.Millisecond)

	if cmds := d.Process(ButtonInput{Time: now}); len(cmds) != 0 {
		t.Errorf("expected no commands during baseline, got %v", cmds)
	}
	if d.IsBaselined() {
		t.Error("should not be baselined after first sample")
	}

	d.Process(ButtonInput{Time: now.Add(40 * time.Millisecond)})
	if d.IsBaselined() {
		t.Error("should not be baselined before debounce period")
	}

	if cmds := d.Process(ButtonInput{Time: now.Add(50 * time.Millisecond)}); len(cmds) != 0 {
		t.Errorf("expected no commands at baseline, got %v", cmds)
	}
	if !d.IsBaselined() {
		t.Error("should be baselined after debounce period")
	}
}

func TestButtonHeldAtStartupDoesNotFire(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewButtonDetector(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		cmds := d.Process(ButtonInput{Start: true, Time: now.Add(time.Duration(i) * 50 * time.Millisecond)})
		if len(cmds) != 0 {
			t.Fatalf("sample %d: expected no commands, got %v", i, cmds)
		}
	}

	// Releasing a button held since startup is not a press either.
	later := now.Add(time.Second)
	d.Process(ButtonInput{Time: later})
	if cmds := d.Process(ButtonInput{Time: later.Add(50 * time.Millisecond)}); len(cmds) != 0 {
		t.Errorf("expected no commands on release, got %v", cmds)
	}
}

func TestButtonPressEmitsCommand(t *testing.T) {
	tests := []struct {
		name  string
		input ButtonInput
		want  Command
	}{
		{"start", ButtonInput{Start: true}, CommandStart},
		{"stop", ButtonInput{Stop: true}, CommandStop},
		{"reset", ButtonInput{Reset: true}, CommandReset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, now := setupBaselinedButtons(t)

			in := tt.input
			in.Time = now
			if cmds := d.Process(in); len(cmds) != 0 {
				t.Fatalf("expected no commands before debounce, got %v", cmds)
			}

			in.Time = now.Add(50 * time.Millisecond)
			cmds := d.Process(in)
			if len(cmds) != 1 || cmds[0] != tt.want {
				t.Fatalf("got %v, want [%s]", cmds, tt.want)
			}

			// Holding the button does not repeat.
			in.Time = now.Add(500 * time.Millisecond)
			if cmds := d.Process(in); len(cmds) != 0 {
				t.Errorf("held button repeated: %v", cmds)
			}
		})
	}
}

func TestButtonBounceShorterThanDebounce(t *testing.T) {
	d, now := setupBaselinedButtons(t)

	d.Process(ButtonInput{Start: true, Time: now})
	d.Process(ButtonInput{Start: false, Time: now.Add(20 * time.Millisecond)})

	if cmds := d.Process(ButtonInput{Start: false, Time: now.Add(100 * time.Millisecond)}); len(cmds) != 0 {
		t.Errorf("expected no commands after bounce, got %v", cmds)
	}
}

func TestButtonReleaseDoesNotEmit(t *testing.T) {
	d, now := setupBaselinedButtons(t)

	d.Process(ButtonInput{Stop: true, Time: now})
	d.Process(ButtonInput{Stop: true, Time: now.Add(50 * time.Millisecond)})

	d.Process(ButtonInput{Time: now.Add(200 * time.Millisecond)})
	if cmds := d.Process(ButtonInput{Time: now.Add(250 * time.Millisecond)}); len(cmds) != 0 {
		t.Errorf("expected no commands on release, got %v", cmds)
	}
}

func TestButtonResetWinsOverSimultaneousPresses(t *testing.T) {
	d, now := setupBaselinedButtons(t)
	all := ButtonInput{Start: true, Stop: true, Reset: true}

	all.Time = now
	d.Process(all)
	all.Time = now.Add(50 * time.Millisecond)
	cmds := d.Process(all)

	if len(cmds) != 1 || cmds[0] != CommandReset {
		t.Errorf("got %v, want [reset]", cmds)
	}
}

func TestButtonStopAndStartTogether(t *testing.T) {
	d, now := setupBaselinedButtons(t)
	in := ButtonInput{Start: true, Stop: true}

	in.Time = now
	d.Process(in)
	in.Time = now.Add(50 * time.Millisecond)
	cmds := d.Process(in)

	if len(cmds) != 2 || cmds[0] != CommandStop || cmds[1] != CommandStart {
		t.Errorf("got %v, want [stop start]", cmds)
	}
}
