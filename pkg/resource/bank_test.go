package resource

import (
	"testing"

	"jack-go-migration/pkg/errors"
)

func newTestBank() (*Bank, *SimHardware, *SimClock) {
	hw := NewSimHardware(512)
	clock := NewSimClock()
	return NewBank(SimProfile(), hw, clock), hw, clock
}

func TestPinModeOverwrite(t *testing.T) {
	b, _, _ := newTestBank()

	b.SetMode(4, Output)
	if got := b.Mode(4); got != Output {
		t.Fatalf("Mode(4) = %v, want Output", got)
	}
	// Transitions are unconditional overwrites, PwmOut included.
	b.SetMode(4, PwmOut)
	if got := b.Mode(4); got != PwmOut {
		t.Fatalf("Mode(4) = %v, want PwmOut", got)
	}
	b.SetModeAll(InputPullup)
	for _, m := range b.Modes() {
		if m != InputPullup {
			t.Fatalf("SetModeAll left mode %v", m)
		}
	}
}

func TestWritePin_DigitalAndPWM(t *testing.T) {
	b, hw, _ := newTestBank()

	b.SetMode(2, Output)
	b.WritePin(2, 1)
	if hw.ReadDigital(2) != 1 {
		t.Fatal("digital write did not reach hardware")
	}

	b.SetMode(2, PwmOut)
	b.WritePin(2, 300) // clamps to 255
	if hw.PWM(2) != 255 {
		t.Fatalf("PWM duty = %d, want 255", hw.PWM(2))
	}
	b.WritePin(2, -5)
	if hw.PWM(2) != 0 {
		t.Fatalf("PWM duty = %d, want 0", hw.PWM(2))
	}
}

func TestReadPin_AnalogSelection(t *testing.T) {
	b, hw, _ := newTestBank()

	// Odd pins in SimProfile are analog-capable.
	hw.SetAnalog(5, 731)
	if got := b.ReadPin(5); got != 731 {
		t.Fatalf("ReadPin(5) = %d, want analog 731", got)
	}

	// Once configured as output the same pin reads digital.
	b.SetMode(5, Output)
	hw.WriteDigital(5, 1)
	if got := b.ReadPin(5); got != 1 {
		t.Fatalf("ReadPin(5) = %d, want digital 1", got)
	}
}

func TestAttachInvariants(t *testing.T) {
	b, _, _ := newTestBank()

	if err := b.Attach(0, 2, Counter, Rising, Continuous); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	// The pin is owned; a second slot may not claim it.
	if err := b.Attach(1, 2, Counter, Rising, Continuous); !errors.Is(err, errors.ErrRuntime) {
		t.Fatalf("Attach to owned pin: err = %v", err)
	}
	// Manual attachment skips pin checks entirely.
	if err := b.Attach(1, ManualPin, Timer, Change, OneShot); err != nil {
		t.Fatalf("manual Attach: %v", err)
	}
}

func TestDetachResets(t *testing.T) {
	b, _, clock := newTestBank()

	if err := b.Attach(0, 2, Timer, Rising, Immediate); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	clock.AdvanceMillis(50)
	if v := b.Value(0); v != 50 {
		t.Fatalf("Value = %d, want 50", v)
	}

	b.Detach(0)
	ct := b.TimerInfo(0)
	if ct.Active || ct.Pin != ManualPin {
		t.Fatalf("Detach left %+v", ct)
	}
	if v := b.Value(0); v != 0 {
		t.Fatalf("Value after detach = %d, want 0", v)
	}
}

func TestContinuousTimerTogglesForever(t *testing.T) {
	b, _, _ := newTestBank()

	if err := b.Attach(0, 2, Timer, Change, Continuous); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	level := uint8(0)
	for i := 0; i < 10; i++ {
		level ^= 1
		b.PinEdge(2, level)
		wantActive := i%2 == 0
		if got := b.TimerInfo(0).Active; got != wantActive {
			t.Fatalf("edge %d: Active = %v, want %v", i, got, wantActive)
		}
	}
}

func TestOneShotDoesNotRestart(t *testing.T) {
	b, _, _ := newTestBank()

	if err := b.Attach(0, 2, Timer, Rising, OneShot); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if b.TimerInfo(0).Active {
		t.Fatal("OneShot active before first trigger")
	}
	b.PinEdge(2, 1)
	if !b.TimerInfo(0).Active {
		t.Fatal("OneShot not started by first trigger")
	}
	b.PinEdge(2, 0)
	b.PinEdge(2, 1)
	if b.TimerInfo(0).Active {
		t.Fatal("OneShot stopped and must not restart")
	}
	b.PinEdge(2, 0)
	b.PinEdge(2, 1)
	if b.TimerInfo(0).Active {
		t.Fatal("OneShot restarted on later trigger")
	}
}

func TestImmediateStopsOnTrigger(t *testing.T) {
	b, _, clock := newTestBank()

	if err := b.Attach(0, 2, Timer, Rising, Immediate); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if !b.TimerInfo(0).Active {
		t.Fatal("Immediate not active on attach")
	}
	clock.AdvanceMillis(120)
	b.PinEdge(2, 1)
	ct := b.TimerInfo(0)
	if ct.Active {
		t.Fatal("Immediate still active after trigger")
	}
	if v := b.Value(0); v != 120 {
		t.Fatalf("elapsed = %d, want 120", v)
	}
}

func TestCounterCountsEdges(t *testing.T) {
	b, _, _ := newTestBank()

	if err := b.Attach(0, 2, Counter, Rising, OneShot); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	// First rising edge starts the counter and is counted; following
	// rising edges count until the gate closes.
	b.PinEdge(2, 1)
	b.PinEdge(2, 0)
	if v := b.Value(0); v != 1 {
		t.Fatalf("count = %d, want 1", v)
	}
}

func TestManualControl(t *testing.T) {
	b, _, clock := newTestBank()

	if err := b.Attach(3, ManualPin, Timer, Change, OneShot); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	b.Control(3, ActionStart)
	clock.AdvanceMillis(30)
	b.Control(3, ActionStop)
	if v := b.Value(3); v != 30 {
		t.Fatalf("Value = %d, want 30", v)
	}
	b.Control(3, ActionResume)
	clock.AdvanceMillis(20)
	if v := b.Value(3); v != 50 {
		t.Fatalf("Value = %d, want 50", v)
	}
	b.Control(3, ActionReset)
	clock.AdvanceMillis(5)
	if v := b.Value(3); v != 5 {
		t.Fatalf("Value after reset = %d, want 5", v)
	}
}

func TestResetRuntime(t *testing.T) {
	b, _, _ := newTestBank()

	b.SetMode(1, Output)
	if err := b.Attach(0, 2, Counter, Rising, Continuous); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	old := b.Settings()

	b.ResetRuntime()
	if b.Mode(1) != Input {
		t.Fatal("ResetRuntime did not restore Input mode")
	}
	if ct := b.TimerInfo(0); ct.Pin != ManualPin || ct.Active {
		t.Fatalf("ResetRuntime left timer %+v", ct)
	}
	if b.Settings() != old {
		t.Fatal("ResetRuntime must keep connection settings")
	}
}
