package persist

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"jack-go-migration/pkg/errors"
	"jack-go-migration/pkg/log"
	"jack-go-migration/pkg/resource"
)

func testBank() *resource.Bank {
	return resource.NewBank(resource.SimProfile(), resource.NewSimHardware(512), resource.NewSimClock())
}

func TestStoreLoad_Idempotent(t *testing.T) {
	bank := testBank()
	bank.SetMode(2, resource.Output)
	bank.SetMode(5, resource.PwmOut)
	require.NoError(t, bank.Attach(0, 2, resource.Counter, resource.Rising, resource.Continuous))
	require.NoError(t, bank.Attach(1, resource.ManualPin, resource.Timer, resource.Change, resource.OneShot))
	bank.SetSettings(resource.Settings{
		Kind:   resource.WifiConn,
		Params: [3]string{"workshop", "hunter2", "8266"},
	})

	snap := Capture(bank)
	data := Store(snap)
	require.Len(t, data, Size(bank.PinCount()))

	loaded, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, snap, loaded)

	// A second encode of the decoded snapshot is bit-identical.
	require.Equal(t, data, Store(loaded))
}

func TestLoad_WrongMagicLeavesStateUntouched(t *testing.T) {
	bank := testBank()
	bank.SetMode(3, resource.Output)
	before := Capture(bank)

	data := Store(before)
	binary.LittleEndian.PutUint32(data[:4], 0xDEADBEEF)

	_, err := Load(data)
	require.True(t, errors.Is(err, errors.ErrConfigVersion), "err = %v", err)

	// Nothing applied, the live model is bit-for-bit unchanged.
	require.Equal(t, before, Capture(bank))
}

func TestLoad_Truncated(t *testing.T) {
	data := Store(Capture(testBank()))
	for _, n := range []int{0, 3, 4, 10, len(data) - 1} {
		_, err := Load(data[:n])
		require.Error(t, err, "length %d", n)
		require.True(t, errors.IsConfig(err), "length %d: %v", n, err)
	}
}

func TestApply_RestoresModel(t *testing.T) {
	src := testBank()
	src.SetMode(7, resource.Output)
	require.NoError(t, src.Attach(2, 4, resource.Timer, resource.Falling, resource.OneShot))
	src.SetSettings(resource.Settings{Kind: resource.EthernetConn, Params: [3]string{"10.0.0.9", "80", ""}})

	snap, err := Load(Store(Capture(src)))
	require.NoError(t, err)

	dst := testBank()
	Apply(snap, dst)

	require.Equal(t, resource.Output, dst.Mode(7))
	ct := dst.TimerInfo(2)
	require.Equal(t, 4, ct.Pin)
	require.Equal(t, resource.Timer, ct.Kind)
	require.Equal(t, resource.Falling, ct.Trigger)
	require.Equal(t, resource.OneShot, ct.Operation)
	require.Equal(t, resource.EthernetConn, dst.Settings().Kind)
}

func TestApply_RejectedTimerConfigIsLogged(t *testing.T) {
	// Uno only exposes interrupts on pins 2 and 3, so a snapshot built on
	// a roomier profile can name a pin the target cannot attach.
	bank := resource.NewBank(resource.UnoProfile(), resource.NewSimHardware(512), resource.NewSimClock())

	var buf bytes.Buffer
	logger := log.Default()
	prevLevel := logger.GetLevel()
	logger.SetWriter(&buf)
	logger.SetLevel(log.DEBUG)
	defer func() {
		logger.SetWriter(os.Stderr)
		logger.SetLevel(prevLevel)
	}()

	var snap Snapshot
	snap.PinModes = make([]resource.PinMode, bank.PinCount())
	for i := range snap.Timers {
		snap.Timers[i] = TimerConfig{Pin: resource.ManualPin}
	}
	snap.Timers[0] = TimerConfig{
		Pin:       5,
		Kind:      resource.Counter,
		Trigger:   resource.Rising,
		Operation: resource.Continuous,
	}
	Apply(snap, bank)

	// The slot stays detached and the rejection leaves a trace.
	require.Equal(t, resource.ManualPin, bank.TimerInfo(0).Pin)
	require.Contains(t, buf.String(), "timer slot 0 not restored")
}

func TestParamTruncation(t *testing.T) {
	bank := testBank()
	long := "0123456789012345678901234567890123456789"
	bank.SetSettings(resource.Settings{Kind: resource.WifiConn, Params: [3]string{long, "", ""}})

	snap, err := Load(Store(Capture(bank)))
	require.NoError(t, err)
	require.Equal(t, long[:24], snap.Settings.Params[0])
}
