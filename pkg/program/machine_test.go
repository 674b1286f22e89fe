package program

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jack-go-migration/pkg/errors"
)

// fakeBus is a SystemBus over plain maps, recording system writes and
// dispatched command statements.
type fakeBus struct {
	sys      map[string]int32
	writes   []string
	commands []string
	keys     map[string]bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		sys:  make(map[string]int32),
		keys: map[string]bool{"wrp": true, "rst": true},
	}
}

func sysKey(class byte, index int) string {
	return string(class) + strconv.Itoa(index)
}

func (f *fakeBus) ReadSystem(class byte, index int) int32 {
	return f.sys[sysKey(class, index)]
}

func (f *fakeBus) WriteSystem(class byte, index int, value int32) {
	f.sys[sysKey(class, index)] = value
	f.writes = append(f.writes, sysKey(class, index))
}

func (f *fakeBus) statementKey(line string) string {
	key := line
	if idx := strings.IndexByte(line, '='); idx >= 0 {
		key = line[:idx]
	}
	return key
}

func (f *fakeBus) ExecStatement(line string) bool {
	if !f.keys[f.statementKey(line)] {
		return false
	}
	f.commands = append(f.commands, line)
	return true
}

func (f *fakeBus) IsCommand(line string) bool {
	return f.keys[f.statementKey(line)]
}

// load builds a Halted store from statements and a machine over it.
func load(t *testing.T, bus SystemBus, stmts ...string) (*Store, *Machine) {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Begin())
	for _, st := range stmts {
		require.NoError(t, s.Append(st))
	}
	require.NoError(t, s.End())
	m := NewMachine(s, bus)
	return s, m
}

// run starts the program and steps until it leaves Running or maxSteps
// is hit.
func run(t *testing.T, s *Store, m *Machine, maxSteps int) StepResult {
	t.Helper()
	m.Reset()
	require.True(t, s.SetRunning())
	res := StepIdle
	for i := 0; i < maxSteps && s.State() == Running; i++ {
		res = m.Step(0)
	}
	return res
}

func TestArithmeticStoresToSRAndRegister(t *testing.T) {
	s, m := load(t, newFakeBus(),
		"mov ax,7",
		"add ax,5",
		"mov bx,3",
		"mul bx,bx",
	)
	run(t, s, m, 10)
	assert.Equal(t, int32(12), m.Reg(0))
	assert.Equal(t, int32(9), m.Reg(1))
	assert.Equal(t, int32(9), m.SR())
}

func TestCmpDoesNotMutate(t *testing.T) {
	s, m := load(t, newFakeBus(),
		"mov ax,4",
		"mov bx,9",
		"cmp ax,bx",
	)
	run(t, s, m, 10)
	assert.Equal(t, int32(4), m.Reg(0))
	assert.Equal(t, int32(9), m.Reg(1))
	assert.Equal(t, int32(-5), m.SR())
}

func TestLoopBound(t *testing.T) {
	// mov cx,3 then increment ax in a loop body exactly 3 times.
	// Statement numbers are 1-based: the body is statement 2.
	s, m := load(t, newFakeBus(),
		"mov cx,3",
		"inc ax",
		"loop 2",
	)
	run(t, s, m, 50)
	assert.Equal(t, int32(3), m.Reg(0), "loop body must run exactly 3 times")
	assert.Equal(t, int32(0), m.Reg(2), "cx must end at 0")
}

func TestBranchFamilies(t *testing.T) {
	// Each program establishes sr via cmp bx,cx, then branches over
	// "mov dx,1" to the landing statement 6. dx==0 means the branch was
	// taken, dx==1 fell through.
	cases := []struct {
		name  string
		bx    string // left operand
		cx    string // right operand
		br    string // conditional branch under test
		taken bool
	}{
		{"je equal", "5", "5", "je", true},
		{"je unequal", "5", "6", "je", false},
		{"jne unequal", "5", "6", "jne", true},
		{"jne equal", "5", "5", "jne", false},
		{"jlt less", "2", "9", "jlt", true},
		{"jlt greater", "9", "2", "jlt", false},
		{"jgt greater", "9", "2", "jgt", true},
		{"jle equal", "4", "4", "jle", true},
		{"jge less", "2", "9", "jge", false},
		{"jz zero", "3", "3", "jz", true},
		{"jnz zero", "3", "3", "jnz", false},
		{"js negative", "1", "8", "js", true},
		{"jns negative", "1", "8", "jns", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, m := load(t, newFakeBus(),
				"mov bx,"+tc.bx,
				"mov cx,"+tc.cx,
				"cmp bx,cx",
				tc.br+" 6",
				"mov dx,1",
				"and ax,ax",
			)
			run(t, s, m, 10)
			if tc.taken {
				assert.Equal(t, int32(0), m.Reg(3), "branch should skip the mov")
			} else {
				assert.Equal(t, int32(1), m.Reg(3), "branch should fall through")
			}
		})
	}
}

func TestJumpOutOfRangeFaults(t *testing.T) {
	for _, target := range []string{"99", "0"} {
		s, m := load(t, newFakeBus(), "jmp "+target)
		res := run(t, s, m, 5)
		assert.Equal(t, StepFaulted, res, "jmp %s", target)
		assert.Equal(t, Halted, s.State())
		require.Error(t, m.LastFault())
		assert.True(t, errors.Is(m.LastFault(), errors.ErrVMJumpRange))
	}
}

func TestStackPushPop(t *testing.T) {
	s, m := load(t, newFakeBus(),
		"mov ax,41",
		"push ax",
		"mov ax,0",
		"pop bx",
	)
	run(t, s, m, 10)
	assert.Equal(t, int32(41), m.Reg(1))
}

func TestStackOverflowFaults(t *testing.T) {
	s, m := load(t, newFakeBus(),
		"push ax",
		"jmp 1",
	)
	res := StepIdle
	m.Reset()
	require.True(t, s.SetRunning())
	for i := 0; i < 200 && s.State() == Running; i++ {
		res = m.Step(0)
	}
	assert.Equal(t, StepFaulted, res)
	assert.True(t, errors.Is(m.LastFault(), errors.ErrVMStackFault))
}

func TestPopEmptyFaults(t *testing.T) {
	s, m := load(t, newFakeBus(), "pop ax")
	res := run(t, s, m, 5)
	assert.Equal(t, StepFaulted, res)
	assert.True(t, errors.Is(m.LastFault(), errors.ErrVMStackFault))
}

func TestDivByZeroFaults(t *testing.T) {
	s, m := load(t, newFakeBus(), "div ax,bx")
	res := run(t, s, m, 5)
	assert.Equal(t, StepFaulted, res)
	assert.True(t, errors.Is(m.LastFault(), errors.ErrVMDivZero))
}

func TestCallRetRets(t *testing.T) {
	// 1: call 4
	// 2: pop bx       ; retrieve the subroutine's rets value
	// 3: jmp 6        ; skip the subroutine body
	// 4: mov ax,17
	// 5: rets ax
	// 6: inc dx
	s, m := load(t, newFakeBus(),
		"call 4",
		"pop bx",
		"jmp 6",
		"mov ax,17",
		"rets ax",
		"inc dx",
	)
	run(t, s, m, 20)
	assert.Equal(t, int32(17), m.Reg(1), "rets value retrievable by caller")
	assert.Equal(t, int32(1), m.Reg(3))
	assert.Equal(t, Halted, s.State())
}

func TestRetWithoutCallFaults(t *testing.T) {
	s, m := load(t, newFakeBus(), "ret")
	res := run(t, s, m, 5)
	assert.Equal(t, StepFaulted, res)
	assert.True(t, errors.Is(m.LastFault(), errors.ErrVMStackFault))
}

func TestRunsPastEndHalts(t *testing.T) {
	s, m := load(t, newFakeBus(), "inc ax")
	res := run(t, s, m, 5)
	assert.Equal(t, StepEnded, res)
	assert.Equal(t, Halted, s.State())
	assert.NoError(t, m.LastFault())
}

func TestDlySuspendsAndResumesAtNextPC(t *testing.T) {
	bus := newFakeBus()
	s, m := load(t, bus,
		"dly 1000",
		"inc ax",
	)
	m.Reset()
	require.True(t, s.SetRunning())

	assert.Equal(t, StepRan, m.Step(0)) // executes dly, pc -> 1
	assert.Equal(t, StepAsleep, m.Step(10))
	assert.Equal(t, StepAsleep, m.Step(999))
	assert.Equal(t, int32(0), m.Reg(0))

	// Deadline passed: resumes at pc+1, the dly itself is not re-run.
	assert.Equal(t, StepRan, m.Step(1000))
	assert.Equal(t, int32(1), m.Reg(0))
}

func TestPinToggleProgram(t *testing.T) {
	// The canonical Jack blink program: toggles pin 13 once per
	// simulated second until halted.
	bus := newFakeBus()
	s, m := load(t, bus,
		"mov ax,0",
		"wrr #13,ax",
		"dly 1000",
		"not ax",
		"jmp 2",
	)
	m.Reset()
	require.True(t, s.SetRunning())

	now := int64(0)
	step := func() {
		for i := 0; i < 10; i++ {
			if m.Step(now) != StepAsleep {
				break
			}
		}
	}
	// Walk several simulated seconds, sampling the written level after
	// each dly parks the program.
	var levels []int32
	for cycle := 0; cycle < 4; cycle++ {
		for i := 0; i < 5; i++ {
			step()
		}
		levels = append(levels, bus.sys[sysKey('#', 13)])
		now += 1000
	}
	assert.Equal(t, Running, s.State(), "blink program never halts on its own")
	// The level alternates zero / nonzero (not of 0 is all ones; the
	// resource model clamps nonzero to high).
	for i, lv := range levels {
		if i%2 == 0 {
			assert.Equal(t, int32(0), lv, "cycle %d", i)
		} else {
			assert.NotEqual(t, int32(0), lv, "cycle %d", i)
		}
	}

	require.True(t, s.SetHalted())
	assert.Equal(t, StepIdle, m.Step(now))
}

func TestCommandStatementsDispatch(t *testing.T) {
	bus := newFakeBus()
	s, m := load(t, bus,
		"wrp=13,1",
		"inc ax",
	)
	run(t, s, m, 10)
	require.Len(t, bus.commands, 1)
	assert.Equal(t, "wrp=13,1", bus.commands[0])
	assert.Equal(t, int32(1), m.Reg(0))
}

func TestSystemValueOperands(t *testing.T) {
	bus := newFakeBus()
	bus.sys[sysKey('%', 2)] = 450
	bus.sys[sysKey('$', 0)] = 12345
	s, m := load(t, bus,
		"mov ax,%2",
		"mov bx,$0",
	)
	run(t, s, m, 10)
	assert.Equal(t, int32(450), m.Reg(0))
	assert.Equal(t, int32(12345), m.Reg(1))
}

func TestWrrReadOnlyClassFaults(t *testing.T) {
	s, m := load(t, newFakeBus(), "wrr $0,ax")
	res := run(t, s, m, 5)
	assert.Equal(t, StepFaulted, res)
	assert.True(t, errors.Is(m.LastFault(), errors.ErrVMBadInstruction))
}

func TestResetClearsState(t *testing.T) {
	s, m := load(t, newFakeBus(),
		"mov ax,5",
		"push ax",
	)
	run(t, s, m, 10)
	m.Reset()
	assert.Equal(t, int32(0), m.Reg(0))
	assert.Equal(t, 0, m.PC())
	assert.NoError(t, m.LastFault())
	_ = s
}
