// Built-in command table
//
// Every key and reply shape here is a fixed wire contract; field order
// is load-bearing for existing hosts.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package device

import (
	"strconv"

	"jack-go-migration/pkg/command"
	"jack-go-migration/pkg/persist"
	"jack-go-migration/pkg/program"
	"jack-go-migration/pkg/resource"
	"jack-go-migration/pkg/wire"
)

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// drop is the silent-ignore reply: no lines, and no ack synthesis.
func drop() *command.Reply {
	return command.ReplyRaw()
}

func (d *Device) registerBuiltins() {
	reg := func(key string, minArgs int, types []wire.ArgType, h command.Handler) {
		d.registry.MustRegister(&command.Descriptor{
			Key: key, MinArgs: minArgs, ArgTypes: types, Handler: h,
		})
	}

	b := wire.Byte
	i := wire.Int
	L := wire.List
	s := wire.Str

	// Connection settings
	reg("snt", 4, []wire.ArgType{b, s, s, s}, d.cmdSnt)
	reg("net", 0, nil, d.cmdNet)

	// Device
	reg("inf", 0, nil, d.cmdInf)
	reg("rst", 0, nil, d.cmdRst)
	reg("sck", 1, []wire.ArgType{b}, d.cmdSck)
	reg("ack", 0, nil, d.cmdAck)
	reg("tim", 1, []wire.ArgType{b}, d.cmdTim)
	reg("hlp", 0, nil, d.cmdHlp)

	// Persisted config
	reg("lda", 0, nil, d.cmdLda)
	reg("sto", 0, nil, d.cmdSto)

	// Pins
	reg("pna", 0, nil, d.cmdPna)
	reg("pin", 1, []wire.ArgType{b}, d.cmdPin)
	reg("spa", 1, []wire.ArgType{b}, d.cmdSpa)
	reg("spm", 2, []wire.ArgType{b, b}, d.cmdSpm)
	reg("pma", 0, nil, d.cmdPma)
	reg("pmd", 1, []wire.ArgType{b}, d.cmdPmd)
	reg("rda", 0, nil, d.cmdRda)
	reg("rdp", 1, []wire.ArgType{b}, d.cmdRdp)
	reg("rdl", 1, []wire.ArgType{L}, d.cmdRdl)
	reg("wrp", 2, []wire.ArgType{b, i}, d.cmdWrp)

	// Counter/timers
	reg("tma", 0, nil, d.cmdTma)
	reg("tms", 1, []wire.ArgType{b}, d.cmdTms)
	reg("sta", 1, []wire.ArgType{b}, d.cmdSta)
	reg("stm", 2, []wire.ArgType{b, b}, d.cmdStm)
	reg("atc", 5, []wire.ArgType{b, b, b, b, b}, d.cmdAtc)
	reg("dta", 0, nil, d.cmdDta)
	reg("dtc", 1, []wire.ArgType{b}, d.cmdDtc)
	reg("tca", 0, nil, d.cmdTca)
	reg("tcm", 1, []wire.ArgType{b}, d.cmdTcm)

	// Program
	reg("pgm", 1, []wire.ArgType{b}, d.cmdPgm)
}

// snt=kind,p0,p1,p2 selects the active connection settings.
func (d *Device) cmdSnt(inv *command.Invocation) *command.Reply {
	kind := inv.Byte(0)
	if kind > int64(resource.WifiConn) {
		return drop()
	}
	d.bank.SetSettings(resource.Settings{
		Kind:   resource.ConnKind(kind),
		Params: [3]string{inv.Str(1), inv.Str(2), inv.Str(3)},
	})
	return nil
}

func (d *Device) cmdNet(inv *command.Invocation) *command.Reply {
	s := d.bank.Settings()
	return command.ReplyLine("net",
		itoa(int64(s.Kind)), s.Params[0], s.Params[1], s.Params[2])
}

func (d *Device) cmdInf(inv *command.Invocation) *command.Reply {
	p := d.bank.Profile()
	return command.ReplyLine("inf",
		itoa(int64(p.ID)), p.Name, p.MCU,
		itoa(int64(p.SpeedMHz)),
		itoa(int64(d.bank.PinCount())),
		itoa(int64(d.bank.TimerCount())))
}

// rst acknowledges first, then restores power-on state.
func (d *Device) cmdRst(inv *command.Invocation) *command.Reply {
	d.conn.Send(wire.Format("rst"))
	d.metrics.RepliesSent.Inc(nil)
	d.reset()
	return drop()
}

// sck=b toggles acknowledgment mode; only enabling is confirmed.
func (d *Device) cmdSck(inv *command.Invocation) *command.Reply {
	enable := inv.Byte(0) != 0
	d.ack = enable
	if enable {
		return command.ReplyLine("ack", "1")
	}
	return drop()
}

func (d *Device) cmdAck(inv *command.Invocation) *command.Reply {
	if d.ack {
		return command.ReplyLine("ack", "1")
	}
	return command.ReplyLine("ack", "0")
}

// tim=b reports device time: units 0 = ms, 1 = seconds, 2 = minutes.
func (d *Device) cmdTim(inv *command.Invocation) *command.Reply {
	unit := inv.Byte(0)
	now := d.bank.Clock().NowMillis()
	var t int64
	switch unit {
	case 0:
		t = now
	case 1:
		t = now / 1000
	case 2:
		t = now / 60000
	default:
		return drop()
	}
	return command.ReplyLine("tim", itoa(unit), itoa(t))
}

func (d *Device) cmdHlp(inv *command.Invocation) *command.Reply {
	keys := d.registry.Keys()
	lines := make([]string, len(keys))
	for n, k := range keys {
		lines[n] = wire.Format("hlp", k)
	}
	return command.ReplyRaw(lines...)
}

// lda restores the persisted snapshot from EEPROM. Never automatic on
// boot; the host must ask.
func (d *Device) cmdLda(inv *command.Invocation) *command.Reply {
	data := d.bank.Hardware().EepromRead(0, persist.Size(d.bank.PinCount()))
	snap, err := persist.Load(data)
	if err != nil {
		d.logger.Warn("config load rejected: %v", err)
		return drop()
	}
	persist.Apply(snap, d.bank)
	return nil
}

func (d *Device) cmdSto(inv *command.Invocation) *command.Reply {
	snap := persist.Capture(d.bank)
	d.bank.Hardware().EepromWrite(0, persist.Store(snap))
	return nil
}

// pna lists every pin's kind as a dot list.
func (d *Device) cmdPna(inv *command.Invocation) *command.Reply {
	kinds := make([]int64, d.bank.PinCount())
	for p := range kinds {
		kinds[p] = int64(d.bank.PinInfo(p).Kind)
	}
	return command.ReplyLine("pna", wire.JoinList(kinds))
}

// pin=b reports one pin's capabilities.
func (d *Device) cmdPin(inv *command.Invocation) *command.Reply {
	pin := int(inv.Byte(0))
	if !d.bank.ValidPin(pin) {
		return drop()
	}
	info := d.bank.PinInfo(pin)
	irq := "0"
	if info.InterruptCapable {
		irq = "1"
	}
	return command.ReplyLine("pin", itoa(int64(pin)), itoa(int64(info.Kind)), irq)
}

func (d *Device) cmdSpa(inv *command.Invocation) *command.Reply {
	d.bank.SetModeAll(resource.PinModeFromByte(inv.Byte(0)))
	return nil
}

func (d *Device) cmdSpm(inv *command.Invocation) *command.Reply {
	pin := int(inv.Byte(0))
	if !d.bank.ValidPin(pin) {
		return drop()
	}
	d.bank.SetMode(pin, resource.PinModeFromByte(inv.Byte(1)))
	return nil
}

func (d *Device) cmdPma(inv *command.Invocation) *command.Reply {
	modes := d.bank.Modes()
	vals := make([]int64, len(modes))
	for p, m := range modes {
		vals[p] = int64(m)
	}
	return command.ReplyLine("pma", wire.JoinList(vals))
}

func (d *Device) cmdPmd(inv *command.Invocation) *command.Reply {
	pin := int(inv.Byte(0))
	if !d.bank.ValidPin(pin) {
		return drop()
	}
	return command.ReplyLine("pmd", itoa(int64(pin)), itoa(int64(d.bank.Mode(pin))))
}

func (d *Device) cmdRda(inv *command.Invocation) *command.Reply {
	return command.ReplyLine("rda", wire.JoinList(d.bank.ReadAll()))
}

func (d *Device) cmdRdp(inv *command.Invocation) *command.Reply {
	pin := int(inv.Byte(0))
	if !d.bank.ValidPin(pin) {
		return drop()
	}
	return command.ReplyLine("rdp", itoa(int64(pin)), itoa(d.bank.ReadPin(pin)))
}

// rdl=p.p... reads the listed pins, skipping out-of-range entries.
func (d *Device) cmdRdl(inv *command.Invocation) *command.Reply {
	var vals []int64
	for _, p := range inv.List(0) {
		pin := int(p)
		if !d.bank.ValidPin(pin) {
			continue
		}
		vals = append(vals, d.bank.ReadPin(pin))
	}
	if len(vals) == 0 {
		return drop()
	}
	return command.ReplyLine("rdl", wire.JoinList(vals))
}

func (d *Device) cmdWrp(inv *command.Invocation) *command.Reply {
	pin := int(inv.Byte(0))
	if !d.bank.ValidPin(pin) {
		return drop()
	}
	d.bank.WritePin(pin, inv.Int(1))
	d.metrics.PinWrites.Inc(nil)
	return nil
}

// tma lists every slot's active flag as a dot list.
func (d *Device) cmdTma(inv *command.Invocation) *command.Reply {
	flags := make([]int64, d.bank.TimerCount())
	for t := range flags {
		if d.bank.TimerInfo(t).Active {
			flags[t] = 1
		}
	}
	return command.ReplyLine("tma", wire.JoinList(flags))
}

// tms=b reports one slot's full configuration and value.
func (d *Device) cmdTms(inv *command.Invocation) *command.Reply {
	slot := int(inv.Byte(0))
	if !d.bank.ValidTimer(slot) {
		return drop()
	}
	ct := d.bank.TimerInfo(slot)
	active := "0"
	if ct.Active {
		active = "1"
	}
	return command.ReplyLine("tms",
		itoa(int64(slot)), itoa(int64(ct.Pin)),
		itoa(int64(ct.Kind)), itoa(int64(ct.Trigger)), itoa(int64(ct.Operation)),
		active, itoa(int64(d.bank.Value(slot))))
}

func (d *Device) cmdSta(inv *command.Invocation) *command.Reply {
	action := int(inv.Byte(0))
	if action > resource.ActionReset {
		return drop()
	}
	d.bank.ControlAll(action)
	return nil
}

func (d *Device) cmdStm(inv *command.Invocation) *command.Reply {
	slot := int(inv.Byte(0))
	action := int(inv.Byte(1))
	if !d.bank.ValidTimer(slot) || action > resource.ActionReset {
		return drop()
	}
	d.bank.Control(slot, action)
	return nil
}

// atc=slot,pin,kind,trigger,operation binds a counter/timer.
func (d *Device) cmdAtc(inv *command.Invocation) *command.Reply {
	slot := int(inv.Byte(0))
	pin := int(inv.Byte(1))
	kind := inv.Byte(2)
	trigger := inv.Byte(3)
	operation := inv.Byte(4)
	if !d.bank.ValidTimer(slot) {
		return drop()
	}
	if kind > int64(resource.Timer) ||
		trigger > int64(resource.ActiveHigh) ||
		operation > int64(resource.Continuous) {
		return drop()
	}
	err := d.bank.Attach(slot, pin,
		resource.TimerKind(kind), resource.Trigger(trigger), resource.Operation(operation))
	if err != nil {
		d.logger.Debug("attach rejected: %v", err)
		return drop()
	}
	return nil
}

func (d *Device) cmdDta(inv *command.Invocation) *command.Reply {
	d.bank.DetachAll()
	return nil
}

func (d *Device) cmdDtc(inv *command.Invocation) *command.Reply {
	slot := int(inv.Byte(0))
	if !d.bank.ValidTimer(slot) {
		return drop()
	}
	d.bank.Detach(slot)
	return nil
}

func (d *Device) cmdTca(inv *command.Invocation) *command.Reply {
	return command.ReplyLine("tca", wire.JoinList(d.bank.Values()))
}

func (d *Device) cmdTcm(inv *command.Invocation) *command.Reply {
	slot := int(inv.Byte(0))
	if !d.bank.ValidTimer(slot) {
		return drop()
	}
	return command.ReplyLine("tcm", itoa(int64(slot)), itoa(int64(d.bank.Value(slot))))
}

// cmdPgm drives the program lifecycle. Actions 2..8 are ignored while a
// load is in progress.
func (d *Device) cmdPgm(inv *command.Invocation) *command.Reply {
	action := int(inv.Byte(0))
	if d.store.State() == program.Loading && action > program.ActionBegin {
		return drop()
	}

	switch action {
	case program.ActionEnd:
		if err := d.store.End(); err != nil {
			return drop()
		}
	case program.ActionBegin:
		if err := d.store.Begin(); err != nil {
			return drop()
		}
	case program.ActionRun:
		if d.store.State() == program.Halted {
			d.vm.Reset()
			d.store.SetRunning()
		}
	case program.ActionHalt:
		d.store.SetHalted()
	case program.ActionReset:
		d.vm.Reset()
	case program.ActionSize:
		return command.ReplyLine("pgm", "5", itoa(int64(d.store.Size())))
	case program.ActionStatus:
		running := "0"
		if d.store.State() == program.Running {
			running = "1"
		}
		return command.ReplyLine("pgm", "6", running)
	case program.ActionVerify:
		ok := "1"
		for _, stmt := range d.store.Lines() {
			if !program.IsInstruction(stmt) && !d.IsCommand(stmt) {
				ok = "0"
				break
			}
		}
		return command.ReplyLine("pgm", "7", ok)
	case program.ActionList:
		lines := d.store.Lines()
		if len(lines) == 0 {
			return drop()
		}
		return command.ReplyRaw(lines...)
	default:
		return drop()
	}
	return nil
}
