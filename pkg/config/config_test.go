package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
# jackd sample configuration
[device]
profile: sim
eeprom_size: 1024

[transport]
mode = websocket
listen = :8765

[schedule]
poll_interval: 5ms
`

func TestLoadStringSections(t *testing.T) {
	c, err := LoadString(sampleConfig)
	if err != nil {
		t.Fatal(err)
	}

	names := c.GetSectionNames()
	want := []string{"device", "transport", "schedule"}
	if len(names) != len(want) {
		t.Fatalf("sections = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("sections = %v, want %v", names, want)
		}
	}

	dev, err := c.GetSection("device")
	if err != nil {
		t.Fatal(err)
	}
	profile, err := dev.GetChoice("profile", []string{"sim", "uno", "mega"})
	if err != nil || profile != "sim" {
		t.Fatalf("profile = %q, %v", profile, err)
	}
	size, err := dev.GetInt("eeprom_size", 256)
	if err != nil || size != 1024 {
		t.Fatalf("eeprom_size = %d, %v", size, err)
	}
}

func TestBothSeparatorStyles(t *testing.T) {
	c, err := LoadString(sampleConfig)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := c.GetSection("transport")
	if err != nil {
		t.Fatal(err)
	}
	mode, err := tr.Get("mode")
	if err != nil || mode != "websocket" {
		t.Fatalf("mode = %q, %v", mode, err)
	}
	listen, err := tr.Get("listen")
	if err != nil || listen != ":8765" {
		t.Fatalf("listen = %q, %v", listen, err)
	}
}

func TestGetDuration(t *testing.T) {
	c, err := LoadString("[schedule]\npoll_interval: 5ms\nsettle: 250\n")
	if err != nil {
		t.Fatal(err)
	}
	sec, _ := c.GetSection("schedule")

	d, err := sec.GetDuration("poll_interval")
	if err != nil || d != 5*time.Millisecond {
		t.Fatalf("poll_interval = %v, %v", d, err)
	}
	// Bare numbers are milliseconds.
	d, err = sec.GetDuration("settle")
	if err != nil || d != 250*time.Millisecond {
		t.Fatalf("settle = %v, %v", d, err)
	}
	d, err = sec.GetDuration("missing", time.Second)
	if err != nil || d != time.Second {
		t.Fatalf("fallback = %v, %v", d, err)
	}
}

func TestMissingOptionAndFallback(t *testing.T) {
	c, _ := LoadString("[device]\nprofile: sim\n")
	sec, _ := c.GetSection("device")

	if _, err := sec.Get("nope"); err == nil {
		t.Fatal("expected error for missing option")
	}
	v, err := sec.Get("nope", "fallback")
	if err != nil || v != "fallback" {
		t.Fatalf("fallback get = %q, %v", v, err)
	}
	if _, err := c.GetSection("nope"); err == nil {
		t.Fatal("expected error for missing section")
	}
}

func TestBoolValues(t *testing.T) {
	c, _ := LoadString("[metrics]\nenabled: yes\ndisabled: off\nbad: maybe\n")
	sec, _ := c.GetSection("metrics")

	b, err := sec.GetBool("enabled")
	if err != nil || !b {
		t.Fatalf("enabled = %v, %v", b, err)
	}
	b, err = sec.GetBool("disabled")
	if err != nil || b {
		t.Fatalf("disabled = %v, %v", b, err)
	}
	if _, err := sec.GetBool("bad"); err == nil {
		t.Fatal("expected error for bad bool")
	}
}

func TestCommentsStripped(t *testing.T) {
	c, _ := LoadString("[device]\nprofile: uno  # inline comment\n; full line comment\n")
	sec, _ := c.GetSection("device")
	v, err := sec.Get("profile")
	if err != nil || v != "uno" {
		t.Fatalf("profile = %q, %v", v, err)
	}
}

func TestRepeatedSectionMerges(t *testing.T) {
	c, _ := LoadString("[device]\nprofile: sim\n[device]\nprofile: mega\neeprom_size: 512\n")
	sec, _ := c.GetSection("device")
	v, _ := sec.Get("profile")
	if v != "mega" {
		t.Fatalf("profile = %q, later section must win", v)
	}
	n, _ := sec.GetInt("eeprom_size")
	if n != 512 {
		t.Fatalf("eeprom_size = %d", n)
	}
}

func TestCheckUnused(t *testing.T) {
	c, _ := LoadString("[device]\nprofile: sim\ntypo_option: 1\n[leftover]\nx: 1\n")
	sec, _ := c.GetSection("device")
	sec.Get("profile")

	err := c.CheckUnused()
	if err == nil {
		t.Fatal("expected unused sections error")
	}

	c.GetSection("leftover")
	err = c.CheckUnused()
	if err == nil {
		t.Fatal("expected unused options error")
	}
}

func TestLoadFileWithInclude(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "metrics.cfg")
	if err := os.WriteFile(extra, []byte("[metrics]\nlisten: :9101\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "jackd.cfg")
	body := "[device]\nprofile: sim\n[include metrics.cfg]\n"
	if err := os.WriteFile(main, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(main)
	if err != nil {
		t.Fatal(err)
	}
	if !c.HasSection("metrics") {
		t.Fatal("include not applied")
	}
	sec, _ := c.GetSection("metrics")
	v, _ := sec.Get("listen")
	if v != ":9101" {
		t.Fatalf("listen = %q", v)
	}
}

func TestGetIntList(t *testing.T) {
	c, _ := LoadString("[device]\ninterrupt_pins: 2, 3, 18\n")
	sec, _ := c.GetSection("device")
	pins, err := sec.GetIntList("interrupt_pins", ",")
	if err != nil {
		t.Fatal(err)
	}
	if len(pins) != 3 || pins[0] != 2 || pins[2] != 18 {
		t.Fatalf("pins = %v", pins)
	}
}
