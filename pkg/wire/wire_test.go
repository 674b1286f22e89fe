package wire

import (
	"strconv"
	"testing"

	"jack-go-migration/pkg/errors"
)

func TestChecksum_Roundtrip(t *testing.T) {
	texts := []string{
		"rst",
		"wrp=13,1",
		"atc=0,2,1,2,2",
		"inf",
		"pgm=1",
		"snt=0,9600,8,1",
	}
	for _, text := range texts {
		sum := Checksum(text)
		if !Verify(text, sum) {
			t.Fatalf("Verify(%q, %d) = false", text, sum)
		}
		// Flipping any one byte must break verification.
		for i := 0; i < len(text); i++ {
			mutated := []byte(text)
			mutated[i] ^= 0x01
			if Verify(string(mutated), sum) {
				t.Fatalf("Verify accepted mutated text %q", mutated)
			}
		}
	}
}

func TestChecksum_KnownValues(t *testing.T) {
	// sum("rst") = 114+115+116 = 345 -> 89 mod 256 -> ^89 = 166
	if got := Checksum("rst"); got != 166 {
		t.Fatalf("Checksum(rst) = %d, want 166", got)
	}
}

func TestParse_Basic(t *testing.T) {
	cases := []struct {
		line string
		key  string
		args []string
	}{
		{"rst\n", "rst", nil},
		{"wrp=13,1\r\n", "wrp", []string{"13", "1"}},
		{"rdl=2.4.6", "rdl", []string{"2.4.6"}},
		{"snt=0,9600,8,1", "snt", []string{"0", "9600", "8", "1"}},
		{"pin=", "pin", []string{""}},
	}
	for _, tc := range cases {
		msg, err := Parse(tc.line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.line, err)
		}
		if msg.Key != tc.key {
			t.Fatalf("Parse(%q).Key = %q, want %q", tc.line, msg.Key, tc.key)
		}
		if len(msg.Args) != len(tc.args) {
			t.Fatalf("Parse(%q).Args = %v, want %v", tc.line, msg.Args, tc.args)
		}
		for i := range tc.args {
			if msg.Args[i] != tc.args[i] {
				t.Fatalf("Parse(%q).Args[%d] = %q, want %q", tc.line, i, msg.Args[i], tc.args[i])
			}
		}
	}
}

func TestParse_ChecksumSuffix(t *testing.T) {
	text := "wrp=13,1"
	good := text + ":" + strconv.Itoa(int(Checksum(text)))
	msg, err := Parse(good + "\n")
	if err != nil {
		t.Fatalf("Parse(%q): %v", good, err)
	}
	if msg.Key != "wrp" || len(msg.Args) != 2 {
		t.Fatalf("unexpected message %+v", msg)
	}

	bad := text + ":17"
	if _, err := Parse(bad); !errors.Is(err, errors.ErrWireChecksum) {
		t.Fatalf("Parse(%q) err = %v, want WIRE_CHECKSUM", bad, err)
	}
}

func TestStripChecksum(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"wrr #13,ax:" + strconv.Itoa(int(Checksum("wrr #13,ax"))), "wrr #13,ax"},
		{"mov ax,1:" + strconv.Itoa(int(Checksum("mov ax,1"))), "mov ax,1"},
		{"wrp=13,1:" + strconv.Itoa(int(Checksum("wrp=13,1"))), "wrp=13,1"},
		// No suffix, or a suffix that does not verify: untouched.
		{"mov ax,1", "mov ax,1"},
		{"mov ax,1:99", "mov ax,1:99"},
	}
	for _, tc := range cases {
		if got := StripChecksum(tc.line); got != tc.want {
			t.Fatalf("StripChecksum(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, line := range []string{"", "\n", "=1,2", "a=b=c"} {
		if _, err := Parse(line); err == nil {
			t.Fatalf("Parse(%q) succeeded, want error", line)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format("rst"); got != "rst" {
		t.Fatalf("Format(rst) = %q", got)
	}
	if got := Format("net", "1", "10.0.0.2", "80"); got != "net=1,10.0.0.2,80" {
		t.Fatalf("Format(net, ...) = %q", got)
	}
}

func TestFormatChecked_ParsesBack(t *testing.T) {
	line := FormatChecked("wrp", "13", "1")
	msg, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse(FormatChecked) failed: %v", err)
	}
	if msg.Key != "wrp" || msg.Arg(0) != "13" || msg.Arg(1) != "1" {
		t.Fatalf("round-trip mismatch: %+v", msg)
	}
}

func TestCoerce_Wrapping(t *testing.T) {
	cases := []struct {
		text string
		t    ArgType
		want int64
	}{
		{"0", Byte, 0},
		{"255", Byte, 255},
		{"256", Byte, 0},
		{"-250", Byte, 6},
		{"-1", Byte, 255},
		{"9.0", Byte, 9},
		{"9.999", Byte, 9},
		{"abc", Byte, 0},
		{"", Byte, 0},
		{"32767", Int, 32767},
		{"32768", Int, -32768},
		{"-40000", Int, 25536},
		{"2147483647", Long, 2147483647},
		{"2147483648", Long, -2147483648},
		{"4294967296", Long, 0},
		{"99999999999999999999999", Byte, 255},
	}
	for _, tc := range cases {
		var got int64
		switch tc.t {
		case Byte:
			got = CoerceByte(tc.text)
		case Int:
			got = CoerceInt(tc.text)
		case Long:
			got = CoerceLong(tc.text)
		}
		if got != tc.want {
			t.Errorf("Coerce%v(%q) = %d, want %d", tc.t, tc.text, got, tc.want)
		}
	}
}

func TestCoerceList(t *testing.T) {
	got := CoerceList("2.4.abc.6")
	want := []int64{2, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("CoerceList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CoerceList = %v, want %v", got, want)
		}
	}
	if got := CoerceList("zz"); len(got) != 0 {
		t.Fatalf("CoerceList(zz) = %v, want empty", got)
	}
}

func TestCoerceFloat(t *testing.T) {
	if got := CoerceFloat("-2.5"); got != -2.5 {
		t.Fatalf("CoerceFloat(-2.5) = %v", got)
	}
	if got := CoerceFloat("junk"); got != 0 {
		t.Fatalf("CoerceFloat(junk) = %v, want 0", got)
	}
}
