// Jack wire protocol message codec
//
// Implements the `key[=a0,a1,...][:checksum]` line syntax used by Jack
// devices. The codec is deliberately permissive: numeric arguments wrap
// instead of being rejected, and validation is the host's responsibility.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wire

import (
	"strconv"
	"strings"

	"jack-go-migration/pkg/errors"
	"jack-go-migration/pkg/pool"
)

// Message is a parsed wire protocol line.
type Message struct {
	// Key is the command key (case-sensitive).
	Key string

	// Args holds the raw argument strings, in wire order.
	Args []string

	// Raw is the original line with line terminators stripped.
	Raw string
}

// Arg returns the raw argument at index i, or "" when absent.
func (m Message) Arg(i int) string {
	if i < 0 || i >= len(m.Args) {
		return ""
	}
	return m.Args[i]
}

// Checksum computes the inverted-sum checksum of text: the bitwise
// complement of the modulo-256 sum of its bytes.
func Checksum(text string) byte {
	var sum byte
	for i := 0; i < len(text); i++ {
		sum += text[i]
	}
	return ^sum
}

// Verify reports whether sum is the inverted-sum checksum of text.
func Verify(text string, sum byte) bool {
	return Checksum(text) == sum
}

// StripChecksum removes a verified checksum suffix from a line,
// returning the bare text. Lines without a suffix, or whose suffix does
// not verify, are returned unchanged.
func StripChecksum(line string) string {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line
	}
	text := line[:idx]
	if Verify(text, byte(CoerceByte(line[idx+1:]))) {
		return text
	}
	return line
}

// Parse parses a single wire line into a Message. Trailing CR/LF is
// stripped first. A `:` suffix is verified as an inverted-sum checksum of
// the preceding text; on mismatch the whole message is discarded with a
// WIRE_CHECKSUM error.
func Parse(line string) (Message, error) {
	raw := strings.TrimRight(line, "\r\n")
	if raw == "" {
		return Message{}, errors.ParseError(line, "empty line")
	}

	text := raw
	if idx := strings.IndexByte(text, ':'); idx >= 0 {
		sumText := text[idx+1:]
		text = text[:idx]
		want := Checksum(text)
		got := byte(CoerceByte(sumText))
		if want != got {
			return Message{}, errors.ChecksumError(want, got)
		}
	}

	key := text
	var args []string
	if idx := strings.IndexByte(text, '='); idx >= 0 {
		key = text[:idx]
		rest := text[idx+1:]
		if strings.IndexByte(rest, '=') >= 0 {
			return Message{}, errors.ParseError(raw, "multiple '=' separators")
		}
		args = strings.Split(rest, ",")
	}
	if key == "" {
		return Message{}, errors.ParseError(raw, "missing key")
	}

	return Message{Key: key, Args: args, Raw: raw}, nil
}

// Format produces the canonical wire syntax for a reply or command.
// Commands with no arguments omit the '=' separator.
func Format(key string, args ...string) string {
	if len(args) == 0 {
		return key
	}
	b := pool.GetByteBuffer()
	defer pool.PutByteBuffer(b)
	b.WriteString(key)
	b.WriteByte('=')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a)
	}
	return b.String()
}

// FormatChecked produces the canonical syntax with a checksum suffix.
func FormatChecked(key string, args ...string) string {
	text := Format(key, args...)
	return text + ":" + strconv.Itoa(int(Checksum(text)))
}

// JoinList renders values as a '.'-separated wire list.
func JoinList(vals []int64) string {
	b := pool.GetByteBuffer()
	defer pool.PutByteBuffer(b)
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	return b.String()
}
