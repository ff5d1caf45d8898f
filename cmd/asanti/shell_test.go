package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsparklabs/asanti-sub002"
	"github.com/brightsparklabs/asanti-sub002/logger"
)

const shellModule = `
Shell DEFINITIONS IMPLICIT TAGS ::= BEGIN
    Reading ::= SEQUENCE {
        id    INTEGER (1..100),
        label UTF8String
    }
END
`

// two readings, the second with an id out of range and a trailing unknown
// OCTET STRING
var shellData = []byte{
	0x30, 0x07, 0x02, 0x01, 0x05, 0x0c, 0x02, 0x68, 0x69,
	0x30, 0x0a, 0x02, 0x01, 0x65, 0x0c, 0x02, 0x68, 0x6f, 0x04, 0x01, 0xff,
}

func newTestShell(t *testing.T) (*shell, *bytes.Buffer) {
	t.Helper()
	a, err := asanti.LoadSchemaFrom("shell.asn", strings.NewReader(shellModule), asanti.WithLogger(logger.Nop()))
	require.NoError(t, err)
	pdus, err := a.Decode(shellData, "Reading")
	require.NoError(t, err)
	require.Len(t, pdus, 2)

	var out bytes.Buffer
	return newShell(a, pdus, &out), &out
}

func TestShellCommands(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{name: "tags", lines: []string{"tags"}, want: "/Reading/id = 5\n/Reading/label = hi\n"},
		{name: "tags matching", lines: []string{"tags label$"}, want: "/Reading/label = hi\n"},
		{name: "get", lines: []string{"get /Reading/label"}, want: "hi\n"},
		{name: "hex", lines: []string{"hex /Reading/id"}, want: "0x05\n"},
		{name: "type", lines: []string{"type /Reading/id"}, want: "INTEGER\n"},
		{name: "pdu", lines: []string{"pdu"}, want: "pdu 0 of 2: Reading, 2 tags, 0 unmapped\n"},
		{name: "select pdu", lines: []string{"pdu 1", "unmapped"}, want: "/Reading/2[UNIVERSAL 4] = 0xFF\n"},
		{name: "unmapped type", lines: []string{"pdu 1", "type /Reading/2[UNIVERSAL 4]"}, want: "unmapped (below /Reading)\n"},
		{name: "unmapped hex", lines: []string{"pdu 1", "hex   /Reading/2[UNIVERSAL 4]  "}, want: "0xFF\n"},
		{name: "pattern with space", lines: []string{"pdu 1", "tags ^/Reading/(id|2\\[UNIVERSAL 4\\])$"}, want: "/Reading/id = 101\n"},
		{name: "validate clean", lines: []string{"validate"}, want: "valid\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestShell(t)
			for _, line := range tt.lines {
				require.NoError(t, s.dispatch(line))
			}
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestShellValidateFailures(t *testing.T) {
	s, out := newTestShell(t)
	require.NoError(t, s.dispatch("pdu 1"))
	require.NoError(t, s.dispatch("validate"))
	assert.Contains(t, out.String(), "/Reading/id: SchemaConstraint")
	assert.Contains(t, out.String(), "/Reading/2[UNIVERSAL 4]: UnmappedTag")
}

func TestShellErrors(t *testing.T) {
	tests := []struct {
		line    string
		wantErr string
	}{
		{line: "get", wantErr: "usage: get <tag>"},
		{line: "get /Reading/nope", wantErr: "no tag /Reading/nope"},
		{line: "pdu 7", wantErr: "no pdu 7"},
		{line: "tags [", wantErr: "bad pattern"},
		{line: "frobnicate", wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			s, _ := newTestShell(t)
			err := s.dispatch(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	s, _ := newTestShell(t)
	assert.ErrorIs(t, s.dispatch("exit"), errExit)

	empty := newShell(s.a, nil, &bytes.Buffer{})
	assert.EqualError(t, empty.dispatch("tags"), "no PDUs loaded")
}

func TestTagCompleter(t *testing.T) {
	s, _ := newTestShell(t)
	c := &tagCompleter{shell: s}

	got, n := c.Do([]rune("ta"), 2)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]rune{[]rune("gs ")}, got)

	line := []rune("get /Reading/l")
	got, n = c.Do(line, len(line))
	assert.Equal(t, len("/Reading/l"), n)
	assert.Equal(t, [][]rune{[]rune("abel ")}, got)

	require.NoError(t, s.dispatch("pdu 1"))
	line = []rune("hex /Reading/2[UNIVERSAL")
	got, n = c.Do(line, len(line))
	assert.Equal(t, len("/Reading/2[UNIVERSAL"), n)
	assert.Equal(t, [][]rune{[]rune(" 4] ")}, got)
}
