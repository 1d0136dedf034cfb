package parse

import (
	"testing"
	"time"

	"github.com/bemasher/lfem4x/decode"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	id  uint64
	sum byte
}

func (m fakeMessage) Record() []string { return []string{"fake"} }
func (m fakeMessage) MsgType() string  { return "Fake" }
func (m fakeMessage) TagID() uint64    { return m.id }
func (m fakeMessage) Checksum() []byte { return []byte{m.sum} }
func (m fakeMessage) String() string   { return "{fake}" }

type fakeParser int

func (p fakeParser) Parse(decode.Waveform) ([]Message, error) {
	return []Message{fakeMessage{id: 1}}, nil
}

func (p fakeParser) Clock() int { return int(p) }

func init() {
	Register("fake", func(clock int, log logrus.FieldLogger) Parser {
		return fakeParser(clock)
	})
}

func TestRegistry(t *testing.T) {
	p, err := NewParser("fake", 32, nil)
	require.NoError(t, err)
	assert.Equal(t, 32, p.Clock())
	assert.Contains(t, Names(), "fake")

	_, err = NewParser("missing", 64, nil)
	assert.Error(t, err)

	assert.Panics(t, func() {
		Register("fake", func(int, logrus.FieldLogger) Parser { return fakeParser(0) })
	})
	assert.Panics(t, func() { Register("nil", nil) })
}

func TestLogMessage(t *testing.T) {
	msg := LogMessage{
		Time:    time.Date(2015, 1, 2, 3, 4, 5, 0, time.UTC),
		Offset:  128,
		Length:  4096,
		Message: fakeMessage{id: 1},
	}

	assert.Equal(t, "{Time:2015-01-02T03:04:05.000 Offset:128 Length:4096 Fake:{fake}}", msg.String())
	assert.Equal(t, "{Time:2015-01-02T03:04:05.000 Fake:{fake}}", msg.StringNoOffset())
	assert.Equal(t, []string{"2015-01-02T03:04:05Z", "128", "4096", "fake"}, msg.Record())
	assert.Equal(t, []string{"Time", "Offset", "Length"}, msg.Header())
}

func TestFilterChain(t *testing.T) {
	var fc FilterChain
	assert.True(t, fc.Match(fakeMessage{id: 7}))

	ids := IDFilter{}
	require.NoError(t, ids.Set("0x0F0368568B, 7"))
	assert.Equal(t, "0000000007,0F0368568B", ids.String())
	assert.Error(t, ids.Set("zz"))

	fc.Add(ids)
	fc.Add(TypeFilter("fake"))

	assert.True(t, fc.Match(fakeMessage{id: 0x0F0368568B}))
	assert.True(t, fc.Match(fakeMessage{id: 7}))
	assert.False(t, fc.Match(fakeMessage{id: 8}))

	fc.Add(TypeFilter("EM4x50"))
	assert.False(t, fc.Match(fakeMessage{id: 7}))
}

func TestUniqueFilter(t *testing.T) {
	uf := NewUniqueFilter()

	assert.True(t, uf.Filter(fakeMessage{id: 1, sum: 0xA}))
	assert.False(t, uf.Filter(fakeMessage{id: 1, sum: 0xA}))
	assert.True(t, uf.Filter(fakeMessage{id: 1, sum: 0xB}))
	assert.True(t, uf.Filter(fakeMessage{id: 2, sum: 0xB}))
}
