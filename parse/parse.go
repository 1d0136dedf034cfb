// Package parse keeps the registry of tag families and the message types
// shared by every decoder.
package parse

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bemasher/lfem4x/csv"
	"github.com/bemasher/lfem4x/decode"
	"github.com/bemasher/lfem4x/internal/syncutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	TimeFormat = "2006-01-02T15:04:05.000"
)

var (
	parserMutex syncutil.RWMutex
	parsers     = make(map[string]NewParserFunc)
)

// NewParserFunc builds a parser for the given clock, in samples per symbol.
type NewParserFunc func(clock int, log logrus.FieldLogger) Parser

// Register makes a tag family available by name. It panics on a nil or
// duplicate registration.
func Register(name string, parserFn NewParserFunc) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	if parserFn == nil {
		panic("parser: new parser func is nil")
	}
	if _, dup := parsers[name]; dup {
		panic(fmt.Sprintf("parser: parser already registered (%s)", name))
	}
	parsers[name] = parserFn
}

// NewParser returns a parser for the named tag family.
func NewParser(name string, clock int, log logrus.FieldLogger) (Parser, error) {
	parserMutex.RLock()
	defer parserMutex.RUnlock()

	parserFn, exists := parsers[name]
	if !exists {
		return nil, errors.Errorf("invalid message type: %q", name)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return parserFn(clock, log), nil
}

// Names lists the registered tag families in order.
func Names() (names []string) {
	parserMutex.RLock()
	defer parserMutex.RUnlock()

	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parser decodes every message of its family found in a waveform.
type Parser interface {
	Parse(decode.Waveform) ([]Message, error)
	Clock() int
}

// Message is a decoded tag transmission.
type Message interface {
	csv.Recorder
	MsgType() string
	TagID() uint64
	Checksum() []byte
}

// LogMessage stamps a message with the time and position it was decoded at.
type LogMessage struct {
	Time   time.Time
	Offset int64
	Length int
	Message
}

func (msg LogMessage) String() string {
	return fmt.Sprintf("{Time:%s Offset:%d Length:%d %s:%s}",
		msg.Time.Format(TimeFormat), msg.Offset, msg.Length, msg.MsgType(), msg.Message,
	)
}

func (msg LogMessage) StringNoOffset() string {
	return fmt.Sprintf("{Time:%s %s:%s}", msg.Time.Format(TimeFormat), msg.MsgType(), msg.Message)
}

func (msg LogMessage) Record() (r []string) {
	r = append(r, msg.Time.Format(time.RFC3339Nano))
	r = append(r, strconv.FormatInt(msg.Offset, 10))
	r = append(r, strconv.FormatInt(int64(msg.Length), 10))
	r = append(r, msg.Message.Record()...)
	return r
}

// Header names the fields of Record when the message names its own.
func (msg LogMessage) Header() (h []string) {
	h = append(h, "Time", "Offset", "Length")
	if headed, ok := msg.Message.(csv.Headed); ok {
		h = append(h, headed.Header()...)
	}
	return h
}

type FilterChain []MessageFilter

func (fc *FilterChain) Add(filter MessageFilter) {
	*fc = append(*fc, filter)
}

func (fc FilterChain) Match(msg Message) bool {
	if len(fc) == 0 {
		return true
	}

	for _, filter := range fc {
		if !filter.Filter(msg) {
			return false
		}
	}

	return true
}

type MessageFilter interface {
	Filter(Message) bool
}
