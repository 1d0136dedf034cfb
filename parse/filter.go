package parse

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IDFilter passes messages whose tag id is in the set.
type IDFilter map[uint64]bool

func (f IDFilter) String() string {
	var ids []string
	for id := range f {
		ids = append(ids, fmt.Sprintf("%010X", id))
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// Set parses a comma separated list of hex ids.
func (f IDFilter) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(v), "0x"), 16, 64)
		if err != nil {
			return err
		}
		f[id] = true
	}
	return nil
}

func (f IDFilter) Filter(msg Message) bool {
	return f[msg.TagID()]
}

// TypeFilter passes messages of the named family.
type TypeFilter string

func (f TypeFilter) Filter(msg Message) bool {
	return strings.EqualFold(string(f), msg.MsgType())
}

// UniqueFilter drops a message when its tag last reported the same checksum.
type UniqueFilter map[uint64][]byte

func NewUniqueFilter() UniqueFilter {
	return make(UniqueFilter)
}

func (uf UniqueFilter) Filter(msg Message) bool {
	checksum := msg.Checksum()
	id := msg.TagID()

	if val, ok := uf[id]; ok && bytes.Equal(val, checksum) {
		return false
	}

	uf[id] = make([]byte, len(checksum))
	copy(uf[id], checksum)
	return true
}
