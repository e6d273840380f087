package services

import "strconv"

const (
	localQuestionPrefix = "local-q-"
	localAnswerPrefix   = "local-a-"
)

// LocalIDAllocator hands out identifiers for items that exist only in an
// editor session. They come from a counter and carry a prefix, so they can
// never be confused with a server id.
type LocalIDAllocator struct {
	next uint64
}

func (a *LocalIDAllocator) Question() string {
	a.next++
	return localQuestionPrefix + strconv.FormatUint(a.next, 10)
}

func (a *LocalIDAllocator) Answer() string {
	a.next++
	return localAnswerPrefix + strconv.FormatUint(a.next, 10)
}

// IDMap links local ids to the ids the store assigned once an item has been
// persisted.
type IDMap struct {
	toServer map[string]uint
	toLocal  map[uint]string
}

func NewIDMap() *IDMap {
	return &IDMap{
		toServer: make(map[string]uint),
		toLocal:  make(map[uint]string),
	}
}

// Bind records that local is stored under server, replacing earlier bindings
// of either side.
func (m *IDMap) Bind(local string, server uint) {
	if previous, ok := m.toServer[local]; ok {
		delete(m.toLocal, previous)
	}
	if previous, ok := m.toLocal[server]; ok {
		delete(m.toServer, previous)
	}
	m.toServer[local] = server
	m.toLocal[server] = local
}

func (m *IDMap) Server(local string) (uint, bool) {
	id, ok := m.toServer[local]
	return id, ok
}

func (m *IDMap) Local(server uint) (string, bool) {
	id, ok := m.toLocal[server]
	return id, ok
}

// Forget drops the binding of local, if any
func (m *IDMap) Forget(local string) {
	if server, ok := m.toServer[local]; ok {
		delete(m.toLocal, server)
		delete(m.toServer, local)
	}
}

func (m *IDMap) Len() int {
	return len(m.toServer)
}
