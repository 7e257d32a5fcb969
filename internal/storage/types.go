package storage

import (
	"encoding"
	"encoding/binary"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

var (
	_ Storeable = (*DBUser)(nil)
	_ Storeable = (*DBMessage)(nil)
)

type DBUser struct {
	ID        string `msgpack:"id"`
	UserName  string `msgpack:"userName"`
	Status    string `msgpack:"status"`
	AvatarURL string `msgpack:"avatarUrl"`
	CreatedAt int64  `msgpack:"createdAt"` // Unix nanoseconds
}

func (u *DBUser) Key() []byte {
	return []byte(u.ID)
}

func (u *DBUser) MarshalBinary() (data []byte, err error) {
	type alias DBUser
	return msgpack.Marshal((*alias)(u))
}

func (u *DBUser) UnmarshalBinary(data []byte) error {
	type alias DBUser
	return msgpack.Unmarshal(data, (*alias)(u))
}

// DBMessage is keyed by its bucket sequence, so a cursor walks messages in
// the order they were persisted.
type DBMessage struct {
	Seq        uint64 `msgpack:"seq"`
	ID         string `msgpack:"id"`
	SenderID   string `msgpack:"senderId"`
	ReceiverID string `msgpack:"receiverId"`
	Content    string `msgpack:"content"`
	Seen       bool   `msgpack:"seen"`
	CreatedAt  int64  `msgpack:"createdAt"` // Unix nanoseconds
}

func (m *DBMessage) Key() []byte {
	return seqKey(m.Seq)
}

func (m *DBMessage) MarshalBinary() (data []byte, err error) {
	type alias DBMessage
	return msgpack.Marshal((*alias)(m))
}

func (m *DBMessage) UnmarshalBinary(data []byte) error {
	type alias DBMessage
	return msgpack.Unmarshal(data, (*alias)(m))
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// pairKey names the unseen index of one sender -> receiver direction. The
// sender ID is length-prefixed, so no pair of IDs can produce another pair's
// key.
func pairKey(senderID, receiverID string) []byte {
	return []byte(strconv.Itoa(len(senderID)) + ":" + senderID + receiverID)
}
