package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"duet/internal/models"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	bucketUsers        = []byte("users")
	bucketMessages     = []byte("messages")
	bucketUserMessages = []byte("user_messages")
	bucketUnseen       = []byte("unseen")
)

type BboltStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketMessages, bucketUserMessages, bucketUnseen} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db, now: time.Now}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

// CreateMessage persists a new unseen message and indexes it for both
// participants and for the sender -> receiver unseen set, in one transaction.
func (s *BboltStorage) CreateMessage(ctx context.Context, senderID, receiverID, content string) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}

	dbMessage := DBMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  s.now().UnixNano(),
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		messages := tx.Bucket(bucketMessages)
		seq, err := messages.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		dbMessage.Seq = seq

		data, err := dbMessage.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := messages.Put(dbMessage.Key(), data); err != nil {
			return fmt.Errorf("failed to put message: %w", err)
		}

		userMessages := tx.Bucket(bucketUserMessages)
		for _, userID := range participants(senderID, receiverID) {
			b, err := userMessages.CreateBucketIfNotExists([]byte(userID))
			if err != nil {
				return fmt.Errorf("failed to create user index: %w", err)
			}
			if err := b.Put(dbMessage.Key(), []byte{}); err != nil {
				return err
			}
		}

		unseen, err := tx.Bucket(bucketUnseen).CreateBucketIfNotExists(pairKey(senderID, receiverID))
		if err != nil {
			return fmt.Errorf("failed to create unseen index: %w", err)
		}
		return unseen.Put(dbMessage.Key(), []byte{})
	})
	if err != nil {
		return models.Message{}, err
	}

	return toMessage(dbMessage), nil
}

// FindMessagesForUser returns every message the user sent or received, in
// persisted order.
func (s *BboltStorage) FindMessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := []models.Message{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		index := tx.Bucket(bucketUserMessages).Bucket([]byte(userID))
		if index == nil {
			return nil
		}
		all := tx.Bucket(bucketMessages)

		return index.ForEach(func(k, _ []byte) error {
			data := all.Get(k)
			if data == nil {
				return fmt.Errorf("indexed message %x is missing", k)
			}
			var dbMessage DBMessage
			if err := dbMessage.UnmarshalBinary(data); err != nil {
				return err
			}
			messages = append(messages, toMessage(dbMessage))
			return nil
		})
	})
	return messages, err
}

// MarkSeen flags every unseen message from senderID to receiverID as seen in
// one transaction and returns how many were updated.
func (s *BboltStorage) MarkSeen(ctx context.Context, senderID, receiverID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	updated := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		unseenRoot := tx.Bucket(bucketUnseen)
		key := pairKey(senderID, receiverID)
		unseen := unseenRoot.Bucket(key)
		if unseen == nil {
			return nil
		}
		all := tx.Bucket(bucketMessages)

		var keys [][]byte
		if err := unseen.ForEach(func(k, _ []byte) error {
			keys = append(keys, append([]byte(nil), k...))
			return nil
		}); err != nil {
			return err
		}

		for _, k := range keys {
			data := all.Get(k)
			if data == nil {
				continue
			}
			var dbMessage DBMessage
			if err := dbMessage.UnmarshalBinary(data); err != nil {
				return err
			}
			if dbMessage.Seen {
				continue
			}
			dbMessage.Seen = true
			newData, err := dbMessage.MarshalBinary()
			if err != nil {
				return err
			}
			if err := all.Put(k, newData); err != nil {
				return err
			}
			updated++
		}

		return unseenRoot.DeleteBucket(key)
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// UpsertUser stores new or updated user profile.
func (s *BboltStorage) UpsertUser(user models.User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		dbUser := fromUser(user)
		data, err := dbUser.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbUser.Key(), data)
	})
}

func (s *BboltStorage) GetUser(id string) (models.User, error) {
	var user models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
		}
		var dbUser DBUser
		if err := dbUser.UnmarshalBinary(data); err != nil {
			return err
		}
		user = toUser(dbUser)
		return nil
	})
	return user, err
}

// ListUsers returns all users, newest first.
func (s *BboltStorage) ListUsers() ([]models.User, error) {
	users := []models.User{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(_, v []byte) error {
			var dbUser DBUser
			if err := dbUser.UnmarshalBinary(v); err != nil {
				return err
			}
			users = append(users, toUser(dbUser))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func participants(senderID, receiverID string) []string {
	if senderID == receiverID {
		return []string{senderID}
	}
	return []string{senderID, receiverID}
}

func toMessage(m DBMessage) models.Message {
	return models.Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Seen:       m.Seen,
		CreatedAt:  time.Unix(0, m.CreatedAt).UTC(),
	}
}

func fromUser(u models.User) DBUser {
	return DBUser{
		ID:        u.ID,
		UserName:  u.UserName,
		Status:    u.Status,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt.UnixNano(),
	}
}

func toUser(u DBUser) models.User {
	return models.User{
		ID:        u.ID,
		UserName:  u.UserName,
		Status:    u.Status,
		AvatarURL: u.AvatarURL,
		CreatedAt: time.Unix(0, u.CreatedAt).UTC(),
	}
}
