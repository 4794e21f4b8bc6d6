package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// ErrSessionNotFound сессия повтора не найдена
var ErrSessionNotFound = errors.New("replay session not found")

// SessionMeta метаданные записанной сессии
type SessionMeta struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Path      string    `json:"path,omitempty"`
	Seed      int64     `json:"seed"`
	Width     int       `json:"width,omitempty"`
	Frames    int       `json:"frames"`
	Chunks    int       `json:"chunks"`
	Checksum  uint64    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	ClosedAt  time.Time `json:"closed_at,omitempty"`
}

// ReplayStore хранит сессии повтора в BadgerDB:
// replay/<id>/meta и сжатые куски ввода replay/<id>/chunk/<n>
type ReplayStore struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
}

// OpenReplayStore открывает хранилище в каталоге dir
func OpenReplayStore(dir string) (*ReplayStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &ReplayStore{db: db, isReady: true}, nil
}

func (s *ReplayStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.isReady {
		return nil
	}
	s.isReady = false
	return s.db.Close()
}

func metaKey(id string) []byte { return []byte("replay/" + id + "/meta") }

func chunkKey(id string, n int) []byte {
	return []byte(fmt.Sprintf("replay/%s/chunk/%06d", id, n))
}

func (s *ReplayStore) ready() error {
	if !s.isReady {
		return fmt.Errorf("хранилище повторов закрыто")
	}
	return nil
}

// PutSession записывает метаданные сессии
func (s *ReplayStore) PutSession(meta SessionMeta) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(meta.ID), data)
	})
}

// Session читает метаданные сессии
func (s *ReplayStore) Session(id string) (SessionMeta, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return SessionMeta{}, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return SessionMeta{}, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return SessionMeta{}, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	var meta SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return SessionMeta{}, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return meta, nil
}

// Sessions перечисляет все сессии, новые первыми
func (s *ReplayStore) Sessions() ([]SessionMeta, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out []SessionMeta
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("replay/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), "/meta") {
				continue
			}
			var meta SessionMeta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return err
			}
			out = append(out, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка перечисления сессий: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// PutChunk записывает сжатый кусок ввода с номером n
func (s *ReplayStore) PutChunk(id string, n int, data []byte) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(id, n), data)
	})
}

// Chunks читает куски сессии по порядку номеров
func (s *ReplayStore) Chunks(id string) ([][]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	var out [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("replay/" + id + "/chunk/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, val)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения кусков: %w", err)
	}
	return out, nil
}

// DeleteSession удаляет метаданные и все куски сессии
func (s *ReplayStore) DeleteSession(id string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		prefix := []byte("replay/" + id + "/")
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		if len(keys) == 0 {
			return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
