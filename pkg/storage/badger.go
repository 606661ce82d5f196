package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/absmach/fusion/model"
	pkgerrors "github.com/absmach/fusion/pkg/errors"
	"github.com/absmach/fusion/session"
	"github.com/dgraph-io/badger/v4"
)

const (
	defaultBadgerDir = "./data"
)

type storedValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type badgerStorage struct {
	sync.RWMutex

	db *badger.DB
}

func NewBadgerStorage(dataDir string) (Storage, error) {
	if dataDir == "" {
		dataDir = defaultBadgerDir
	}

	if err := ensureDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "badger.db")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable Badger's default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open Badger database: %w", err)
	}

	return &badgerStorage{
		db: db,
	}, nil
}

func (s *badgerStorage) Create(ctx context.Context, key string, value any) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return pkgerrors.ErrEntityExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check key existence: %w", err)
		}

		return s.writeValue(txn, key, value)
	})
}

func (s *badgerStorage) Get(ctx context.Context, key string) (any, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	s.RLock()
	defer s.RUnlock()

	var result any
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return pkgerrors.ErrNotFound
			}

			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			result, err = s.unmarshalValue(val)

			return err
		})
	})

	return result, err
}

func (s *badgerStorage) Update(ctx context.Context, key string, value any) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return pkgerrors.ErrNotFound
			}

			return fmt.Errorf("failed to check key existence: %w", err)
		}

		return s.writeValue(txn, key, value)
	})
}

func (s *badgerStorage) List(ctx context.Context, prefix string, offset, limit uint64) (result []any, total uint64, err error) {
	s.RLock()
	defer s.RUnlock()

	var keys []string
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()))
		}

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list keys: %w", err)
	}

	sort.Strings(keys)
	total = uint64(len(keys))

	if offset >= total {
		return nil, total, nil
	}

	end := min(offset+limit, total)
	result = make([]any, 0, end-offset)

	err = s.db.View(func(txn *badger.Txn) error {
		for i := offset; i < end; i++ {
			item, err := txn.Get([]byte(keys[i]))
			if err != nil {
				continue
			}

			err = item.Value(func(val []byte) error {
				value, err := s.unmarshalValue(val)
				if err == nil {
					result = append(result, value)
				}

				return err
			})
			if err != nil {
				continue
			}
		}

		return nil
	})

	return result, total, err
}

func (s *badgerStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return pkgerrors.ErrNotFound
			}

			return fmt.Errorf("failed to check key existence: %w", err)
		}

		return txn.Delete([]byte(key))
	})
}

// Commit applies every op inside one transaction. Badger exposes the
// writes only when the transaction commits, so a failure at any op
// leaves the store as it was.
func (s *badgerStorage) Commit(ctx context.Context, ops []Op) error {
	s.Lock()
	defer s.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			if op.Key == "" {
				return pkgerrors.ErrEmptyKey
			}

			_, err := txn.Get([]byte(op.Key))
			switch {
			case err == nil:
				if op.Create {
					return pkgerrors.ErrEntityExists
				}
			case errors.Is(err, badger.ErrKeyNotFound):
				if !op.Create {
					return pkgerrors.ErrNotFound
				}
			default:
				return fmt.Errorf("failed to check key existence: %w", err)
			}

			if err := s.writeValue(txn, op.Key, op.Value); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *badgerStorage) Close() error {
	s.Lock()
	defer s.Unlock()

	return s.db.Close()
}

func (s *badgerStorage) writeValue(txn *badger.Txn, key string, value any) error {
	typeName := s.getTypeName(value)

	valueData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	stored := storedValue{
		Type:  typeName,
		Value: valueData,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal stored value: %w", err)
	}

	return txn.Set([]byte(key), data)
}

func (s *badgerStorage) unmarshalValue(data []byte) (any, error) {
	var stored storedValue
	if err := json.Unmarshal(data, &stored); err == nil && stored.Type != "" {
		return s.unmarshalByType(stored.Type, stored.Value)
	}

	return s.unmarshalByDetection(data)
}

func (s *badgerStorage) getTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.String()
}

func (s *badgerStorage) unmarshalByType(typeName string, data json.RawMessage) (any, error) {
	switch typeName {
	case "session.Session":
		var sess session.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, err
		}

		return sess, nil
	case "model.GlobalModel":
		var m model.GlobalModel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}

		return m, nil
	case "uint64":
		var v uint64
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}

		return v, nil
	case "string":
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil, err
		}

		return str, nil
	default:
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}

		return m, nil
	}
}

func (s *badgerStorage) unmarshalByDetection(data []byte) (any, error) {
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err == nil {
		if sess.ID != "" {
			return sess, nil
		}
	}

	var gm model.GlobalModel
	if err := json.Unmarshal(data, &gm); err == nil {
		if len(gm.Hash) != 0 {
			return gm, nil
		}
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return str, nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return m, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
