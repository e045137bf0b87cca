package training

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

const repertoireBucket = "repertoires"

// BoltStore keeps repertoires in a single file: one nested bucket per owner
// inside the repertoires bucket.
type BoltStore struct {
	db     *bolt.DB
	logger *zap.Logger
}

func NewBoltStore(path string, logger *zap.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(repertoireBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &BoltStore{db: db, logger: logger}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) ownerBucket(tx *bolt.Tx, owner string, create bool) (*bolt.Bucket, error) {
	root := tx.Bucket([]byte(repertoireBucket))
	if !create {
		return root.Bucket([]byte(owner)), nil
	}
	return root.CreateBucketIfNotExists([]byte(owner))
}

func (s *BoltStore) Create(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error {
	raw, err := encodeStored(name, rep, time.Now())
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.ownerBucket(tx, owner, true)
		if err != nil {
			return err
		}
		key := []byte(normalizeName(name))
		if b.Get(key) != nil {
			return ErrRepertoireExists
		}
		return b.Put(key, raw)
	})
}

func (s *BoltStore) Save(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error {
	raw, err := encodeStored(name, rep, time.Now())
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.ownerBucket(tx, owner, true)
		if err != nil {
			return err
		}
		return b.Put([]byte(normalizeName(name)), raw)
	})
}

func (s *BoltStore) Load(ctx context.Context, owner, name string) (*repertoire.Repertoire, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b, _ := s.ownerBucket(tx, owner, false)
		if b == nil {
			return ErrRepertoireNotFound
		}
		v := b.Get([]byte(normalizeName(name)))
		if v == nil {
			return ErrRepertoireNotFound
		}
		// values are only valid inside the transaction
		raw = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeStored(raw, s.logger)
}

func (s *BoltStore) Delete(ctx context.Context, owner, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, _ := s.ownerBucket(tx, owner, false)
		key := []byte(normalizeName(name))
		if b == nil || b.Get(key) == nil {
			return ErrRepertoireNotFound
		}
		return b.Delete(key)
	})
}

func (s *BoltStore) List(ctx context.Context, owner string) ([]domain.RepertoireInfo, error) {
	var out []domain.RepertoireInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		b, _ := s.ownerBucket(tx, owner, false)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			info, err := infoFromStored(v)
			if err != nil {
				return err
			}
			out = append(out, info)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list repertoires: %w", err)
	}
	return out, nil
}

func (s *BoltStore) Update(ctx context.Context, owner, name string, fn func(*repertoire.Repertoire) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, _ := s.ownerBucket(tx, owner, false)
		key := []byte(normalizeName(name))
		if b == nil {
			return ErrRepertoireNotFound
		}
		raw := b.Get(key)
		if raw == nil {
			return ErrRepertoireNotFound
		}
		rep, err := decodeStored(raw, s.logger)
		if err != nil {
			return err
		}
		if err := fn(rep); err != nil {
			return err
		}
		next, err := encodeStored(name, rep, time.Now())
		if err != nil {
			return err
		}
		return b.Put(key, next)
	})
}
