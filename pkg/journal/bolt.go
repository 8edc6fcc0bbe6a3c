package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

var (
	bucketSessions = []byte("sessions") // big-endian index -> Entry
	bucketMeta     = []byte("meta")
	keyBoots       = []byte("boots")
)

type boltJournal struct {
	db     *bolt.DB
	logger logger.Logger
	now    func() time.Time
}

// Open opens or creates the journal at cfg.DBPath. Unless read-only, it
// counts a boot and closes sessions left open by the previous run with
// EndReset.
func Open(cfg Config, log logger.Logger) (Journal, error) {
	if cfg.DBPath == "" {
		return nil, ErrEmptyPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if log == nil {
		log = logger.Noop()
	}
	log = log.With("component", "journal")

	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := bolt.Open(cfg.DBPath, 0o600, &bolt.Options{
		Timeout:  cfg.Timeout,
		ReadOnly: cfg.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &boltJournal{db: db, logger: log, now: time.Now}

	if !cfg.ReadOnly {
		if err := j.init(); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("failed to close journal after initialization error", "error", closeErr)
			}
			return nil, err
		}
	}

	log.Info("journal opened", "db_path", cfg.DBPath, "read_only", cfg.ReadOnly)
	return j, nil
}

// init creates the buckets, counts the boot and closes orphaned sessions.
func (j *boltJournal) init() error {
	return j.db.Update(func(tx *bolt.Tx) error {
		sessions, err := tx.CreateBucketIfNotExists(bucketSessions)
		if err != nil {
			return fmt.Errorf("failed to create sessions bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create meta bucket: %w", err)
		}

		boots := uint64(0)
		if v := meta.Get(keyBoots); len(v) == 8 {
			boots = binary.BigEndian.Uint64(v)
		}
		if err := meta.Put(keyBoots, binary.BigEndian.AppendUint64(nil, boots+1)); err != nil {
			return fmt.Errorf("failed to store boot count: %w", err)
		}

		var orphans []Entry
		if err := sessions.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				j.logger.Warn("skipping unreadable journal entry", "key", k, "error", err)
				return nil
			}
			if e.Open() {
				orphans = append(orphans, e)
			}
			return nil
		}); err != nil {
			return fmt.Errorf("failed to scan sessions: %w", err)
		}

		now := j.now()
		for i := range orphans {
			e := &orphans[i]
			e.EndReason = EndReset
			e.EndedAt = e.UpdatedAt
			if e.EndedAt.IsZero() {
				e.EndedAt = now
			}
			if err := put(sessions, e); err != nil {
				return err
			}
			j.logger.Warn("session interrupted by reset", "index", e.Index, "records", e.Records)
		}
		return nil
	})
}

func (j *boltJournal) Begin(index uint32, file string, cause Cause) error {
	now := j.now()
	e := &Entry{
		Index:     index,
		File:      file,
		Cause:     cause,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := j.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(bucketSessions), e)
	}); err != nil {
		return err
	}
	j.logger.Debug("session begun", "index", index, "file", file, "cause", cause)
	return nil
}

func (j *boltJournal) Checkpoint(index uint32, records uint64, bytes int64) error {
	return j.modify(index, func(e *Entry) error {
		if !e.Open() {
			return ErrClosed
		}
		e.Records = records
		e.Bytes = bytes
		e.UpdatedAt = j.now()
		return nil
	})
}

func (j *boltJournal) End(index uint32, reason EndReason, records uint64, bytes int64) error {
	err := j.modify(index, func(e *Entry) error {
		now := j.now()
		e.Records = records
		e.Bytes = bytes
		e.UpdatedAt = now
		e.EndedAt = now
		e.EndReason = reason
		return nil
	})
	if err == nil {
		j.logger.Debug("session ended", "index", index, "reason", reason, "records", records)
	}
	return err
}

func (j *boltJournal) modify(index uint32, fn func(*Entry) error) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		data := b.Get(key(index))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, index)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		if err := fn(&e); err != nil {
			return err
		}
		return put(b, &e)
	})
}

func (j *boltJournal) Get(index uint32) (*Entry, error) {
	var e *Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, index)
		}
		data := b.Get(key(index))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, index)
		}
		var out Entry
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		e = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (j *boltJournal) List() ([]*Entry, error) {
	entries := make([]*Entry, 0, 16)
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return nil
		}
		// Big-endian keys iterate in index order.
		return b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				j.logger.Warn("skipping unreadable journal entry", "key", k, "error", err)
				return nil
			}
			entries = append(entries, &e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return entries, nil
}

func (j *boltJournal) Boots() (uint64, error) {
	var boots uint64
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		if v := b.Get(keyBoots); len(v) == 8 {
			boots = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return boots, err
}

func (j *boltJournal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	j.logger.Info("journal closed")
	return nil
}

func key(index uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, index)
}

func put(b *bolt.Bucket, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := b.Put(key(e.Index), data); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}
