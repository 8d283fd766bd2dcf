package store

import (
	"github.com/RuiFG/streaming/log"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
	"github.com/xujiajun/nutsdb"
)

// Nuts is a Memory store writing every mutation through to a nutsdb bucket, so a
// driver reopened on the same directory resumes with the same entries.
type Nuts[K comparable, A any] struct {
	*Memory[K, A]
	logger log.Logger
	db     *nutsdb.DB
	bucket string
	codec  *Codec[K, A]
	// mutations since the last merge of the data files
	mutations      int
	mergeThreshold int
}

type NutsOptions struct {
	Dir    string
	Bucket string
	// MergeThreshold is the number of mutations between two merges of the data files, 0 disables merging.
	MergeThreshold int
	SegmentSize    int64
}

func OpenNuts[K comparable, A any](logger log.Logger, options NutsOptions, codec *Codec[K, A]) (*Nuts[K, A], error) {
	if options.Dir == "" {
		return nil, errors.New("nuts store dir can't be empty")
	}
	if options.Bucket == "" {
		options.Bucket = "windows"
	}
	if codec == nil {
		codec = NewGobCodec[K, A]()
	}
	opts := nutsdb.DefaultOptions
	opts.Dir = options.Dir
	if options.SegmentSize > 0 {
		opts.SegmentSize = options.SegmentSize
	}
	db, err := nutsdb.Open(opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to open nutsdb at %s", options.Dir)
	}
	s := &Nuts[K, A]{
		Memory:         NewMemory[K, A](),
		logger:         logger,
		db:             db,
		bucket:         options.Bucket,
		codec:          codec,
		mergeThreshold: options.MergeThreshold,
	}
	if err = s.restore(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Nuts[K, A]) restore() error {
	return s.db.View(func(tx *nutsdb.Tx) error {
		found := false
		if err := tx.IterateBuckets(nutsdb.DataStructureBPTree, s.bucket, func(bucket string) bool {
			found = true
			return false
		}); err != nil {
			return errors.WithMessage(err, "unable to iterate buckets, the state maybe corrupted")
		}
		if !found {
			return nil
		}
		entries, err := tx.GetAll(s.bucket)
		if err != nil {
			// an emptied bucket has nothing to restore
			s.logger.Warnw("failed to read bucket, starting empty.", "bucket", s.bucket, "err", err)
			return nil
		}
		for _, raw := range entries {
			key, _, err := s.codec.DecodeKey(raw.Key)
			if err != nil {
				return errors.WithMessage(err, "failed to decode stored key")
			}
			e, err := s.codec.DecodeEntry(raw.Value)
			if err != nil {
				return errors.WithMessagef(err, "failed to decode stored entry of key %v", key)
			}
			if err = s.Memory.Create(key, e); err != nil {
				return err
			}
		}
		s.logger.Infow("restored window state.", "bucket", s.bucket, "entries", len(entries))
		return nil
	})
}

func (s *Nuts[K, A]) Create(key K, e *Entry[A]) error {
	if err := s.Memory.Create(key, e); err != nil {
		return err
	}
	return s.write(key, e)
}

func (s *Nuts[K, A]) Put(key K, e *Entry[A]) error {
	if err := s.Memory.Put(key, e); err != nil {
		return err
	}
	return s.write(key, e)
}

func (s *Nuts[K, A]) Delete(key K, w window.Window) error {
	if err := s.Memory.Delete(key, w); err != nil {
		return err
	}
	k, err := s.codec.EncodeKey(key, w)
	if err != nil {
		return err
	}
	if err = s.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Delete(s.bucket, k)
	}); err != nil {
		return errors.WithMessagef(err, "failed to delete key %v window %v", key, w)
	}
	s.mutated()
	return nil
}

func (s *Nuts[K, A]) write(key K, e *Entry[A]) error {
	k, err := s.codec.EncodeKey(key, e.Window)
	if err != nil {
		return err
	}
	v, err := s.codec.EncodeEntry(e)
	if err != nil {
		return errors.WithMessagef(err, "failed to encode key %v window %v", key, e.Window)
	}
	if err = s.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(s.bucket, k, v, 0)
	}); err != nil {
		return errors.WithMessagef(err, "failed to persist key %v window %v", key, e.Window)
	}
	s.mutated()
	return nil
}

func (s *Nuts[K, A]) mutated() {
	if s.mergeThreshold <= 0 {
		return
	}
	s.mutations++
	if s.mutations%s.mergeThreshold == 0 {
		if err := s.db.Merge(); err != nil {
			s.logger.Warnw("failed to merge nutsdb data files.", "err", err)
		}
	}
}

func (s *Nuts[K, A]) Close() error {
	return s.db.Close()
}
