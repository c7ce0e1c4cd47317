package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	bolt "go.etcd.io/bbolt"
)

var (
	blobBucket = []byte("blobs")
	zsetRoot   = []byte("zsets")
	hashRoot   = []byte("hashes")
)

// Bolt is a durable Backend built on go.etcd.io/bbolt. Blobs live in a flat
// bucket keyed verbatim; each sorted set gets its own nested bucket keyed
// by big-endian score||member so bbolt's natural byte-order cursor walk is
// a score-ascending scan; each hash gets its own nested bucket keyed by
// field name.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if absent) a bbolt database at path and prepares
// its top-level buckets.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{blobBucket, zsetRoot, hashRoot} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blobBucket).Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil, err
}

func (b *Bolt) Set(key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Put(key, value)
	})
}

func (b *Bolt) Append(key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blobBucket)
		cur := bkt.Get(key)
		out := make([]byte, len(cur)+len(value))
		copy(out, cur)
		copy(out[len(cur):], value)
		return bkt.Put(key, out)
	})
}

func (b *Bolt) Truncate(key []byte, newLen int) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blobBucket)
		cur := bkt.Get(key)
		if newLen > len(cur) {
			return nil
		}
		return bkt.Put(key, cur[:newLen])
	})
}

func (b *Bolt) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Delete(key)
	})
}

func (b *Bolt) PrefixScan(prefix []byte) ([][]byte, error) {
	var out [][]byte
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(blobBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			out = append(out, append([]byte(nil), k...))
		}
		return nil
	})
	return out, err
}

// scoreKey packs score as a sortable big-endian bit pattern followed by
// member, so a bucket cursor walk visits entries in ascending score order.
func scoreKey(score float64, member []byte) []byte {
	bits := math.Float64bits(score)
	// Flip the sign bit (and all bits for negatives) so IEEE-754 bit
	// patterns sort the same as the floats they represent.
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	key := make([]byte, 8+len(member))
	binary.BigEndian.PutUint64(key[:8], bits)
	copy(key[8:], member)
	return key
}

func (b *Bolt) ZAdd(set []byte, score float64, member []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.Bucket(zsetRoot).CreateBucketIfNotExists(set)
		if err != nil {
			return err
		}
		// Drop member's previous entry, if any, so a re-add updates its
		// score instead of listing the member under two scores.
		c := root.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if bytes.Equal(v, member) {
				if err := c.Delete(); err != nil {
					return err
				}
				break
			}
		}
		return root.Put(scoreKey(score, member), member)
	})
}

func (b *Bolt) ZRangeByScore(set []byte, min, max float64) ([]ZEntry, error) {
	var out []ZEntry
	err := b.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(zsetRoot).Bucket(set)
		if root == nil {
			return nil
		}
		return root.ForEach(func(k, v []byte) error {
			score := scoreFromKey(k)
			if score >= min && score <= max {
				out = append(out, ZEntry{Member: append([]byte(nil), v...), Score: score})
			}
			return nil
		})
	})
	return out, err
}

func scoreFromKey(k []byte) float64 {
	bits := binary.BigEndian.Uint64(k[:8])
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

func (b *Bolt) ZRemoveAll(set []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(zsetRoot).DeleteBucket(set)
	})
}

func (b *Bolt) HGet(hash, field []byte) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(hashRoot).Bucket(hash)
		if root == nil {
			return nil
		}
		v := root.Get(field)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil, err
}

func (b *Bolt) HSet(hash, field, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.Bucket(hashRoot).CreateBucketIfNotExists(hash)
		if err != nil {
			return err
		}
		return root.Put(field, value)
	})
}

func (b *Bolt) HDelete(hash []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(hashRoot).Bucket(hash) == nil {
			return nil
		}
		return tx.Bucket(hashRoot).DeleteBucket(hash)
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
