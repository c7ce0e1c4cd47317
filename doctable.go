package vindex

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/wizenheimer/vindex/store"
)

// DocumentMetadata is the per-document record carried in a hash field
// under dt:{indexName}: a caller-assigned relevance weight, consulted by
// the executor's finalScore multiplier, and caller-assigned flags, which
// are stored and returned but not read by any engine code path.
type DocumentMetadata struct {
	Score float32
	Flags uint16
}

const docMetaEncodedLen = 4 + 2

func encodeDocMeta(m DocumentMetadata) []byte {
	buf := make([]byte, docMetaEncodedLen)
	binary.BigEndian.PutUint32(buf[0:4], math.Float32bits(m.Score))
	binary.BigEndian.PutUint16(buf[4:6], m.Flags)
	return buf
}

func decodeDocMeta(buf []byte) (DocumentMetadata, error) {
	if len(buf) != docMetaEncodedLen {
		return DocumentMetadata{}, ErrDecode
	}
	return DocumentMetadata{
		Score: math.Float32frombits(binary.BigEndian.Uint32(buf[0:4])),
		Flags: binary.BigEndian.Uint16(buf[4:6]),
	}, nil
}

// DocTable is the document-metadata and doc-key↔docId collaborator:
// it wraps the backing store's hash primitive for dt:{indexName} (docId ->
// DocumentMetadata) and dk:{indexName} (external key <-> docId, stored as
// two field prefixes in the same hash), plus a monotonic counter blob at
// dc:{indexName}.
type DocTable struct {
	backend   store.Backend
	indexName string
}

// NewDocTable wraps backend for indexName.
func NewDocTable(backend store.Backend, indexName string) *DocTable {
	return &DocTable{backend: backend, indexName: indexName}
}

const (
	keyMapForward = "k:" // external key -> docId
	keyMapReverse = "d:" // docId -> external key
)

// GetDocID resolves key to a docId, minting a new one only if key has
// never been seen before. This is the idempotent replacement for the
// source's Redis_GetDocId: every call consults the existing mapping
// first, so re-adding the same external key never allocates a second
// docId.
func (dt *DocTable) GetDocID(key string) (docID uint32, created bool, err error) {
	hash := docKeyMapKey(dt.indexName)

	if raw, ok, err := dt.backend.HGet(hash, []byte(keyMapForward+key)); err != nil {
		return 0, false, &StoreError{Op: "HGet(doc key map)", Err: err}
	} else if ok {
		id, perr := strconv.ParseUint(string(raw), 10, 32)
		if perr != nil {
			return 0, false, ErrDecode
		}
		return uint32(id), false, nil
	}

	id, err := dt.nextDocID()
	if err != nil {
		return 0, false, err
	}

	idStr := formatUint(uint64(id))
	if err := dt.backend.HSet(hash, []byte(keyMapForward+key), []byte(idStr)); err != nil {
		return 0, false, &StoreError{Op: "HSet(doc key map forward)", Err: err}
	}
	if err := dt.backend.HSet(hash, []byte(keyMapReverse+idStr), []byte(key)); err != nil {
		return 0, false, &StoreError{Op: "HSet(doc key map reverse)", Err: err}
	}
	return id, true, nil
}

// Key resolves docID back to its external key, if known.
func (dt *DocTable) Key(docID uint32) (string, bool, error) {
	hash := docKeyMapKey(dt.indexName)
	raw, ok, err := dt.backend.HGet(hash, []byte(keyMapReverse+formatUint(uint64(docID))))
	if err != nil {
		return "", false, &StoreError{Op: "HGet(doc key map)", Err: err}
	}
	if !ok {
		return "", false, nil
	}
	return string(raw), true, nil
}

func (dt *DocTable) nextDocID() (uint32, error) {
	key := docIDCounterKey(dt.indexName)
	raw, ok, err := dt.backend.Get(key)
	if err != nil {
		return 0, &StoreError{Op: "Get(docId counter)", Err: err}
	}
	var cur uint64
	if ok {
		cur, err = strconv.ParseUint(string(raw), 10, 32)
		if err != nil {
			return 0, ErrDecode
		}
	}
	next := cur + 1
	if err := dt.backend.Set(key, []byte(formatUint(next))); err != nil {
		return 0, &StoreError{Op: "Set(docId counter)", Err: err}
	}
	return uint32(next), nil
}

// SetMetadata records docID's score and flags.
func (dt *DocTable) SetMetadata(docID uint32, meta DocumentMetadata) error {
	hash := docMetaKey(dt.indexName)
	if err := dt.backend.HSet(hash, []byte(formatUint(uint64(docID))), encodeDocMeta(meta)); err != nil {
		return &StoreError{Op: "HSet(doc metadata)", Err: err}
	}
	return nil
}

// Metadata returns docID's recorded score and flags, or the zero value if
// none was ever set (score 0 is the default multiplicative identity once
// shifted through finalScore's 1+score factor — see executor.go).
func (dt *DocTable) Metadata(docID uint32) (DocumentMetadata, error) {
	hash := docMetaKey(dt.indexName)
	raw, ok, err := dt.backend.HGet(hash, []byte(formatUint(uint64(docID))))
	if err != nil {
		return DocumentMetadata{}, &StoreError{Op: "HGet(doc metadata)", Err: err}
	}
	if !ok {
		return DocumentMetadata{}, nil
	}
	return decodeDocMeta(raw)
}
