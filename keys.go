package vindex

import "fmt"

// Backing-store key templates, ported verbatim from the source's
// fmtRedisTermKey / fmtRedisSkipIndexKey / fmtRedisScoreIndexKey /
// fmtNumericIndexKey. Preserving these exactly is what keeps the
// on-disk layout bit-compatible with a pre-existing deployment.

func termKey(indexName, term string) []byte {
	return []byte(fmt.Sprintf("%s/%s", indexName, term))
}

func skipIndexKey(indexName, term string) []byte {
	return []byte(fmt.Sprintf("si:%s/%s", indexName, term))
}

func scoreIndexKey(indexName, term string) []byte {
	return []byte(fmt.Sprintf("ss:%s/%s", indexName, term))
}

func numericIndexKey(indexName, field string) []byte {
	return []byte(fmt.Sprintf("num:%s/%s", indexName, field))
}

func docMetaKey(indexName string) []byte {
	return []byte(fmt.Sprintf("dt:%s", indexName))
}

func docKeyMapKey(indexName string) []byte {
	return []byte(fmt.Sprintf("dk:%s", indexName))
}

func docIDCounterKey(indexName string) []byte {
	return []byte(fmt.Sprintf("dc:%s", indexName))
}

// numericFieldsKey names the blob tracking which numeric fields exist for
// indexName — needed because zset key-spaces, unlike blob
// key-spaces, are not enumerable via Backend.PrefixScan.
func numericFieldsKey(indexName string) []byte {
	return []byte(fmt.Sprintf("nf:%s", indexName))
}
