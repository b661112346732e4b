package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/gnosis/core"
)

// Key prefixes for different data types
const (
	documentPrefix        = "docrec"
	documentConceptPrefix = "doccon"
	documentCatPrefix     = "doccat"
	pagePrefix            = "pagrec"
	pageDocPrefix         = "pagdoc"
	pageConceptPrefix     = "pagcon"
	chunkPrefix           = "chkrec"
	chunkDocPrefix        = "chkdoc"
	chunkPagePrefix       = "chkpag"
	chunkConceptPrefix    = "chkcon"
	conceptPrefix         = "conrec"
	categoryPrefix        = "catrec"
)

// makeRecordKey generates a primary key for an entity by ID.
func makeRecordKey(prefix string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", prefix, id))
}

// makeJoinKey generates a composite key for a secondary index.
// Format: prefix:left:right, both IDs written BigEndian so lexicographic
// iteration visits them in numeric order.
func makeJoinKey(prefix string, left, right core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(left))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(right))
	return buf
}

// makePartialJoinKey generates a partial key for range scans over one side
// of a secondary index.
func makePartialJoinKey(prefix string, left core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(left))
	return buf
}

// makePageDocKey generates a composite key for the document->page index.
// Format: prefix:documentID:number; the page number is BigEndian encoded so
// pages iterate in page order.
func makePageDocKey(documentID core.ID, number int) []byte {
	prefixBytes := []byte(pageDocPrefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(number))
	return buf
}

// makeChunkPageKey generates a composite key for the page->chunk index.
// Format: prefix:documentID:number:chunkID.
func makeChunkPageKey(documentID core.ID, number int, chunkID core.ID) []byte {
	prefixBytes := []byte(chunkPagePrefix + ":")
	buf := make([]byte, len(prefixBytes)+24)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(number))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkPageKey generates a partial key for scanning the chunks of
// one page.
func makePartialChunkPageKey(documentID core.ID, number int) []byte {
	prefixBytes := []byte(chunkPagePrefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(number))
	return buf
}
