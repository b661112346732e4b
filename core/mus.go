package core

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted entities. Field order is
// part of the storage format; append new fields at the end only.

var (
	// IDMUS serializes entity IDs.
	IDMUS = idMUS{}
	// DocumentMUS serializes Documents.
	DocumentMUS = documentMUS{}
	// PageMUS serializes Pages.
	PageMUS = pageMUS{}
	// ChunkMUS serializes Chunks.
	ChunkMUS = chunkMUS{}
	// ConceptMUS serializes Concepts.
	ConceptMUS = conceptMUS{}
	// CategoryMUS serializes Categories.
	CategoryMUS = categoryMUS{}

	vectorMUS      = ord.NewSliceSer[float32](varint.Float32)
	stringSliceMUS = ord.NewSliceSer[string](ord.String)
	idSliceMUS     = ord.NewSliceSer[ID](IDMUS)
)

var _ mus.Serializer[ID] = IDMUS

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Source, bs[n:])
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Author, bs[n:])
	n += varint.Int.Marshal(d.Year, bs[n:])
	n += ord.String.Marshal(d.Publisher, bs[n:])
	n += ord.String.Marshal(d.Summary, bs[n:])
	n += vectorMUS.Marshal(d.Vector, bs[n:])
	n += idSliceMUS.Marshal(d.ConceptIds, bs[n:])
	n += idSliceMUS.Marshal(d.CategoryIds, bs[n:])
	n += ord.String.Marshal(d.ContentHash, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.Source, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Author, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Year, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Publisher, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ConceptIds, n1, err = idSliceMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.CategoryIds, n1, err = idSliceMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	return d, n, nil
}

func (documentMUS) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.Source)
	size += ord.String.Size(d.Title)
	size += ord.String.Size(d.Author)
	size += varint.Int.Size(d.Year)
	size += ord.String.Size(d.Publisher)
	size += ord.String.Size(d.Summary)
	size += vectorMUS.Size(d.Vector)
	size += idSliceMUS.Size(d.ConceptIds)
	size += idSliceMUS.Size(d.CategoryIds)
	size += ord.String.Size(d.ContentHash)
	return size
}

type pageMUS struct{}

func (pageMUS) Marshal(p Page, bs []byte) (n int) {
	n = IDMUS.Marshal(p.Id, bs)
	n += IDMUS.Marshal(p.DocumentId, bs[n:])
	n += varint.Int.Marshal(p.Number, bs[n:])
	n += idSliceMUS.Marshal(p.ConceptIds, bs[n:])
	n += ord.String.Marshal(p.Preview, bs[n:])
	n += vectorMUS.Marshal(p.Vector, bs[n:])
	return n
}

func (pageMUS) Unmarshal(bs []byte) (p Page, n int, err error) {
	var n1 int
	if p.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if p.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.Number, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.ConceptIds, n1, err = idSliceMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.Preview, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	return p, n, nil
}

func (pageMUS) Size(p Page) (size int) {
	size = IDMUS.Size(p.Id)
	size += IDMUS.Size(p.DocumentId)
	size += varint.Int.Size(p.Number)
	size += idSliceMUS.Size(p.ConceptIds)
	size += ord.String.Size(p.Preview)
	size += vectorMUS.Size(p.Vector)
	return size
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Int.Marshal(c.PageNumber, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += idSliceMUS.Marshal(c.ConceptIds, bs[n:])
	n += varint.Float32.Marshal(c.Density, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.ConceptIds, n1, err = idSliceMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Density, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.Id)
	size += IDMUS.Size(c.DocumentId)
	size += varint.Int.Size(c.PageNumber)
	size += ord.String.Size(c.Text)
	size += idSliceMUS.Size(c.ConceptIds)
	size += varint.Float32.Size(c.Density)
	size += vectorMUS.Size(c.Vector)
	return size
}

type conceptMUS struct{}

func (conceptMUS) Marshal(c Concept, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Name, bs[n:])
	n += IDMUS.Marshal(c.CategoryId, bs[n:])
	n += stringSliceMUS.Marshal(c.Synonyms, bs[n:])
	n += stringSliceMUS.Marshal(c.BroaderTerms, bs[n:])
	n += stringSliceMUS.Marshal(c.NarrowerTerms, bs[n:])
	n += idSliceMUS.Marshal(c.RelatedIds, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	n += varint.Float32.Marshal(c.Weight, bs[n:])
	n += varint.Int.Marshal(c.ChunkCount, bs[n:])
	n += varint.Int.Marshal(c.DocumentCount, bs[n:])
	n += varint.Int.Marshal(int(c.Provenance), bs[n:])
	return n
}

func (conceptMUS) Unmarshal(bs []byte) (c Concept, n int, err error) {
	var n1 int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.CategoryId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Synonyms, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.BroaderTerms, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.NarrowerTerms, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.RelatedIds, n1, err = idSliceMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Weight, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.DocumentCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	var prov int
	if prov, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	c.Provenance = Provenance(prov)
	return c, n, nil
}

func (conceptMUS) Size(c Concept) (size int) {
	size = IDMUS.Size(c.Id)
	size += ord.String.Size(c.Name)
	size += IDMUS.Size(c.CategoryId)
	size += stringSliceMUS.Size(c.Synonyms)
	size += stringSliceMUS.Size(c.BroaderTerms)
	size += stringSliceMUS.Size(c.NarrowerTerms)
	size += idSliceMUS.Size(c.RelatedIds)
	size += vectorMUS.Size(c.Vector)
	size += varint.Float32.Size(c.Weight)
	size += varint.Int.Size(c.ChunkCount)
	size += varint.Int.Size(c.DocumentCount)
	size += varint.Int.Size(int(c.Provenance))
	return size
}

type categoryMUS struct{}

func (categoryMUS) Marshal(c Category, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Name, bs[n:])
	n += ord.String.Marshal(c.Description, bs[n:])
	n += stringSliceMUS.Marshal(c.Aliases, bs[n:])
	n += IDMUS.Marshal(c.ParentId, bs[n:])
	n += idSliceMUS.Marshal(c.RelatedIds, bs[n:])
	n += varint.Int.Marshal(c.DocumentCount, bs[n:])
	n += varint.Int.Marshal(c.ChunkCount, bs[n:])
	n += varint.Int.Marshal(c.ConceptCount, bs[n:])
	return n
}

func (categoryMUS) Unmarshal(bs []byte) (c Category, n int, err error) {
	var n1 int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Description, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Aliases, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.ParentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.RelatedIds, n1, err = idSliceMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.DocumentCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.ConceptCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (categoryMUS) Size(c Category) (size int) {
	size = IDMUS.Size(c.Id)
	size += ord.String.Size(c.Name)
	size += ord.String.Size(c.Description)
	size += stringSliceMUS.Size(c.Aliases)
	size += IDMUS.Size(c.ParentId)
	size += idSliceMUS.Size(c.RelatedIds)
	size += varint.Int.Size(c.DocumentCount)
	size += varint.Int.Size(c.ChunkCount)
	size += varint.Int.Size(c.ConceptCount)
	return size
}
