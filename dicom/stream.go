package dicom

import (
	"math"

	"go.uber.org/zap"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dictionary"
	"github.com/halirutan/isis/property"
)

/*
===============================================================================
    BulkData
===============================================================================
*/

// BulkData is the side table of binary payloads (pixel data, CSA blobs,
// overlays) found while reading a stream. It keeps the order in which IDs
// were first seen, and the order of fragments per ID.
type BulkData struct {
	ids       []uint32
	fragments map[uint32][][]byte
}

// NewBulkData returns an empty side table.
func NewBulkData() *BulkData {
	return &BulkData{fragments: map[uint32][][]byte{}}
}

// Add appends `fragment` to the entries of `id`.
func (b *BulkData) Add(id uint32, fragment []byte) {
	if _, found := b.fragments[id]; !found {
		b.ids = append(b.ids, id)
	}
	b.fragments[id] = append(b.fragments[id], fragment)
}

// Get returns the fragments stored for `id`.
func (b *BulkData) Get(id uint32) [][]byte {
	return b.fragments[id]
}

// Remove drops all fragments of `id`.
func (b *BulkData) Remove(id uint32) {
	if _, found := b.fragments[id]; !found {
		return
	}
	delete(b.fragments, id)
	for i, known := range b.ids {
		if known == id {
			b.ids = append(b.ids[:i], b.ids[i+1:]...)
			break
		}
	}
}

// IDs returns the stored IDs in stream order.
func (b *BulkData) IDs() []uint32 {
	return append([]uint32(nil), b.ids...)
}

// Len returns the number of distinct IDs.
func (b *BulkData) Len() int { return len(b.ids) }

/*
===============================================================================
    Reader
===============================================================================
*/

// Reader turns a tag stream into a property tree, collecting binary payloads
// into its `BulkData`. A Reader serves a single decode; it is not safe for
// concurrent use.
type Reader struct {
	dict     *dictionary.Dictionary
	dialects core.Dialects
	strict   bool
	charset  *CharacterSet
	bulk     *BulkData
	log      *zap.SugaredLogger
	err      error
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger directs the reader's diagnostics to `l`.
func WithLogger(l *zap.SugaredLogger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// WithDialects sets the dialects consulted while decoding.
func WithDialects(d core.Dialects) ReaderOption {
	return func(r *Reader) { r.dialects = d }
}

// WithStrictMode makes payloads overrunning the buffer fatal (see `Err`).
func WithStrictMode(strict bool) ReaderOption {
	return func(r *Reader) { r.strict = strict }
}

// NewReader returns a Reader naming tags with `dict`.
func NewReader(dict *dictionary.Dictionary, opts ...ReaderOption) *Reader {
	r := &Reader{
		dict:   dict,
		strict: core.GetConfig().StrictMode,
		bulk:   NewBulkData(),
		log:    core.Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bulk returns the side table filled while reading.
func (r *Reader) Bulk() *BulkData { return r.bulk }

// Err returns the fatal error raised in strict mode, if any.
func (r *Reader) Err() error { return r.err }

// Logger returns the reader's logger.
func (r *Reader) Logger() *zap.SugaredLogger { return r.log }

// ReadStream consumes tags from `c` until an item delimitation tag is met or
// `limit` bytes (counted from the cursor's current position) are consumed.
func (r *Reader) ReadStream(c *TagCursor, limit int) *property.Tree {
	c.SetLogger(r.log)
	tree, _ := r.readStream(c, limit)
	return tree
}

// corrupt reports a payload that does not fit; it always stops reading.
func (r *Reader) corrupt(c *TagCursor, name string) bool {
	if r.strict {
		if r.err == nil {
			r.err = core.CorruptElementError("%s %s at %d: length %d exceeds the remaining %d bytes", name, c.IDString(), c.Position(), c.Length(), c.Remaining())
		}
	} else {
		r.log.Errorf("%s %s at %d: length %d exceeds the remaining %d bytes, stopping", name, c.IDString(), c.Position(), c.Length(), c.Remaining())
	}
	return false
}

// implicitVR guesses the VR of an implicit tag from the dictionary.
// Unknown tags of undefined length can only be sequences.
func (r *Reader) implicitVR(c *TagCursor) string {
	vr := r.dict.VR(c.ID32())
	if c.Length() == UndefinedLength && vr != "OB" && vr != "OW" {
		return "SQ"
	}
	return vr
}

// readStream returns the tree read and whether the cursor still points at a valid header.
func (r *Reader) readStream(c *TagCursor, limit int) (*property.Tree, bool) {
	tree := property.New()
	start := c.Position()
	ok := c.Valid()
	for ok && r.err == nil && c.Position()-start < limit {
		id := c.ID32()
		if id == dictionary.ItemDelimitationTag {
			ok = c.Advance(c.Position() + 8)
			break
		}
		name := r.dict.Name(id)
		vr := c.VR()
		if vr == ImplicitVR {
			if vr = r.implicitVR(c); vr == "" {
				r.log.Debugf("No VR known for %s in implicit stream, skipping it", name)
				ok = c.Next()
				continue
			}
		} else if c.Length() == UndefinedLength && vr != "OB" && vr != "OW" && vr != "SQ" {
			r.log.Warnf("%s has VR %s but an undefined length, reading it as a sequence", name, vr)
			vr = "SQ"
		}

		switch vr {
		case "OB", "OW":
			if c.Length() == UndefinedLength {
				ok = r.readDataItems(c, id, name)
				continue
			}
			data, err := c.Data()
			if err != nil {
				ok = r.corrupt(c, name)
				continue
			}
			r.bulk.Add(id, data)
		case "SQ":
			ok = r.readSequence(c, name, tree)
			continue
		default:
			if !c.Fits() {
				ok = r.corrupt(c, name)
				continue
			}
			if v, found := r.decodeValue(c, vr, name); found {
				tree.Set(name, v)
				if id == dictionary.SpecificCharacterSet {
					r.setCharacterSet(v)
				}
			}
		}
		ok = c.Next()
	}
	return tree, ok
}

func (r *Reader) setCharacterSet(v interface{}) {
	cs, term := characterSetFromValue(v)
	if cs == nil && term != "" {
		r.log.Warnf("Unknown SpecificCharacterSet %q, strings are read unconverted", term)
	}
	r.charset = cs
}

// readDataItems collects the fragments of an OB/OW payload of undefined length.
// The cursor ends behind the sequence delimitation tag.
func (r *Reader) readDataItems(c *TagCursor, id uint32, name string) bool {
	ok := c.Advance(c.DataOffset())
	for ok && c.ID32() == dictionary.ItemTag {
		// zero-length items (such as an empty basic offset table) are skipped
		if c.Length() > 0 {
			data, err := c.Data()
			if err != nil {
				return r.corrupt(c, name)
			}
			r.bulk.Add(id, data)
		}
		ok = c.Next()
	}
	if !ok {
		r.log.Warnf("Fragments of %s run to the end of the stream", name)
		return false
	}
	if c.ID32() != dictionary.SequenceDelimitation {
		r.log.Warnf("Fragments of %s end with %s instead of a sequence delimitation", name, c.IDString())
		return true
	}
	return c.Advance(c.Position() + 8)
}

// readSequence reads the items of the sequence at `c` and appends them to `tree`
// under `name`. The cursor ends on the tag following the sequence.
func (r *Reader) readSequence(c *TagCursor, name string, tree *property.Tree) bool {
	length := c.Length()
	end := math.MaxInt
	if length != UndefinedLength {
		end = c.DataOffset() + int(length)
	}
	ok := c.Advance(c.DataOffset())
	for ok && r.err == nil && c.Position() < end {
		switch c.ID32() {
		case dictionary.SequenceDelimitation:
			return c.Advance(c.Position() + 8)
		case dictionary.ItemTag:
			itemLimit := math.MaxInt
			if c.Length() != UndefinedLength {
				itemLimit = int(c.Length())
			}
			if ok = c.Advance(c.DataOffset()); !ok {
				tree.AppendItem(name, property.New())
				break
			}
			var item *property.Tree
			item, ok = r.readStream(c, itemLimit)
			tree.AppendItem(name, item)
		default:
			r.log.Errorf("Unexpected %s inside sequence %s at %d", c.IDString(), name, c.Position())
			if length == UndefinedLength {
				// let the caller read it as a regular tag
				return true
			}
			return c.Advance(end)
		}
	}
	return ok
}
