// Package xmlfile writes repository metadata XML documents as a stream of
// pre-serialized chunks wrapped in the fixed header and footer of their kind.
package xmlfile

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/eunmann/mdstream/pkg/cwrap"
	"github.com/eunmann/mdstream/pkg/logging"
)

// ErrAlreadyExists is returned by Create when the target path is taken.
var ErrAlreadyExists = errors.New("file already exists")

// Dumper serializes one package record into the XML fragment of a document
// kind. An empty fragment means the record has nothing to emit.
type Dumper interface {
	Dump(kind Kind, pkg any) (string, error)
}

// DumperFunc adapts a function to the Dumper interface.
type DumperFunc func(kind Kind, pkg any) (string, error)

// Dump calls f(kind, pkg).
func (f DumperFunc) Dump(kind Kind, pkg any) (string, error) {
	return f(kind, pkg)
}

// Option configures a Document.
type Option func(*Document)

// WithDumper sets the serializer used by AddRecord.
func WithDumper(d Dumper) Option {
	return func(doc *Document) {
		doc.dumper = d
	}
}

// Document is a metadata XML file being written. The header is emitted
// lazily before the first chunk unless WriteHeader is called first, and
// Close completes whatever part of the document is still missing.
// A Document is not safe for concurrent use.
type Document struct {
	kind   Kind
	stream *cwrap.Stream
	dumper Dumper
	log    zerolog.Logger

	packages      int
	headerWritten bool
	footerWritten bool
	closed        bool
}

// Create creates a new document at path. It never overwrites: if anything
// already exists at path, ErrAlreadyExists is returned. compression must be
// a concrete kind; see cwrap.Create. Written bytes are accounted in stats when
// it is non-nil.
func Create(path string, kind Kind, compression cwrap.Kind, stats *cwrap.ContentStats, opts ...Option) (*Document, error) {
	kind.info()

	stream, err := cwrap.Create(path, compression, stats)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	doc := &Document{
		kind:   kind,
		stream: stream,
		log:    logging.WithComponent("xmlfile").With().Str("path", path).Stringer("kind", kind).Logger(),
	}
	for _, opt := range opts {
		opt(doc)
	}

	doc.log.Debug().Stringer("compression", stream.Kind()).Msg("document created")
	return doc, nil
}

// Kind returns the document kind.
func (d *Document) Kind() Kind { return d.kind }

// Packages returns the package count declared in the header.
func (d *Document) Packages() int { return d.packages }

// SetNumOfPkgs declares the package count written into the header. It must
// be called before the header is written.
func (d *Document) SetNumOfPkgs(n int) {
	if d.headerWritten {
		panic("xmlfile: package count set after header was written")
	}
	if n < 0 {
		panic(fmt.Sprintf("xmlfile: negative package count %d", n))
	}
	d.packages = n
}

// WriteHeader writes the XML declaration and the opening root tag.
func (d *Document) WriteHeader() error {
	if d.headerWritten {
		panic("xmlfile: header already written")
	}

	if _, err := d.stream.Printf(d.kind.HeaderTemplate(), d.packages); err != nil {
		return fmt.Errorf("cannot write xml header: %w", err)
	}
	d.headerWritten = true
	return nil
}

// WriteFooter writes the closing root tag.
func (d *Document) WriteFooter() error {
	if d.footerWritten {
		panic("xmlfile: footer already written")
	}

	if _, err := d.stream.WriteString(d.kind.Footer()); err != nil {
		return fmt.Errorf("cannot write xml footer: %w", err)
	}
	d.footerWritten = true
	return nil
}

// AddRecord serializes pkg with the document's Dumper and appends the
// result. Dumper errors are returned unchanged.
func (d *Document) AddRecord(pkg any) error {
	d.checkOpenForChunks()
	if d.dumper == nil {
		return errors.New("xmlfile: no dumper configured")
	}

	chunk, err := d.dumper.Dump(d.kind, pkg)
	if err != nil {
		return err
	}
	if chunk == "" {
		return nil
	}
	return d.AddChunk([]byte(chunk))
}

// AddChunk appends an already serialized fragment, writing the header first
// if needed. A nil chunk is ignored; an empty non-nil chunk still triggers
// the header.
func (d *Document) AddChunk(chunk []byte) error {
	d.checkOpenForChunks()
	if chunk == nil {
		return nil
	}

	if !d.headerWritten {
		d.log.Debug().Int("packages", d.packages).Msg("writing header before first chunk")
		if err := d.WriteHeader(); err != nil {
			return err
		}
	}

	if _, err := d.stream.Write(chunk); err != nil {
		return fmt.Errorf("error while writing: %w", err)
	}
	return nil
}

func (d *Document) checkOpenForChunks() {
	if d.footerWritten || d.closed {
		panic("xmlfile: chunk added after footer was written")
	}
}

// Close writes any missing header and footer and closes the underlying
// stream. The first failure is returned; the stream is released in every
// case. Closing a nil or closed Document is a no-op.
func (d *Document) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true

	if !d.headerWritten {
		if err := d.WriteHeader(); err != nil {
			d.stream.Close()
			return err
		}
	}
	if !d.footerWritten {
		if err := d.WriteFooter(); err != nil {
			d.stream.Close()
			return err
		}
	}

	if err := d.stream.Close(); err != nil {
		return fmt.Errorf("error while closing file: %w", err)
	}

	d.log.Debug().Int("packages", d.packages).Msg("document closed")
	return nil
}
