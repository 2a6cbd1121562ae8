package reader

import (
	"fmt"
	"io"
	"os"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
	"github.com/tsawler/dxf/section"
)

// Reader represents an open DXF file
type Reader struct {
	file     *os.File
	tokens   core.TokenReader
	version  format.Version
	fileSize int64
}

// NewReader creates a new DXF reader for the given file. The encoding is
// sniffed and the version read from the header; the rest of the file is
// not parsed until Document is called.
func NewReader(file *os.File) (*Reader, error) {
	// Get file size
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	tokens, err := core.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to detect encoding: %w", err)
	}

	reader := &Reader{
		file:     file,
		tokens:   tokens,
		fileSize: fileInfo.Size(),
	}

	version, err := reader.sniffVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	reader.version = version

	return reader, nil
}

// Open opens a DXF file and returns a Reader
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	return reader, nil
}

// Close closes the DXF file
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// sniffVersion scans the HEADER section for $ACADVER. A file without it is
// an R12 file.
func (r *Reader) sniffVersion() (v format.Version, err error) {
	defer func() {
		if rerr := r.tokens.Reset(); rerr != nil && err == nil {
			v, err = format.Unknown, fmt.Errorf("failed to rewind: %w", rerr)
		}
	}()

	var prev core.Token
	inHeader := false
	for {
		tok, err := r.tokens.ReadToken()
		if err == io.EOF {
			return format.R12, nil
		}
		if err != nil {
			return format.Unknown, err
		}
		switch {
		case prev.Is(0, "SECTION") && tok.Code == 2:
			inHeader = tok.Str == "HEADER"
		case inHeader && prev.Is(9, "$ACADVER"):
			ver, err := format.ParseACADVer(tok.Value())
			if err != nil {
				return format.Unknown, &core.FormatError{Msg: "unsupported dialect", Err: err}
			}
			return ver, nil
		case inHeader && tok.Is(0, "ENDSEC"):
			return format.R12, nil
		}
		prev = tok
	}
}

// Version returns the DXF dialect named by $ACADVER
func (r *Reader) Version() format.Version {
	return r.version
}

// Encoding returns the stream encoding of the file
func (r *Reader) Encoding() format.Encoding {
	return r.tokens.Encoding()
}

// Size returns the file size in bytes
func (r *Reader) Size() int64 {
	return r.fileSize
}

// Name returns the file name
func (r *Reader) Name() string {
	if r.file == nil {
		return ""
	}
	return r.file.Name()
}

// Tokens returns the token stream rewound to the first token
func (r *Reader) Tokens() (core.TokenReader, error) {
	if r.file == nil {
		return nil, fmt.Errorf("reader is closed")
	}
	if err := r.tokens.Reset(); err != nil {
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}
	return r.tokens, nil
}

// Document parses the whole file
func (r *Reader) Document(opts model.Options) (*model.Document, error) {
	tokens, err := r.Tokens()
	if err != nil {
		return nil, err
	}
	return section.Parse(tokens, opts)
}
