// Package core provides the low-level DXF token stream: group-code/value
// tokens, the text and binary readers that produce them, the writers that
// emit them, and the error taxonomy shared by the rest of the library.
//
// # Tokens
//
// A DXF file is a flat sequence of [Token] values. Each token pairs an
// integer group code with a value whose type is fixed by the code (see
// [KindOf]): strings, 16/32/64-bit integers, reals, booleans, handle
// references and binary chunks.
//
// # Reading
//
// [NewReader] sniffs the stream and returns a [TokenReader] for either the
// text encoding ([Lexer]) or the binary encoding ([BinaryReader]):
//
//	tr, err := core.NewReader(f)
//	for {
//	    tok, err := tr.ReadToken()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// Both encodings of the same drawing produce identical token sequences.
//
// # Writing
//
// [TextWriter] and [BinaryWriter] implement [TokenWriter].
//
// # Errors
//
// [FormatError], [StructuralError], [ReferenceError] and [ConversionError]
// carry location context and match [ErrFormat], [ErrStructure],
// [ErrReference] and [ErrConversion] through errors.Is.
package core
