// Package section turns a DXF token stream into a [model.Document] and
// back.
//
// # Reading
//
// [Parse] checks the section grammar
//
//	(0 SECTION 2 <name> ... 0 ENDSEC)* 0 EOF
//
// and decodes HEADER, TABLES, BLOCKS and ENTITIES. Sections are processed
// in dependency order whatever their position in the file: tables first,
// then block definitions, then entities. Strings of pre-R2007 files are
// decoded with the $DWGCODEPAGE code page.
//
// Data the model does not interpret survives a round trip: unknown group
// codes inside a known entity go to EntityCommon.Extra, unknown entity
// types become [model.Unknown], and CLASSES, OBJECTS, unmodelled tables and
// unknown sections are kept verbatim with their position.
//
// # Writing
//
// [Write] emits a document in the dialect of its version. Dialect
// differences (subclass markers, owner handles, the BLOCK_RECORD table,
// binary code width) are taken from [dialect.ProfileFor]. Write never
// converts entities; see the dialect package for downgrades.
//
//	tw := section.NewTokenWriter(f, format.ASCII, doc.Version)
//	if err := section.Write(tw, doc); err != nil {
//	    return err
//	}
package section
