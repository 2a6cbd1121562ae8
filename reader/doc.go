// Package reader provides scoped access to a DXF file on disk.
//
// [Open] sniffs the stream encoding and reads $ACADVER without parsing the
// rest of the file, so callers can inspect a drawing cheaply before
// deciding to load it:
//
//	r, err := reader.Open("plan.dxf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	fmt.Println(r.Version(), r.Encoding())
//	doc, err := r.Document(model.DefaultOptions())
//
// The Reader owns the file handle until Close is called. Document and
// Tokens rewind the file, so both may be called more than once.
package reader
