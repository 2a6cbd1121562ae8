// Package model provides the in-memory representation of a DXF drawing.
//
// All parsing produces these types and all writing consumes them, making
// them the primary API for inspecting or building drawings.
//
// # Document Structure
//
// The [Document] type represents a complete drawing: its dialect version,
// HEADER variables, symbol tables, block definitions and model space
// entities:
//
//	doc := model.NewDocument(format.R2000)
//	layer, _ := doc.LayerHandle("WALLS")
//	doc.Insert(&model.Line{
//	    EntityCommon: model.EntityCommon{Layer: layer},
//	    Start:        model.V2(0, 0),
//	    End:          model.V2(10, 0),
//	})
//
// # Handles
//
// Every object is identified by a [Handle]. Entities refer to layers,
// linetypes, text styles and blocks by handle, never by pointer; the
// [EntityTable] resolves them and checks them on insertion according to
// its [ReferencePolicy]. Removing a referenced record follows the
// [RemovalPolicy].
//
// # Entities
//
// All drawing entities implement the [Entity] interface. The concrete
// types are:
//
//   - [Line], [Point], [Circle], [Arc], [Ellipse]
//   - [Text], [MText]
//   - [Polyline] (with [Vertex] children), [LWPolyline]
//   - [Spline]
//   - [Insert] - block reference
//   - [Unknown] - any other entity type, kept verbatim
//
// Group codes that are not modelled are kept in [EntityCommon].Extra and
// written back unchanged.
package model
