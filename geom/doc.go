// Package geom flattens drawing entities into straight-line paths.
//
// Circles, arcs, bulged polyline segments, ellipses and NURBS splines are
// approximated by chords within a tolerance. The resulting [Path] values
// feed extents computation, thumbnails and reports, and the same curve
// functions back the polyline approximations used when a drawing is
// written to a dialect that lacks the curve type.
package geom
