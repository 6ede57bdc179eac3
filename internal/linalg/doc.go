// Package linalg holds the small amount of 3D linear algebra the pipeline
// needs: vectors, bases and the change of coordinates between a lattice basis
// and the Cartesian frame.
//
// Coordinates are row vectors. A fractional coordinate f maps to the
// Cartesian position r = f·B, where the rows of B are the basis vectors.
package linalg
