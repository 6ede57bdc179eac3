// Package cell turns a parsed crystal structure into a unit cell of atoms
// placed in Cartesian space, groups bonded atoms into molecules, and
// replicates cells into supercells.
//
// Positions are Cartesian (Angstrom). Every cell carries the lattice basis its
// atoms were placed with, so fractional coordinates can always be recovered.
package cell
