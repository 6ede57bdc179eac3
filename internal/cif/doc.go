// Package cif loads crystal structures from Crystallographic Information
// Files.
//
// Only the subset of CIF 1.1 needed to place atoms in a unit cell is read:
// cell parameters, the atom_site table, symmetry operators, the space group
// name and the optional geom_bond table. Everything else in the file is
// tokenized and ignored. The first data block is the one that is loaded.
//
// Structures are immutable once returned. Their Atoms are the
// symmetry-expanded contents of one unit cell, wrapped into [0, 1).
package cif
