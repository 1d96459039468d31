// Package graph defines the structural model for truss.
// The model is an arena of nodes and members addressed by integer handles.
// Line members (columns, beams, members) and surface members (walls, slabs)
// reference nodes by handle, so two members are connected exactly when they
// share a NodeID.
package graph
