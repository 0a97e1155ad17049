// Package geometry maps raw lattice coordinates onto the rendering viewport.
//
// Transformations happen in two stages:
//
//  1. Orientation, about the center of the lattice's bounding box, in a
//     fixed order: mirror horizontally, then flip vertically, then rotate.
//     The steps do not commute, so the order is part of the contract.
//  2. Viewport fitting, always applied: the oriented lattice bounds are
//     scaled uniformly (aspect ratio preserved) into a square viewport
//     with a padding fraction on every side, and centered.
//
// Coordinates use the screen convention of the rendered markup: x grows to
// the right and y grows downward, so positive rotation angles turn points
// clockwise on screen.
//
// This package depends on nothing else in the module.
package geometry
