// Package draw renders cells and supercells. Drawing functions emit spheres
// and segments onto a Surface; Figure is a Surface that records them and can
// write the scene as a static image (gonum/plot) or an interactive 3D page
// (go-echarts).
package draw
