// Package report renders size-class histograms of a measurement run as a
// static PNG (gonum/plot) or an interactive HTML page (go-echarts).
package report
