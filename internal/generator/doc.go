// Package generator drives a page generation run: it detects how many entities exist,
// fans their processing out under a fixed permit budget, reports progress, and
// summarizes the outcome.
package generator
