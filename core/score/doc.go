// Package score provides the document model produced by the musictext
// pipeline.
//
// # Core Types
//
// The model is organized hierarchically:
//
//   - Document: every stave of an input text plus header metadata
//   - Stave: annotation lines around exactly one content line
//   - ContentLine: notes, dashes, barlines and breath marks grouped into beats
//   - AnnotationLine: positioned tokens above or below the content line
//
// # Ownership
//
// Every token carries a Source. Annotation sources are consumed exactly once
// by the spatial assigner through Source.Take, which moves the value out and
// leaves the source empty. A token whose source still holds a value after
// assignment was never considered, which makes completeness checkable by a
// simple scan.
//
// # Durations
//
// Durations are Fractions of a whole note, reduced with math/big. A beat
// always spans a quarter note; its elements divide it evenly.
//
// # Example
//
//	doc, err := pipeline.Process(ctx, ".  :\n1  2  3", pipeline.Options{})
//	for _, n := range doc.Staves[0].Content.Notes() {
//	    fmt.Println(n.Note.Pitch, n.Note.Octave, n.Note.Duration)
//	}
package score
