// Package models defines the value types that flow through a conversion batch.
//
// A run moves through three stages, each with its own type:
//
//  1. Discovery : [SourceFile] describes one OGG candidate found under the scan root
//  2. Planning : [ConversionTask] pairs a source with its unique destination and [OutputMode]
//  3. Reporting : [ConversionResult] records the [Outcome] of one task, collected in task order into a [BatchReport]
//
// [PostCheckReport] holds verification and deletion results, and [RunReport] wraps everything for the formatters.
//
// All types are plain values. They are created once by the stage that owns them and never mutated afterwards.
package models
