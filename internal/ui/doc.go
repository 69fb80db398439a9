// Package ui renders batch progress, either as a bubbletea view or as plain lines.
//
// The (view) [Model] follows bubbletea's Init/Update/View pattern. It starts the batch in a goroutine and
// receives [tasks.ProgressUpdate] values from a channel, one message at a time, through a waiting command.
// When the channel closes the run result arrives as a [MsgRunComplete] message and the program quits.
//
// Pressing q or ctrl+c calls the interrupt hook: the first press stops new conversions and lets running encoders
// finish, the second aborts the running encoders.
//
// [Plain] prints the same updates line by line when stdout is not a terminal.
package ui
