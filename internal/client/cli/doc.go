// Package cli implements the interactive journeykeeper client: a small REPL
// over the recording, session and sync services, plus the wiring that builds
// them from configuration.
//
// Commands
//
//	help                                      show available commands
//	login [email]                             authenticate (password is read without echo)
//	logout                                    forget the stored session
//	import <path> <chapter> [type] [seconds]  save a capture file as a recording
//	list [chapter]                            list recordings of the journey or a chapter
//	pending                                   list recordings waiting for upload
//	sync                                      run a sync pass now
//	delete <id>                               delete a recording and its file
//	storage                                   bytes used by local recordings
//	cleanup [age]                             delete uploaded recordings older than age
//	status                                    connectivity, sync and session state
//	exit | quit                               leave the program
//
// The prompt shows the signed-in user, online or offline mode and the
// number of recordings waiting for upload.
package cli
