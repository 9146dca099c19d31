// Package chat keeps a set of chat tabs, each with its own message
// history, and streams replies from a generative-language backend.
//
// A reply is delivered chunk by chunk through the onChunk callback of
// Session.Send and appended to the tab history only once the stream has
// ended cleanly. A failed stream leaves the user's message in place and
// adds nothing for the assistant.
package chat
