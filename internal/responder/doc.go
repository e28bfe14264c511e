// ABOUTME: Package documentation for the responder package
// ABOUTME: Explains mention dispatch, the reply deadline, and failure handling

// Package responder turns bot mentions into replies.
//
// A message that arrives through the chat service is scanned for a mention
// of a bot membership, either a #<id> token in the text or an explicit list
// supplied by the client. Each mention is handed to its own goroutine; the
// triggering request never waits for, or learns about, the outcome.
//
// The pipeline for one mention:
//
//  1. Resolve the membership id to a bot. Misses, inactive bots, and bots
//     that belong to a different channel end the pipeline silently.
//  2. Assemble the dialogue context from recent channel history.
//  3. Race the completion call against the reply timeout. On timeout the
//     in-flight call is abandoned and its eventual result discarded.
//  4. Persist the reply, linked to the triggering message.
//
// Text-scanned mentions degrade to a canned response when completion is
// unavailable, fails, or times out; explicitly declared mentions send
// nothing in those cases. Errors and panics in the detached work are
// logged with the originating message id and otherwise dropped.
package responder
