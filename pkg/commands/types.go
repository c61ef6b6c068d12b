// Package commands provides a unified command system for channels.
// Channels parse platform input into a CommandRequest, execute it
// through the Registry, and render the CommandResponse in whatever
// form the platform supports.
package commands

import (
	"context"
)

// Command represents a command that can be executed from any channel.
type Command struct {
	// Name is the command name (without the / or ! prefix).
	Name string
	// Description is a short description of what the command does.
	Description string
	// Usage shows how to invoke the command.
	Usage string
	// Handler executes the command.
	Handler CommandHandler
}

// CommandHandler is a function that handles a command.
type CommandHandler func(ctx context.Context, req CommandRequest) (CommandResponse, error)

// CommandRequest contains information about a command invocation.
type CommandRequest struct {
	// Channel is the channel name (discord, telegram).
	Channel string
	// ChatID identifies the conversation.
	ChatID string
	// UserID identifies the user who invoked the command.
	UserID string
	// Username is the display name of the user.
	Username string
	// Command is the command name.
	Command string
	// Args is the text after the command.
	Args string
}

// File is a file to attach to a command response.
type File struct {
	// Name is the filename shown by the platform.
	Name string
	// ContentType is the MIME type.
	ContentType string
	// Data is the file content.
	Data []byte
}

// CommandResponse contains the command execution result.
type CommandResponse struct {
	// Content is the response text.
	Content string
	// GIFURL is an optional GIF link rendered as an embed where the
	// platform supports it, or appended to the text where it does not.
	GIFURL string
	// Files are attachments sent with the response, in order.
	Files []File
	// Ephemeral indicates the response should only be visible to the
	// invoking user, on platforms that support it.
	Ephemeral bool
}
