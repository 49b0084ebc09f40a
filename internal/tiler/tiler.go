package tiler

import "context"

// ITiler runs one command of the tool with the given options
type ITiler interface {
	RunTiler(ctx context.Context, opts *TilerOptions) error
}
