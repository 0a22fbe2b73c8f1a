package port

type Sink interface {
	// WriteLine prints one line followed by a newline.
	WriteLine(line string) error
	// Normal newline (for logs)
	NewLine() error
}
