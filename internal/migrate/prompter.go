package migrate

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/temirov/lakemove/internal/utils/flags"
)

const (
	confirmationSuffixConstant = " [y/N]: "
	lineDelimiterConstant      = '\n'
)

// ConfirmationPrompter asks the operator before destructive steps.
type ConfirmationPrompter interface {
	Confirm(executionContext context.Context, prompt string) (bool, error)
}

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
type IOConfirmationPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and accepts yes-style answers. An empty answer or end of input declines.
func (prompter *IOConfirmationPrompter) Confirm(executionContext context.Context, prompt string) (bool, error) {
	if executionContext != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return false, contextError
		}
	}

	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt+confirmationSuffixConstant); writeError != nil {
			return false, writeError
		}
	}

	response, readError := prompter.reader.ReadString(lineDelimiterConstant)
	if readError != nil && !errors.Is(readError, io.EOF) {
		return false, readError
	}

	trimmedResponse := strings.TrimSpace(response)
	if len(trimmedResponse) == 0 {
		return false, nil
	}
	confirmed, parseError := flags.ParseToggleValue(trimmedResponse)
	if parseError != nil {
		return false, nil
	}
	return confirmed, nil
}

type assumeYesPrompter struct{}

func (assumeYesPrompter) Confirm(context.Context, string) (bool, error) {
	return true, nil
}
