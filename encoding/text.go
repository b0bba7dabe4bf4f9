package encoding

import (
	"bytes"
	"fmt"
	"golang.org/x/xerrors"
	"io"
)

// Handles encoding to / decoding from text/plain.
type textEncoder struct{}

func (encoder *textEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	var err error

	switch typed := content.(type) {
	case []byte:
		_, err = writer.Write(typed)
	case fmt.Stringer:
		_, err = io.WriteString(writer, typed.String())
	default:
		_, err = io.WriteString(writer, fmt.Sprint(content))
	}

	return err
}

func (encoder *textEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	stringPointer, ok := contentReceiver.(*string)
	if !ok || stringPointer == nil {
		return xerrors.New(
			"content receiver must be a string pointer to receive a string",
		)
	}

	buffer := new(bytes.Buffer)
	if _, err := buffer.ReadFrom(reader); err != nil {
		return err
	}

	*stringPointer = buffer.String()

	return nil
}
