package encoding

import (
	"encoding/xml"
	"io"
)

// Handles encoding to / decoding from application/xml. Content must be something
// encoding/xml can marshal: a struct, or a type implementing xml.Marshaler. Maps are
// not supported.
type xmlEncoder struct{}

func (encoder *xmlEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	if _, err := io.WriteString(writer, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(writer).Encode(content)
}

func (encoder *xmlEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	return xml.NewDecoder(reader).Decode(contentReceiver)
}
