package encoding

import (
	"html/template"
	"io"
)

// Anything that is not already markup is escaped through this template.
var escapeTemplate = template.Must(template.New("escape").Parse(`{{.}}`))

/*
Handles encoding to text/html. Handlers picked for HTML usually return rendered markup,
so string, []byte and template.HTML content are written unchanged. Values of any other
type are printed and escaped so a struct can never inject markup.

There is no HTML decoder.
*/
type htmlEncoder struct{}

func (encoder *htmlEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	var err error

	switch typed := content.(type) {
	case template.HTML:
		_, err = io.WriteString(writer, string(typed))
	case string:
		_, err = io.WriteString(writer, typed)
	case []byte:
		_, err = writer.Write(typed)
	default:
		err = escapeTemplate.Execute(writer, content)
	}

	return err
}
