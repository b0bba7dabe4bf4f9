package encoding

import (
	"bytes"
	"github.com/illuscio-dev/spanrespond-go/mimetype"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"golang.org/x/xerrors"
	"io"
	"reflect"
	"sort"
)

// Type helpers
type encoderMapping map[mimetype.MimeType]Encoder
type decoderMapping map[mimetype.MimeType]Decoder

/*
ContentEngine details the contract for a content encoding engine. The engine turns the
output of whichever format handler was picked for a request into bytes of that format,
so handlers can return plain values and leave serialization to a shared, extensible
place.
*/
type ContentEngine interface {
	// Registers an encoder for a given mimetype.
	SetEncoder(mimeType mimetype.MimeType, encoder Encoder)

	// Registers a decoder for a given mimetype.
	SetDecoder(mimeType mimetype.MimeType, decoder Decoder)

	// Returns true if the engine has a registered encoder for the mimetype.
	HandlesEncode(mimeType mimetype.MimeType) bool

	// Returns true if the engine has a registered decoder for the mimetype.
	HandlesDecode(mimeType mimetype.MimeType) bool

	// Returns true if the engine has a registered encoder AND decoder for the mimetype.
	Handles(mimeType mimetype.MimeType) bool

	// Whether the engine will attempt to decode unknown mimetypes.
	SniffType() bool

	// Decode mimeType content from reader using the decoder for mimeType. Decoded
	// content is stored in contentReceiver.
	Decode(
		mimeType mimetype.MimeType,
		contentReceiver interface{},
		reader io.Reader,
	) error

	// Encode content as mimetype using registered mimeType to writer.
	Encode(
		mimeType mimetype.MimeType,
		content interface{},
		writer io.Writer,
	) error
}

/*
SpanEngine is the default implementation of the ContentEngine interface.

Instantiation

Use NewContentEngine() to create a new SpanEngine. Register any custom encoders before
the engine is shared between goroutines; after that Encode and Decode are safe for
concurrent use.

Default Mimetypes

• application/json through github.com/ugorji/go/codec

• application/bson through go.mongodb.org/mongo-driver

• application/yaml through gopkg.in/yaml.v2

• application/xml through encoding/xml

• text/html, strings and template.HTML are written as-is, other values are escaped

• text/plain through fmt.Sprint

Extensions

JSON extensions (AddJSONExtensions) and BSON codecs (AddBSONCodecs) can be added for
custom types. UUIDs from "github.com/satori/go.uuid", spantypes.BinData (hex in JSON,
binary subtype 0x0 in BSON) and BSON binary primitives are handled out of the box.

Type Sniffing

If created with allowSniff set to true, decoding UNKNOWN content tries each decoder in
mimetype order until one succeeds.

Panics

If an encoder or decoder panics during execution, that panic is caught and returned as
an error.
*/
type SpanEngine struct {
	// MimeType:Encoder mapping
	encoders encoderMapping
	// MimeType:Decoder mapping
	decoders decoderMapping
	// Decoders in mimetype order. Used for sniffing.
	decoderList []Decoder
	// Whether to attempt decoding when no explicit mimetype is known.
	sniffMimeType bool

	// JSON handle for default JSON encoder
	jsonHandle *codec.JsonHandle
	// BSON registry for default BSON encoder
	bsonRegistry *bsoncodec.Registry
	// BSON codecs
	bsonCodecs []*BsonCodecOpts
	// Engine to pass to Encoder.Encode() and Decoder.Decode() methods.
	passedEngine ContentEngine
}

// Change the engine passed into Encoder.Encode() and Decoder.Decode()
func (engine *SpanEngine) SetPassedEngine(newEngine ContentEngine) {
	engine.passedEngine = newEngine
}

// Register an encoder for a given mimeType
func (engine *SpanEngine) SetEncoder(mimeType mimetype.MimeType, encoder Encoder) {
	engine.encoders[mimeType] = encoder
}

// Register a decoder for a given mimeType
func (engine *SpanEngine) SetDecoder(mimeType mimetype.MimeType, decoder Decoder) {
	engine.decoders[mimeType] = decoder

	mimeTypes := make([]mimetype.MimeType, 0, len(engine.decoders))
	for registered := range engine.decoders {
		mimeTypes = append(mimeTypes, registered)
	}
	sort.Slice(mimeTypes, func(i, j int) bool { return mimeTypes[i] < mimeTypes[j] })

	engine.decoderList = make([]Decoder, len(mimeTypes))
	for index, registered := range mimeTypes {
		engine.decoderList[index] = engine.decoders[registered]
	}
}

// Whether SpanEngine will attempt to decode UNKNOWN content.
func (engine *SpanEngine) SniffType() bool {
	return engine.sniffMimeType
}

// Whether the SpanEngine has a registered encoder for mimeType.
func (engine *SpanEngine) HandlesEncode(mimeType mimetype.MimeType) bool {
	_, ok := engine.encoders[mimeType]
	return ok
}

// Whether the SpanEngine has a registered decoder for mimeType.
func (engine *SpanEngine) HandlesDecode(mimeType mimetype.MimeType) bool {
	_, ok := engine.decoders[mimeType]
	return ok
}

// Whether the SpanEngine has a registered decoder AND encoder for mimeType.
func (engine *SpanEngine) Handles(mimeType mimetype.MimeType) bool {
	return engine.HandlesEncode(mimeType) && engine.HandlesDecode(mimeType)
}

// EncodeFormats lists every mimetype the engine can encode, sorted.
func (engine *SpanEngine) EncodeFormats() []mimetype.MimeType {
	formats := make([]mimetype.MimeType, 0, len(engine.encoders))
	for mimeType := range engine.encoders {
		formats = append(formats, mimeType)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

func (engine *SpanEngine) getEngine() ContentEngine {
	if engine.passedEngine != nil {
		return engine.passedEngine
	}
	return engine
}

// Uses an encoder while catching panics to return as errors
func (engine *SpanEngine) safeEncode(
	encoder Encoder, writer io.Writer, content interface{},
) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = xerrors.Errorf("panic during encode: %v", recovered)
		}
	}()

	return encoder.Encode(engine.getEngine(), writer, content)
}

// Uses a decoder while catching panics to return as errors
func (engine *SpanEngine) safeDecode(
	decoder Decoder, reader io.Reader, contentReceiver interface{},
) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = xerrors.Errorf("panic during decode: %v", recovered)
		}
	}()

	return decoder.Decode(engine.getEngine(), reader, contentReceiver)
}

// Attempts to decode content with all registered decoders until one succeeds or all
// fail.
func (engine *SpanEngine) sniffContent(
	contentReceiver interface{}, reader io.Reader,
) error {
	// The content is read once per attempt, so it has to be buffered.
	contentBuffer := new(bytes.Buffer)
	if _, err := contentBuffer.ReadFrom(reader); err != nil {
		return xerrors.Errorf("error reading content: %w", err)
	}

	var decoderErr error

	for _, decoder := range engine.decoderList {
		thisReader := bytes.NewBuffer(contentBuffer.Bytes())
		thisErr := engine.safeDecode(decoder, thisReader, contentReceiver)
		if thisErr == nil {
			return nil
		}

		if decoderErr == nil {
			decoderErr = thisErr
		} else {
			decoderErr = xerrors.Errorf("%v after: %w", thisErr, decoderErr)
		}
	}

	if decoderErr == nil {
		return xerrors.New("no decoders registered")
	}
	return decoderErr
}

// Picks the mimetype for encoding / decoding objects when source or target mimetype is
// unknown.
func pickContentMimeType(
	mimeType mimetype.MimeType, content interface{}, encoding bool,
) mimetype.MimeType {
	if mimeType != mimetype.UNKNOWN {
		return mimeType
	}

	var useType mimetype.MimeType

	switch content.(type) {
	case string, *string:
		useType = mimetype.TEXT
	default:
		useType = mimetype.JSON
	}

	// When decoding, only a string receiver forces text; anything else is sniffed.
	if encoding || useType == mimetype.TEXT {
		return useType
	}
	return mimeType
}

func (engine *SpanEngine) Decode(
	mimeType mimetype.MimeType,
	contentReceiver interface{},
	reader io.Reader,
) error {
	mimeType = pickContentMimeType(mimeType, contentReceiver, false)

	if readCloser, ok := reader.(io.ReadCloser); ok {
		defer func() {
			_ = readCloser.Close()
		}()
	}

	if mimeType == mimetype.UNKNOWN {
		if !engine.SniffType() {
			return xerrors.New("mimetype is unknown and sniffing is disabled")
		}
		return engine.sniffContent(contentReceiver, reader)
	}

	decoder, ok := engine.decoders[mimeType]
	if !ok {
		return xerrors.New("no decoder for " + string(mimeType))
	}

	if err := engine.safeDecode(decoder, reader, contentReceiver); err != nil {
		return xerrors.Errorf("decode err: %w", err)
	}

	return nil
}

func (engine *SpanEngine) Encode(
	mimeType mimetype.MimeType,
	content interface{},
	writer io.Writer,
) error {
	mimeType = pickContentMimeType(mimeType, content, true)

	encoder, ok := engine.encoders[mimeType]
	if !ok {
		return xerrors.New("no encoder for " + string(mimeType))
	}

	if err := engine.safeEncode(encoder, writer, content); err != nil {
		return xerrors.Errorf("encode err: %w", err)
	}
	return nil
}

// Returns the codec.JsonHandle used by the json encoder/decoder.
func (engine *SpanEngine) JSONHandle() *codec.JsonHandle {
	return engine.jsonHandle
}

// Returns the internal bsoncodec.Registry used by the bson encoder/decoder.
func (engine *SpanEngine) BSONRegistry() *bsoncodec.Registry {
	return engine.bsonRegistry
}

// Adds JSON extensions to handle.
func (engine *SpanEngine) AddJSONExtensions(extensions []*JSONExtensionOpts) error {
	for _, extOpts := range extensions {
		err := engine.jsonHandle.SetInterfaceExt(
			extOpts.ValueType, 1, extOpts.ExtInterface,
		)
		if err != nil {
			return xerrors.Errorf(
				"error adding json extension to content engine: %w", err,
			)
		}
	}
	return nil
}

// Adds BSON codecs to engine for use when encoding/decoding bson data.
func (engine *SpanEngine) AddBSONCodecs(codecs []*BsonCodecOpts) error {
	// Keep every codec so the registry can be rebuilt when more are added later.
	engine.bsonCodecs = append(engine.bsonCodecs, codecs...)

	builder := bsoncodec.NewRegistryBuilder()
	bsoncodec.DefaultValueEncoders{}.RegisterDefaultEncoders(builder)
	bsoncodec.DefaultValueDecoders{}.RegisterDefaultDecoders(builder)
	bson.PrimitiveCodecs{}.RegisterPrimitiveCodecs(builder)

	for _, codecOpts := range engine.bsonCodecs {
		builder.RegisterCodec(codecOpts.ValueType, codecOpts.Codec)
	}

	engine.bsonRegistry = builder.Build()

	// The raw document json extension needs the new registry to see custom codecs.
	err := engine.jsonHandle.SetInterfaceExt(
		reflect.TypeOf(bson.Raw{}),
		1,
		&jsonExtBsonRaw{engine.bsonRegistry},
	)
	if err != nil {
		return xerrors.Errorf(
			"error building bson extension for json handle: %w", err,
		)
	}

	return nil
}

// NewContentEngine returns a SpanEngine with every default encoder and decoder
// registered.
func NewContentEngine(allowSniff bool) (*SpanEngine, error) {
	engine := &SpanEngine{
		encoders:      make(encoderMapping),
		decoders:      make(decoderMapping),
		sniffMimeType: allowSniff,
		jsonHandle:    &codec.JsonHandle{},
	}

	engine.SetEncoder(mimetype.JSON, &jsonEncoder{})
	engine.SetEncoder(mimetype.BSON, &bsonEncoder{})
	engine.SetEncoder(mimetype.YAML, &yamlEncoder{})
	engine.SetEncoder(mimetype.XML, &xmlEncoder{})
	engine.SetEncoder(mimetype.HTML, &htmlEncoder{})
	engine.SetEncoder(mimetype.TEXT, &textEncoder{})

	engine.SetDecoder(mimetype.JSON, &jsonEncoder{})
	engine.SetDecoder(mimetype.BSON, &bsonEncoder{})
	engine.SetDecoder(mimetype.YAML, &yamlEncoder{})
	engine.SetDecoder(mimetype.XML, &xmlEncoder{})
	engine.SetDecoder(mimetype.TEXT, &textEncoder{})

	if err := engine.AddJSONExtensions(defaultJSONExtensions); err != nil {
		return nil, xerrors.Errorf("error adding default json extensions: %w", err)
	}

	if err := engine.AddBSONCodecs(defaultBsonCodecs); err != nil {
		return nil, xerrors.Errorf("error adding default bson codecs: %w", err)
	}

	return engine, nil
}
