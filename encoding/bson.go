package encoding

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"github.com/illuscio-dev/spanrespond-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"golang.org/x/xerrors"
	"io"
	"reflect"
)

// BsonListSepString is a delimiter for top-level bson lists, which bson does not
// normally support. When multiple documents are sent in a single payload, the
// unicode SYMBOL FOR RECORD SEPARATOR is used.
const BsonListSepString = "\u241E"

// BsonListSepBytes is a byte representation of BsonListSepString.
var BsonListSepBytes = []byte(BsonListSepString)

// Split function used to separate the bson records.
func splitBsonFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, BsonListSepBytes); i >= 0 {
		return i + len(BsonListSepBytes), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	// Request more data.
	return 0, nil, nil
}

// BsonCodecOpts holds options for registering new BSON codecs with SpanEngine.
type BsonCodecOpts struct {
	// Type this codec handles encoding / decoding to.
	ValueType reflect.Type

	// Codec to register for this type.
	Codec bsoncodec.ValueCodec
}

var defaultBsonCodecs = []*BsonCodecOpts{
	{
		ValueType: reflect.TypeOf(uuid.UUID{}),
		Codec:     bsonCodecUUID{},
	},
	{
		ValueType: reflect.TypeOf(spantypes.BinData{}),
		Codec:     bsonCodecBinData{},
	},
}

// bsonCodecBinData handles encoding and decoding of spantypes.BinData to and from bson
// binary subtype 0x0.
type bsonCodecBinData struct{}

func (codec bsonCodecBinData) EncodeValue(
	encodeCTX bsoncodec.EncodeContext,
	valueWriter bsonrw.ValueWriter,
	value reflect.Value,
) error {
	binData, ok := value.Interface().(spantypes.BinData)
	if !ok {
		return xerrors.Errorf("cannot encode %v as bin data", value.Type())
	}
	return valueWriter.WriteBinaryWithSubtype(binData, 0x0)
}

func (codec bsonCodecBinData) DecodeValue(
	decodeCTX bsoncodec.DecodeContext,
	valueReader bsonrw.ValueReader,
	value reflect.Value,
) error {
	data, subtype, err := valueReader.ReadBinary()
	if err != nil {
		return err
	}
	if subtype != 0x0 {
		return xerrors.Errorf("bin data field is not bson subtype 0x0: got %#x", subtype)
	}

	// The reader's buffer is reused, so the blob is copied out.
	binData := make(spantypes.BinData, len(data))
	copy(binData, data)

	value.Set(reflect.ValueOf(binData))
	return nil
}

// bsonCodecUUID handles encoding and decoding of UUID to and from bson binary subtype
// 0x3.
type bsonCodecUUID struct{}

func (codec bsonCodecUUID) EncodeValue(
	encodeCTX bsoncodec.EncodeContext,
	valueWriter bsonrw.ValueWriter,
	value reflect.Value,
) error {
	valueUUID, ok := value.Interface().(uuid.UUID)
	if !ok {
		return xerrors.Errorf("cannot encode %v as uuid", value.Type())
	}
	return valueWriter.WriteBinaryWithSubtype(valueUUID.Bytes(), 0x3)
}

func (codec bsonCodecUUID) DecodeValue(
	decodeCTX bsoncodec.DecodeContext,
	valueReader bsonrw.ValueReader,
	value reflect.Value,
) error {
	bytesUUID, _, err := valueReader.ReadBinary()
	if err != nil {
		return err
	}

	uuidVal, err := uuid.FromBytes(bytesUUID)
	if err != nil {
		return err
	}

	value.Set(reflect.ValueOf(uuidVal))
	return nil
}

// BSON encoder for writing BSON documents.
type bsonEncoder struct{}

func (encoder *bsonEncoder) registry(engine ContentEngine) *bsoncodec.Registry {
	if spanEngine, ok := engine.(*SpanEngine); ok {
		return spanEngine.bsonRegistry
	}
	if wrapped, ok := engine.(interface{ BSONRegistry() *bsoncodec.Registry }); ok {
		return wrapped.BSONRegistry()
	}
	return bson.DefaultRegistry
}

func (encoder *bsonEncoder) encodeSingle(
	registry *bsoncodec.Registry, writer io.Writer, content interface{},
) error {
	var bodyBSON bson.Raw

	switch raw := content.(type) {
	case bson.Raw:
		bodyBSON = raw
	case *bson.Raw:
		bodyBSON = *raw
	default:
		marshalled, err := bson.MarshalWithRegistry(registry, content)
		if err != nil {
			return err
		}
		bodyBSON = marshalled
	}

	_, err := writer.Write(bodyBSON)
	return err
}

// Encodes multiple bson documents to a single payload.
func (encoder *bsonEncoder) encodeMany(
	registry *bsoncodec.Registry, writer io.Writer, content reflect.Value,
) error {
	finalIndex := content.Len() - 1

	for arrayIndex := 0; arrayIndex <= finalIndex; arrayIndex++ {
		listValue := content.Index(arrayIndex)

		err := encoder.encodeSingle(registry, writer, listValue.Interface())
		if err != nil {
			return err
		}

		if arrayIndex != finalIndex {
			if _, err = writer.Write(BsonListSepBytes); err != nil {
				return xerrors.Errorf("error writing document separator: %w", err)
			}
		}
	}
	return nil
}

// Reports whether a value is a list of documents rather than a raw document.
func isDocumentList(value reflect.Value, content interface{}) bool {
	switch content.(type) {
	case bson.Raw, *bson.Raw:
		return false
	}
	return value.Kind() == reflect.Slice || value.Kind() == reflect.Array
}

func (encoder *bsonEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	registry := encoder.registry(engine)
	contentValue := reflect.Indirect(reflect.ValueOf(content))

	if isDocumentList(contentValue, content) {
		return encoder.encodeMany(registry, writer, contentValue)
	}
	return encoder.encodeSingle(registry, writer, content)
}

// Rejects a buffered payload whose length prefix claims more bytes than it holds,
// before the bson reader allocates for it.
func checkDocumentLength(reader io.Reader) error {
	buffered, ok := reader.(*bytes.Buffer)
	if !ok {
		return nil
	}

	payload := buffered.Bytes()
	if len(payload) < 5 {
		return xerrors.Errorf("bson document too short: %d bytes", len(payload))
	}

	declared := int64(binary.LittleEndian.Uint32(payload[:4]))
	if declared > int64(len(payload)) {
		return xerrors.Errorf(
			"bson document length %d exceeds payload of %d bytes",
			declared,
			len(payload),
		)
	}
	return nil
}

func (encoder *bsonEncoder) decodeSingle(
	registry *bsoncodec.Registry, reader io.Reader, contentReceiver interface{},
) error {
	if err := checkDocumentLength(reader); err != nil {
		return err
	}

	document, err := bson.NewFromIOReader(reader)
	if err != nil {
		return err
	}

	return bson.UnmarshalWithRegistry(registry, document, contentReceiver)
}

func (encoder *bsonEncoder) decodeMany(
	registry *bsoncodec.Registry, reader io.Reader, contentReceiver interface{},
) error {
	slicePointer := reflect.ValueOf(contentReceiver)
	if slicePointer.Kind() != reflect.Ptr {
		return xerrors.New("slice receiver must be pointer")
	}
	sliceValue := slicePointer.Elem()
	elementType := sliceValue.Type().Elem()

	docScanner := bufio.NewScanner(reader)
	docScanner.Split(splitBsonFunc)

	for docScanner.Scan() {
		docBuff := bytes.NewBuffer(docScanner.Bytes())
		newElement := reflect.New(elementType)

		if err := encoder.decodeSingle(registry, docBuff, newElement.Interface()); err != nil {
			return err
		}

		sliceValue.Set(reflect.Append(sliceValue, newElement.Elem()))
	}

	return docScanner.Err()
}

func (encoder *bsonEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	registry := encoder.registry(engine)
	receiverValue := reflect.Indirect(reflect.ValueOf(contentReceiver))

	if isDocumentList(receiverValue, contentReceiver) {
		return encoder.decodeMany(registry, reader, contentReceiver)
	}
	return encoder.decodeSingle(registry, reader, contentReceiver)
}
