package encoding

import (
	"encoding/hex"
	"github.com/illuscio-dev/spanrespond-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"
	"io"
	"reflect"
)

// JSONExtensionOpts holds options for a json handle extension to add to the engine.
type JSONExtensionOpts struct {
	ValueType    reflect.Type
	ExtInterface codec.InterfaceExt
}

// defaultJSONExtensions holds all the JSONExtensionOpts added by NewContentEngine.
var defaultJSONExtensions = []*JSONExtensionOpts{
	{
		ValueType:    reflect.TypeOf(primitive.Binary{}),
		ExtInterface: &jsonExtBsonBinary{},
	},
	{
		ValueType:    reflect.TypeOf(spantypes.BinData{}),
		ExtInterface: &jsonExtBinData{},
	},
}

// Converts spantypes.BinData to and from a hex string.
type jsonExtBinData struct{}

func (ext *jsonExtBinData) ConvertExt(value interface{}) interface{} {
	switch typed := value.(type) {
	case spantypes.BinData:
		return hex.EncodeToString(typed)
	case *spantypes.BinData:
		return hex.EncodeToString(*typed)
	}
	panic(xerrors.Errorf("cannot encode %T as bin data", value))
}

func (ext *jsonExtBinData) UpdateExt(dest interface{}, value interface{}) {
	binData, ok := dest.(*spantypes.BinData)
	if !ok {
		panic(xerrors.Errorf("cannot decode bin data into %T", dest))
	}

	// null leaves the field empty.
	if value == nil {
		*binData = nil
		return
	}

	hexString, ok := value.(string)
	if !ok {
		panic(xerrors.Errorf("bin data must be a hex string, got %T", value))
	}

	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		panic(xerrors.Errorf("error decoding bin data hex: %w", err))
	}
	*binData = decoded
}

// Converts BSON binary fields to json. Subtype 0x0 blobs are written as hex, like
// spantypes.BinData, and subtypes 0x3 / 0x4 as UUID strings.
type jsonExtBsonBinary struct{}

func (ext *jsonExtBsonBinary) ConvertExt(value interface{}) interface{} {
	var valueBin primitive.Binary
	switch typed := value.(type) {
	case primitive.Binary:
		valueBin = typed
	case *primitive.Binary:
		valueBin = *typed
	}

	switch valueBin.Subtype {
	case 0x3, 0x4:
		valueUUID, err := uuid.FromBytes(valueBin.Data)
		if err != nil {
			panic(xerrors.Errorf("error converting bson uuid: %w", err))
		}
		return valueUUID.String()
	case 0x0:
		return hex.EncodeToString(valueBin.Data)
	}

	panic(xerrors.Errorf("unsupported binary bson subtype %#x", valueBin.Subtype))
}

func (ext *jsonExtBsonBinary) UpdateExt(dest interface{}, value interface{}) {
	panic(xerrors.New(
		"decoding to bson binary field not supported -- " +
			"use uuid or spantypes.BinData as intermediary",
	))
}

// Converts BSON Raw document to json object.
type jsonExtBsonRaw struct {
	bsonRegistry *bsoncodec.Registry
}

func (ext *jsonExtBsonRaw) ConvertExt(value interface{}) interface{} {
	var valueRaw bson.Raw
	switch typed := value.(type) {
	case bson.Raw:
		valueRaw = typed
	case *bson.Raw:
		valueRaw = *typed
	}

	unmarshaled := make(map[string]interface{})

	if len(valueRaw) > 0 {
		err := bson.UnmarshalWithRegistry(ext.bsonRegistry, valueRaw, &unmarshaled)
		if err != nil {
			panic(xerrors.Errorf(
				"error while unmarshalling bson for encoding: %w", err,
			))
		}
	}

	return unmarshaled
}

func (ext *jsonExtBsonRaw) UpdateExt(dest interface{}, value interface{}) {
	panic(xerrors.New("decoding to bson raw field not supported"))
}

// Default JSON encoder for SpanEngine.
type jsonEncoder struct{}

func (encoder *jsonEncoder) handle(engine ContentEngine) *codec.JsonHandle {
	if spanEngine, ok := engine.(*SpanEngine); ok {
		return spanEngine.jsonHandle
	}
	if wrapped, ok := engine.(interface{ JSONHandle() *codec.JsonHandle }); ok {
		return wrapped.JSONHandle()
	}
	return &codec.JsonHandle{}
}

func (encoder *jsonEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	return codec.NewEncoder(writer, encoder.handle(engine)).Encode(content)
}

func (encoder *jsonEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	return codec.NewDecoder(reader, encoder.handle(engine)).Decode(contentReceiver)
}
