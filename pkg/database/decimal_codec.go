package database

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
)

// NewRegistry returns the default BSON registry extended with codecs that
// store decimal.Decimal and decimal.NullDecimal as Decimal128.
func NewRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decodeDecimal))
	reg.RegisterTypeEncoder(nullDecimalType, bsoncodec.ValueEncoderFunc(encodeNullDecimal))
	reg.RegisterTypeDecoder(nullDecimalType, bsoncodec.ValueDecoderFunc(decodeNullDecimal))
	return reg
}

func writeDecimal(vw bsonrw.ValueWriter, d decimal.Decimal) error {
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return fmt.Errorf("decimal %s does not fit Decimal128: %w", d.String(), err)
	}
	return vw.WriteDecimal128(d128)
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "DecimalEncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	return writeDecimal(vw, val.Interface().(decimal.Decimal))
}

func encodeNullDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != nullDecimalType {
		return bsoncodec.ValueEncoderError{Name: "NullDecimalEncodeValue", Types: []reflect.Type{nullDecimalType}, Received: val}
	}
	nd := val.Interface().(decimal.NullDecimal)
	if !nd.Valid {
		return vw.WriteNull()
	}
	return writeDecimal(vw, nd.Decimal)
}

// readDecimal accepts every numeric representation a document may carry,
// including values written by other clients as doubles or strings. ok is
// false for null and undefined.
func readDecimal(vr bsonrw.ValueReader) (d decimal.Decimal, ok bool, err error) {
	switch vr.Type() {
	case bsontype.Decimal128:
		v, err := vr.ReadDecimal128()
		if err != nil {
			return d, false, err
		}
		d, err = decimal.NewFromString(v.String())
		return d, err == nil, err
	case bsontype.Double:
		v, err := vr.ReadDouble()
		if err != nil {
			return d, false, err
		}
		return decimal.NewFromFloat(v), true, nil
	case bsontype.Int32:
		v, err := vr.ReadInt32()
		if err != nil {
			return d, false, err
		}
		return decimal.NewFromInt32(v), true, nil
	case bsontype.Int64:
		v, err := vr.ReadInt64()
		if err != nil {
			return d, false, err
		}
		return decimal.NewFromInt(v), true, nil
	case bsontype.String:
		v, err := vr.ReadString()
		if err != nil {
			return d, false, err
		}
		d, err = decimal.NewFromString(v)
		return d, err == nil, err
	case bsontype.Null:
		return d, false, vr.ReadNull()
	case bsontype.Undefined:
		return d, false, vr.ReadUndefined()
	default:
		return d, false, fmt.Errorf("cannot decode %v into a decimal", vr.Type())
	}
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "DecimalDecodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	d, _, err := readDecimal(vr)
	if err != nil {
		return err
	}
	val.Set(reflect.ValueOf(d))
	return nil
}

func decodeNullDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != nullDecimalType {
		return bsoncodec.ValueDecoderError{Name: "NullDecimalDecodeValue", Types: []reflect.Type{nullDecimalType}, Received: val}
	}
	d, ok, err := readDecimal(vr)
	if err != nil {
		return err
	}
	val.Set(reflect.ValueOf(decimal.NullDecimal{Decimal: d, Valid: ok}))
	return nil
}
