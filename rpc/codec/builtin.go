package codec

// registerBuiltins adds the codecs of the primitive types. Registering into a
// fresh registry cannot fail.
func registerBuiltins(r *Registry) {
	_ = Register[string](r, CodecFuncs[string]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v string) error { buf.PutString(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (string, error) { return rd.String() },
	})
	_ = Register[int8](r, CodecFuncs[int8]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v int8) error { buf.PutInt8(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (int8, error) { return rd.Int8() },
	})
	_ = Register[int16](r, CodecFuncs[int16]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v int16) error { buf.PutInt16(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (int16, error) { return rd.Int16() },
	})
	_ = Register[int32](r, CodecFuncs[int32]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v int32) error { buf.PutInt32(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (int32, error) { return rd.Int32() },
	})
	_ = Register[int64](r, CodecFuncs[int64]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v int64) error { buf.PutInt64(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (int64, error) { return rd.Int64() },
	})
	_ = Register[float32](r, CodecFuncs[float32]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v float32) error { buf.PutFloat32(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (float32, error) { return rd.Float32() },
	})
	_ = Register[float64](r, CodecFuncs[float64]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v float64) error { buf.PutFloat64(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (float64, error) { return rd.Float64() },
	})
	_ = Register[bool](r, CodecFuncs[bool]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v bool) error { buf.PutBool(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) (bool, error) { return rd.Bool() },
	})
	_ = Register[[]byte](r, CodecFuncs[[]byte]{
		EncodeFunc: func(_ *Registry, buf *Buffer, v []byte) error { buf.PutBytes(v); return nil },
		DecodeFunc: func(_ *Registry, rd *Reader) ([]byte, error) { return rd.Bytes() },
	})
}
