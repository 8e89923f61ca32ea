package model

// DecodeKind tells which shape a catalog response was decoded into
type DecodeKind int

const (
	// DecodeEmpty is a valid response that carries no data
	DecodeEmpty DecodeKind = iota
	// DecodeList is a valid response with items
	DecodeList
	// DecodeMalformed is a response that does not match the endpoint schema
	DecodeMalformed
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeEmpty:
		return "empty"
	case DecodeList:
		return "list"
	case DecodeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Decoded is the result of decoding one catalog response. Endpoints whose
// body can be an array, an object wrapping an array or an object without data
// resolve the shape explicitly into one of the three kinds.
type Decoded[T any] struct {
	Kind  DecodeKind
	Items []T
	Err   error
}

// Empty returns a decode result without data
func Empty[T any]() Decoded[T] {
	return Decoded[T]{Kind: DecodeEmpty}
}

// List returns a decode result with items. No items is reported as Empty.
func List[T any](items []T) Decoded[T] {
	if len(items) == 0 {
		return Decoded[T]{Kind: DecodeEmpty}
	}
	return Decoded[T]{Kind: DecodeList, Items: items}
}

// Malformed returns a decode result for a body that does not match the schema
func Malformed[T any](err error) Decoded[T] {
	return Decoded[T]{Kind: DecodeMalformed, Err: err}
}
